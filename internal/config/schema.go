package config

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema constrains the on-disk config file (a flat JSON object of
// parameter name to string value) the same way the teacher's schema.go
// constrained its program config: known keys get a type/enum check,
// unknown keys are allowed through (forward-compatible with parameters
// this registry doesn't model yet).
const configSchema = `{
	"type": "object",
	"properties": {
		"port": {"type": "string", "pattern": "^[0-9]+$"},
		"bind": {"type": "string"},
		"databases": {"type": "string", "pattern": "^[0-9]+$"},
		"maxmemory": {"type": "string"},
		"maxmemory-policy": {
			"type": "string",
			"enum": ["noeviction", "allkeys-lru", "allkeys-lfu", "volatile-lru", "volatile-lfu", "allkeys-random", "volatile-random", "volatile-ttl"]
		},
		"timeout": {"type": "string", "pattern": "^[0-9]+$"},
		"tcp-keepalive": {"type": "string", "pattern": "^[0-9]+$"},
		"save": {"type": "string"},
		"appendonly": {"type": "string", "enum": ["yes", "no"]},
		"appendfsync": {"type": "string", "enum": ["always", "everysec", "no"]}
	}
}`

var compiledSchema *jsonschema.Schema

func init() {
	s, err := jsonschema.CompileString("zoltraak-config.json", configSchema)
	if err != nil {
		// configSchema is a compile-time constant; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	compiledSchema = s
}

// validateRaw mirrors the teacher's validate.go CompileString+Validate
// call shape, minus the cclog.Fatal calls: a bad config file must return
// an error the caller can report, not crash the process outright.
func validateRaw(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
