// Package config implements the configuration registry of spec.md §4.8
// and §6: a process-wide set of typed named parameters, some read-only,
// exposed to clients through CONFIG GET/SET/REWRITE/RESETSTAT. Lookup is
// case-insensitive and GET accepts the same glob syntax as KEYS.
//
// The load/validate shape is grounded on the teacher's own
// internal/config/validate.go (jsonschema.CompileString then
// sch.Validate) and internal/memorystore/config.go's pattern of a
// package-level settings value populated by validate-then-decode; here
// that becomes a Registry value instead of a package global, since
// spec.md §5 wants config passed as an explicit capability handle
// rather than read through module state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// Parameter is one named, typed configuration value.
type Parameter struct {
	Name     string
	Value    string
	ReadOnly bool
	Enum     []string // nil when the value isn't restricted to an enum
}

func (p *Parameter) validate(value string) error {
	if len(p.Enum) == 0 {
		return nil
	}
	for _, e := range p.Enum {
		if e == value {
			return nil
		}
	}
	return fmt.Errorf("invalid value %q for parameter %q, expected one of %v", value, p.Name, p.Enum)
}

// Registry holds every configuration parameter behind one lock, per
// spec.md §5's "config registry is process-wide with its own lock".
type Registry struct {
	mu   sync.RWMutex
	path string

	names  []string // insertion order, for GET's iteration and REWRITE's output
	params map[string]*Parameter

	statsResetCount uint64
}

// New builds a registry seeded with spec.md §6's representative defaults.
func New() *Registry {
	r := &Registry{params: map[string]*Parameter{}}
	r.define("port", "6379", true, nil)
	r.define("bind", "0.0.0.0", true, nil)
	r.define("databases", "16", true, nil)
	r.define("maxmemory", "0", false, nil)
	r.define("maxmemory-policy", "noeviction", false, []string{
		"noeviction", "allkeys-lru", "allkeys-lfu", "volatile-lru",
		"volatile-lfu", "allkeys-random", "volatile-random", "volatile-ttl",
	})
	r.define("timeout", "0", false, nil)
	r.define("tcp-keepalive", "300", false, nil)
	r.define("save", "3600 1 300 100 60 10000", false, nil)
	r.define("appendonly", "no", false, []string{"yes", "no"})
	r.define("appendfsync", "everysec", false, []string{"always", "everysec", "no"})
	return r
}

func (r *Registry) define(name, value string, readOnly bool, enum []string) {
	key := strings.ToLower(name)
	r.params[key] = &Parameter{Name: name, Value: value, ReadOnly: readOnly, Enum: enum}
	r.names = append(r.names, key)
}

// Get returns every parameter whose (lower-cased) name matches pattern,
// per CONFIG GET's glob semantics (spec.md §3's glob rules, case folded
// for this lookup only — keyspace.Match itself stays byte-exact).
func (r *Registry) Get(pattern string) []Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowerPattern := strings.ToLower(pattern)
	out := make([]Parameter, 0, len(r.names))
	for _, key := range r.names {
		if keyspace.Match(lowerPattern, key) {
			out = append(out, *r.params[key])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Set assigns value to the named parameter, case-insensitively, after
// checking ReadOnly and any enum constraint.
func (r *Registry) Set(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.params[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown configuration parameter %q", name)
	}
	if p.ReadOnly {
		return fmt.Errorf("parameter %q is read-only", name)
	}
	if err := p.validate(value); err != nil {
		return err
	}
	p.Value = value
	return nil
}

// ResetStat implements CONFIG RESETSTAT: it doesn't own the Prometheus
// counters in internal/metrics (importing that package here would be a
// cycle the other way round), so it just records that a reset happened;
// callers that report stats can consult StatsResetCount to know whether
// to treat pre-reset samples as stale.
func (r *Registry) ResetStat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsResetCount++
}

// StatsResetCount reports how many times CONFIG RESETSTAT has run.
func (r *Registry) StatsResetCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsResetCount
}

// Load reads a JSON object of parameter name to string value from path,
// validates it against configSchema, and applies every recognized key —
// including read-only ones, since this only runs at startup before any
// client connection exists. A missing file is not an error (defaults
// stand), mirroring the teacher's Init(flagConfigFile) tolerance for an
// absent config file.
func (r *Registry) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.path = path
			return nil
		}
		return err
	}
	if err := validateRaw(raw); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, value := range values {
		p, ok := r.params[strings.ToLower(name)]
		if !ok {
			log.Warnf("config %s: ignoring unknown parameter %q", path, name)
			continue
		}
		if err := p.validate(value); err != nil {
			return err
		}
		p.Value = value
	}
	r.path = path
	return nil
}

// Rewrite persists the current value of every parameter back to the
// file Load was given, per CONFIG REWRITE. It errors if the registry was
// never given a path.
func (r *Registry) Rewrite() error {
	r.mu.RLock()
	if r.path == "" {
		r.mu.RUnlock()
		return fmt.Errorf("the server is running without a config file")
	}
	values := make(map[string]string, len(r.names))
	for _, key := range r.names {
		values[r.params[key].Name] = r.params[key].Value
	}
	path := r.path
	r.mu.RUnlock()

	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dirOf(path), ".config-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "."
	}
	return path[:i]
}
