// Package persistence implements the binary snapshot format and
// append-only command log described in spec.md §4.3, grounded on the
// teacher's internal/memorystore checkpoint machinery (see DESIGN.md
// §C): a ticker-driven background writer, a temp-file-then-atomic-rename
// save path, and a field-by-field binary record writer.
package persistence

import "github.com/yusa-imit/zoltraak/internal/keyspace"

// magic identifies a Zoltraak snapshot file; version gates format
// changes (a mismatch is a fatal load error per spec.md §4.3).
var magic = [8]byte{'Z', 'O', 'L', 'T', 'R', 'A', 'A', 'K'}

const formatVersion = 1

const eofTag = 0xFF

// recordType tags each snapshot entry's payload shape. Values are
// stable across versions; append new kinds, never renumber.
type recordType byte

const (
	typeString recordType = iota
	typeList
	typeSet
	typeHash
	typeZSet
	typeStream
	typeHLL
)

func recordTypeOf(k keyspace.Kind) (recordType, bool) {
	switch k {
	case keyspace.KindString:
		return typeString, true
	case keyspace.KindList:
		return typeList, true
	case keyspace.KindSet:
		return typeSet, true
	case keyspace.KindHash:
		return typeHash, true
	case keyspace.KindZSet:
		return typeZSet, true
	case keyspace.KindStream:
		return typeStream, true
	case keyspace.KindHLL:
		return typeHLL, true
	default:
		return 0, false
	}
}
