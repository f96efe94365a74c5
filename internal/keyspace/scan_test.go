package keyspace

import (
	"fmt"
	"testing"
)

func TestScanKeysCoversEverything(t *testing.T) {
	k := New()
	for i := 0; i < 37; i++ {
		k.Set(fmt.Sprintf("key-%02d", i), []byte("v"), 0, false)
	}
	seen := map[string]bool{}
	cursor := ""
	for {
		page, next := k.ScanKeys(cursor, "*", 5)
		for _, key := range page {
			seen[key] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 37 {
		t.Fatalf("want every key visited at least once, got %d", len(seen))
	}
}

func TestScanKeysWithPattern(t *testing.T) {
	k := New()
	k.Set("user:1", []byte("v"), 0, false)
	k.Set("user:2", []byte("v"), 0, false)
	k.Set("order:1", []byte("v"), 0, false)
	seen := map[string]bool{}
	cursor := ""
	for {
		page, next := k.ScanKeys(cursor, "user:*", 1)
		for _, key := range page {
			seen[key] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 2 {
		t.Fatalf("want 2 matching keys, got %d (%v)", len(seen), seen)
	}
}

// TestScanKeysSurvivesDeletionBehindCursor reproduces the completeness
// violation a raw-index cursor has: sorting fresh on every call and then
// resuming from a numeric index means a deletion before the cursor
// shifts every following element left by one, silently skipping
// whichever key lands exactly on the old index. Resuming from the value
// of the last key examined instead of its position must not lose "c"
// here.
func TestScanKeysSurvivesDeletionBehindCursor(t *testing.T) {
	k := New()
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		k.Set(key, []byte("v"), 0, false)
	}

	page, cursor := k.ScanKeys("", "*", 2)
	if fmt.Sprint(page) != "[a b]" {
		t.Fatalf("first page = %v, want [a b]", page)
	}
	if cursor == "" {
		t.Fatalf("want a non-terminal cursor after the first page")
	}

	k.Del("a")

	page, cursor = k.ScanKeys(cursor, "*", 2)
	seen := map[string]bool{}
	for _, key := range page {
		seen[key] = true
	}
	for cursor != "" {
		var more []string
		more, cursor = k.ScanKeys(cursor, "*", 2)
		for _, key := range more {
			seen[key] = true
		}
	}
	for _, want := range []string{"c", "d", "e"} {
		if !seen[want] {
			t.Fatalf("key %q live for the entire scan was never returned; got %v", want, seen)
		}
	}
}

func TestHScanCoversAllFields(t *testing.T) {
	k := New()
	pairs := map[string][]byte{}
	for i := 0; i < 20; i++ {
		pairs[fmt.Sprintf("f%02d", i)] = []byte("v")
	}
	k.HSet("h", pairs)
	seen := map[string]bool{}
	cursor := ""
	for {
		fields, _, next, err := k.HScan("h", cursor, "*", 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, f := range fields {
			seen[f] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 20 {
		t.Fatalf("want 20 fields visited, got %d", len(seen))
	}
}

func TestSScanCoversAllMembers(t *testing.T) {
	k := New()
	members := make([][]byte, 15)
	for i := range members {
		members[i] = []byte(fmt.Sprintf("m%02d", i))
	}
	k.SAdd("s", members...)
	seen := map[string]bool{}
	cursor := ""
	for {
		page, next, err := k.SScan("s", cursor, "*", 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, m := range page {
			seen[m] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 15 {
		t.Fatalf("want 15 members visited, got %d", len(seen))
	}
}

func TestZScanCoversAllMembers(t *testing.T) {
	k := New()
	members := make([]string, 12)
	scores := make([]float64, 12)
	for i := range members {
		members[i] = fmt.Sprintf("m%02d", i)
		scores[i] = float64(i)
	}
	k.ZAdd("z", ZAddFlags{}, members, scores)
	seen := map[string]bool{}
	cursor := ""
	for {
		page, _, next, err := k.ZScan("z", cursor, "*", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, m := range page {
			seen[m] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != 12 {
		t.Fatalf("want 12 members visited, got %d", len(seen))
	}
}

func TestScanOnWrongTypeKey(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, _, _, err := k.HScan("k", "", "*", 10); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}
