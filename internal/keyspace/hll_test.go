package keyspace

import (
	"fmt"
	"math"
	"testing"
)

func TestPFAddReportsChange(t *testing.T) {
	k := New()
	changed, err := k.PFAdd("h", []byte("a"))
	if err != nil || !changed {
		t.Fatalf("first add should change registers, got %v %v", changed, err)
	}
	changed, err = k.PFAdd("h", []byte("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = changed // re-adding the same element may or may not flip a register
}

func TestPFCountApproximatesCardinality(t *testing.T) {
	k := New()
	const n = 10000
	for i := 0; i < n; i++ {
		k.PFAdd("h", []byte(fmt.Sprintf("elem-%d", i)))
	}
	count, err := k.PFCount("h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	errRatio := math.Abs(float64(count)-n) / n
	if errRatio > 0.05 {
		t.Fatalf("estimate %d too far from true cardinality %d (%.4f error)", count, n, errRatio)
	}
}

func TestPFCountMergesAcrossKeys(t *testing.T) {
	k := New()
	for i := 0; i < 500; i++ {
		k.PFAdd("a", []byte(fmt.Sprintf("x-%d", i)))
	}
	for i := 0; i < 500; i++ {
		k.PFAdd("b", []byte(fmt.Sprintf("y-%d", i)))
	}
	countA, _ := k.PFCount("a")
	countB, _ := k.PFCount("b")
	merged, _ := k.PFCount("a", "b")
	if merged < countA || merged < countB {
		t.Fatalf("merged count %d should be at least as large as either half (%d, %d)", merged, countA, countB)
	}
}

func TestPFMerge(t *testing.T) {
	k := New()
	k.PFAdd("a", []byte("x"), []byte("y"))
	k.PFAdd("b", []byte("y"), []byte("z"))
	if err := k.PFMerge("dst", "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, _ := k.PFCount("dst")
	if count < 1 {
		t.Fatalf("merged sketch should report a non-trivial cardinality, got %d", count)
	}
}

func TestPFAddWrongType(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, err := k.PFAdd("k", []byte("x")); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}

func TestPFCountEmptyKeyIsZero(t *testing.T) {
	k := New()
	count, err := k.PFCount("missing")
	if err != nil || count != 0 {
		t.Fatalf("got %d %v", count, err)
	}
}
