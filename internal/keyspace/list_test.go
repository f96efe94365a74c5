package keyspace

import (
	"bytes"
	"testing"
)

func bs(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestPushPopOrder(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "b", "c"))
	n, _ := k.LLen("l")
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	vals, _ := k.LRange("l", 0, -1)
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if string(vals[i]) != w {
			t.Fatalf("idx %d: want %q got %q", i, w, vals[i])
		}
	}
	popped, _ := k.Pop("l", false, 1)
	if len(popped) != 1 || string(popped[0]) != "a" {
		t.Fatalf("LPOP: got %v", popped)
	}
}

func TestPushLeftCreatesAndDeletesOnEmpty(t *testing.T) {
	k := New()
	k.Push("l", false, bs("x"))
	k.Pop("l", false, 1)
	if k.Exists("l") != 0 {
		t.Fatal("list key should be removed once emptied")
	}
}

func TestLIndexLSet(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "b", "c"))
	v, ok, _ := k.LIndex("l", 1)
	if !ok || string(v) != "b" {
		t.Fatalf("got %q %v", v, ok)
	}
	if err := k.LSet("l", 1, []byte("B")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _, _ = k.LIndex("l", 1)
	if string(v) != "B" {
		t.Fatalf("want B, got %q", v)
	}
	if err := k.LSet("l", 99, []byte("x")); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestLTrim(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "b", "c", "d"))
	k.LTrim("l", 1, 2)
	vals, _ := k.LRange("l", 0, -1)
	if len(vals) != 2 || string(vals[0]) != "b" || string(vals[1]) != "c" {
		t.Fatalf("got %v", vals)
	}
}

func TestLRemPositiveNegativeZero(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "x", "a", "x", "a"))
	n, _ := k.LRem("l", 2, []byte("a"))
	if n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	vals, _ := k.LRange("l", 0, -1)
	if len(vals) != 3 {
		t.Fatalf("got %v", vals)
	}

	k2 := New()
	k2.Push("l", true, bs("a", "x", "a", "x", "a"))
	n, _ = k2.LRem("l", -2, []byte("a"))
	if n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	vals, _ = k2.LRange("l", 0, -1)
	if string(vals[0]) != "a" {
		t.Fatalf("want first kept occurrence from the left, got %v", vals)
	}

	k3 := New()
	k3.Push("l", true, bs("a", "x", "a"))
	n, _ = k3.LRem("l", 0, []byte("a"))
	if n != 2 {
		t.Fatalf("want 2 (all), got %d", n)
	}
}

func TestLInsertBeforeAfter(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "c"))
	n, _ := k.LInsert("l", true, []byte("c"), []byte("b"))
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	vals, _ := k.LRange("l", 0, -1)
	if string(vals[1]) != "b" {
		t.Fatalf("want b in the middle, got %v", vals)
	}
	if n, _ := k.LInsert("l", true, []byte("zzz"), []byte("q")); n != -1 {
		t.Fatalf("want -1 for missing pivot, got %d", n)
	}
}

func TestLMoveAtomic(t *testing.T) {
	k := New()
	k.Push("src", true, bs("a", "b"))
	v, ok, _ := k.LMove("src", "dst", true, false)
	if !ok || string(v) != "b" {
		t.Fatalf("got %q %v", v, ok)
	}
	srcVals, _ := k.LRange("src", 0, -1)
	dstVals, _ := k.LRange("dst", 0, -1)
	if len(srcVals) != 1 || string(srcVals[0]) != "a" {
		t.Fatalf("src: got %v", srcVals)
	}
	if len(dstVals) != 1 || string(dstVals[0]) != "b" {
		t.Fatalf("dst: got %v", dstVals)
	}
}

func TestLPosRankAndCount(t *testing.T) {
	k := New()
	k.Push("l", true, bs("a", "b", "a", "c", "a"))
	idxs := k.mustLPos(t, "a", 1, 0, 0)
	if len(idxs) != 3 {
		t.Fatalf("want all 3 matches, got %v", idxs)
	}
	idxs = k.mustLPos(t, "a", -1, 1, 0)
	if len(idxs) != 1 || idxs[0] != 4 {
		t.Fatalf("want [4] from the tail, got %v", idxs)
	}
}

func (k *Keyspace) mustLPos(t *testing.T, val string, rank, count, maxlen int) []int {
	t.Helper()
	idxs, err := k.LPos("l", []byte(val), rank, count, maxlen)
	if err != nil {
		t.Fatalf("LPos error: %v", err)
	}
	return idxs
}

func TestListWrongType(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, err := k.Push("k", true, bs("x")); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}

func TestListBinarySafety(t *testing.T) {
	k := New()
	payload := []byte{0x00, '\r', '\n', 0xFF}
	k.Push("l", true, [][]byte{payload})
	vals, _ := k.LRange("l", 0, -1)
	if !bytes.Equal(vals[0], payload) {
		t.Fatalf("binary payload mangled: got %x want %x", vals[0], payload)
	}
}
