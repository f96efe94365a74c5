package keyspace

import "testing"

func containsBytes(haystack [][]byte, needle string) bool {
	for _, b := range haystack {
		if string(b) == needle {
			return true
		}
	}
	return false
}

func TestSAddSRemSCard(t *testing.T) {
	k := New()
	n, _ := k.SAdd("s", []byte("a"), []byte("b"), []byte("a"))
	if n != 2 {
		t.Fatalf("want 2 newly added, got %d", n)
	}
	card, _ := k.SCard("s")
	if card != 2 {
		t.Fatalf("want card 2, got %d", card)
	}
	n, _ = k.SRem("s", []byte("a"))
	if n != 1 {
		t.Fatalf("want 1 removed, got %d", n)
	}
}

func TestSAddDeletesOnEmpty(t *testing.T) {
	k := New()
	k.SAdd("s", []byte("a"))
	k.SRem("s", []byte("a"))
	if k.Exists("s") != 0 {
		t.Fatal("set key should be removed once emptied")
	}
}

func TestSIsMember(t *testing.T) {
	k := New()
	k.SAdd("s", []byte("a"))
	ok, _ := k.SIsMember("s", []byte("a"))
	if !ok {
		t.Fatal("want true")
	}
	ok, _ = k.SIsMember("s", []byte("b"))
	if ok {
		t.Fatal("want false")
	}
}

func TestSUnionInterDiff(t *testing.T) {
	k := New()
	k.SAdd("a", []byte("x"), []byte("y"), []byte("z"))
	k.SAdd("b", []byte("y"), []byte("z"), []byte("w"))

	union, _ := k.SUnion("a", "b")
	if len(union) != 4 {
		t.Fatalf("want 4, got %d (%v)", len(union), union)
	}

	inter, _ := k.SInter("a", "b")
	if len(inter) != 2 || !containsBytes(inter, "y") || !containsBytes(inter, "z") {
		t.Fatalf("want {y,z}, got %v", inter)
	}

	diff, _ := k.SDiff("a", "b")
	if len(diff) != 1 || !containsBytes(diff, "x") {
		t.Fatalf("want {x}, got %v", diff)
	}
}

func TestSUnionStore(t *testing.T) {
	k := New()
	k.SAdd("a", []byte("x"))
	k.SAdd("b", []byte("y"))
	n, _ := k.SUnionStore("dst", "a", "b")
	if n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	card, _ := k.SCard("dst")
	if card != 2 {
		t.Fatalf("want 2, got %d", card)
	}
}

func TestSMoveAtomic(t *testing.T) {
	k := New()
	k.SAdd("src", []byte("m"))
	ok, _ := k.SMove("src", "dst", []byte("m"))
	if !ok {
		t.Fatal("want true")
	}
	if in, _ := k.SIsMember("src", []byte("m")); in {
		t.Fatal("member should be gone from src")
	}
	if in, _ := k.SIsMember("dst", []byte("m")); !in {
		t.Fatal("member should be present in dst")
	}
}

func TestSPopRemovesMembers(t *testing.T) {
	k := New()
	k.SAdd("s", []byte("a"), []byte("b"), []byte("c"))
	popped, _ := k.SPop("s", 2)
	if len(popped) != 2 {
		t.Fatalf("want 2, got %d", len(popped))
	}
	card, _ := k.SCard("s")
	if card != 1 {
		t.Fatalf("want 1 remaining, got %d", card)
	}
}

func TestSetWrongType(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, err := k.SAdd("k", []byte("x")); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}
