package keyspace

import "testing"

func TestZAddZScoreZRank(t *testing.T) {
	k := New()
	n, _ := k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c"}, []float64{1, 2, 3})
	if n != 3 {
		t.Fatalf("want 3 new members, got %d", n)
	}
	score, ok, _ := k.ZScore("z", "b")
	if !ok || score != 2 {
		t.Fatalf("got %v %v", score, ok)
	}
	rank, ok, _ := k.ZRank("z", "a")
	if !ok || rank != 0 {
		t.Fatalf("got %d %v", rank, ok)
	}
}

func TestZAddTiesBrokenLexicographically(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"banana", "apple", "cherry"}, []float64{1, 1, 1})
	names, _, _ := k.ZRange("z", 0, -1, false)
	want := []string{"apple", "banana", "cherry"}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("idx %d: want %q got %q (%v)", i, w, names[i], names)
		}
	}
}

func TestZAddNXXX(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a"}, []float64{1})
	n, _ := k.ZAdd("z", ZAddFlags{NX: true}, []string{"a"}, []float64{99})
	if n != 0 {
		t.Fatalf("NX should veto existing member update, got n=%d", n)
	}
	score, _, _ := k.ZScore("z", "a")
	if score != 1 {
		t.Fatalf("want score unchanged at 1, got %v", score)
	}
	n, _ = k.ZAdd("z", ZAddFlags{XX: true}, []string{"new"}, []float64{5})
	if n != 0 {
		t.Fatalf("XX should veto creating a new member, got n=%d", n)
	}
}

func TestZAddGTLT(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a"}, []float64{5})
	k.ZAdd("z", ZAddFlags{GT: true}, []string{"a"}, []float64{3})
	score, _, _ := k.ZScore("z", "a")
	if score != 5 {
		t.Fatalf("GT should reject a lower score, want 5 got %v", score)
	}
	k.ZAdd("z", ZAddFlags{GT: true}, []string{"a"}, []float64{10})
	score, _, _ = k.ZScore("z", "a")
	if score != 10 {
		t.Fatalf("GT should accept a higher score, want 10 got %v", score)
	}
}

func TestZIncrBy(t *testing.T) {
	k := New()
	score, ok, err := k.ZIncrBy("z", ZAddFlags{}, "a", 5)
	if err != nil || !ok || score != 5 {
		t.Fatalf("got %v %v %v", score, ok, err)
	}
	score, ok, err = k.ZIncrBy("z", ZAddFlags{}, "a", -2)
	if err != nil || !ok || score != 3 {
		t.Fatalf("got %v %v %v", score, ok, err)
	}
}

func TestZRemDeletesOnEmpty(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a"}, []float64{1})
	k.ZRem("z", "a")
	if k.Exists("z") != 0 {
		t.Fatal("zset key should be removed once emptied")
	}
}

func TestZRangeReverse(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c"}, []float64{1, 2, 3})
	names, _, _ := k.ZRange("z", 0, -1, true)
	want := []string{"c", "b", "a"}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("idx %d: want %q got %q", i, w, names[i])
		}
	}
}

func TestZRangeByScore(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c", "d"}, []float64{1, 2, 3, 4})
	r := NewScoreRange(2, 3, false, false)
	names, scores, _ := k.ZRangeByScore("z", r, false, 0, -1)
	if len(names) != 2 || names[0] != "b" || names[1] != "c" {
		t.Fatalf("got %v %v", names, scores)
	}
}

func TestZRangeByScoreExclusive(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c"}, []float64{1, 2, 3})
	r := NewScoreRange(1, 3, true, true)
	names, _, _ := k.ZRangeByScore("z", r, false, 0, -1)
	if len(names) != 1 || names[0] != "b" {
		t.Fatalf("exclusive bounds: got %v", names)
	}
}

func TestZCount(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c"}, []float64{1, 2, 3})
	r := NewScoreRange(1, 2, false, false)
	n, _ := k.ZCount("z", r)
	if n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
}

func TestZPopMinMax(t *testing.T) {
	k := New()
	k.ZAdd("z", ZAddFlags{}, []string{"a", "b", "c"}, []float64{1, 2, 3})
	names, scores, _ := k.ZPopMin("z", 1)
	if len(names) != 1 || names[0] != "a" || scores[0] != 1 {
		t.Fatalf("got %v %v", names, scores)
	}
	names, scores, _ = k.ZPopMax("z", 1)
	if len(names) != 1 || names[0] != "c" || scores[0] != 3 {
		t.Fatalf("got %v %v", names, scores)
	}
}

func TestZSetWrongType(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, err := k.ZAdd("k", ZAddFlags{}, []string{"a"}, []float64{1}); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}
