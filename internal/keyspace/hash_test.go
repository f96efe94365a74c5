package keyspace

import "testing"

func TestHSetHGetHDel(t *testing.T) {
	k := New()
	n, _ := k.HSet("h", map[string][]byte{"f1": []byte("v1"), "f2": []byte("v2")})
	if n != 2 {
		t.Fatalf("want 2 new fields, got %d", n)
	}
	v, ok, _ := k.HGet("h", "f1")
	if !ok || string(v) != "v1" {
		t.Fatalf("got %q %v", v, ok)
	}
	n, _ = k.HDel("h", "f1", "nope")
	if n != 1 {
		t.Fatalf("want 1 removed, got %d", n)
	}
}

func TestHSetOverwriteDoesNotCountAsNew(t *testing.T) {
	k := New()
	k.HSet("h", map[string][]byte{"f": []byte("a")})
	n, _ := k.HSet("h", map[string][]byte{"f": []byte("b")})
	if n != 0 {
		t.Fatalf("want 0 new fields on overwrite, got %d", n)
	}
	v, _, _ := k.HGet("h", "f")
	if string(v) != "b" {
		t.Fatalf("want b, got %q", v)
	}
}

func TestHSetNX(t *testing.T) {
	k := New()
	ok, _ := k.HSetNX("h", "f", []byte("a"))
	if !ok {
		t.Fatal("want true on first set")
	}
	ok, _ = k.HSetNX("h", "f", []byte("b"))
	if ok {
		t.Fatal("want false when field already exists")
	}
}

func TestHDelDeletesOnEmpty(t *testing.T) {
	k := New()
	k.HSet("h", map[string][]byte{"f": []byte("a")})
	k.HDel("h", "f")
	if k.Exists("h") != 0 {
		t.Fatal("hash key should be removed once emptied")
	}
}

func TestHGetAllHKeysHVals(t *testing.T) {
	k := New()
	k.HSet("h", map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	all, _ := k.HGetAll("h")
	if len(all) != 2 {
		t.Fatalf("want 2, got %d", len(all))
	}
	keys, _ := k.HKeys("h")
	vals, _ := k.HVals("h")
	if len(keys) != 2 || len(vals) != 2 {
		t.Fatalf("got %v %v", keys, vals)
	}
}

func TestHIncrBy(t *testing.T) {
	k := New()
	n, err := k.HIncrBy("h", "f", 5)
	if err != nil || n != 5 {
		t.Fatalf("got %d %v", n, err)
	}
	n, err = k.HIncrBy("h", "f", -2)
	if err != nil || n != 3 {
		t.Fatalf("got %d %v", n, err)
	}
}

func TestHIncrByFloat(t *testing.T) {
	k := New()
	f, err := k.HIncrByFloat("h", "f", 1.5)
	if err != nil || f != 1.5 {
		t.Fatalf("got %v %v", f, err)
	}
}

func TestHashWrongType(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	if _, err := k.HSet("k", map[string][]byte{"f": []byte("v")}); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}
