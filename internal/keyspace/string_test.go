package keyspace

import (
	"bytes"
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	v, ok, err := k.Get("k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("got %q %v %v", v, ok, err)
	}
}

func TestGetMissingKey(t *testing.T) {
	k := New()
	v, ok, err := k.Get("nope")
	if err != nil || ok || v != nil {
		t.Fatalf("want missing key to report false, got %q %v %v", v, ok, err)
	}
}

func TestGetWrongType(t *testing.T) {
	k := New()
	k.SAdd("k", []byte("m"))
	if _, _, err := k.Get("k"); err != ErrWrongType {
		t.Fatalf("want ErrWrongType, got %v", err)
	}
}

func TestSetKeepTTL(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("k", []byte("v1"), 1000, false)
	k.Set("k", []byte("v2"), 0, true)
	if ttl := k.TTL("k", 0); ttl <= 0 {
		t.Fatalf("keepTTL should preserve expiry, got ttl=%d", ttl)
	}
}

func TestSetNXSetXX(t *testing.T) {
	k := New()
	if !k.SetNX("a", []byte("1"), 0) {
		t.Fatal("SETNX on absent key should apply")
	}
	if k.SetNX("a", []byte("2"), 0) {
		t.Fatal("SETNX on present key should not apply")
	}
	if k.SetXX("b", []byte("1"), 0) {
		t.Fatal("SETXX on absent key should not apply")
	}
	if !k.SetXX("a", []byte("2"), 0) {
		t.Fatal("SETXX on present key should apply")
	}
}

func TestGetDel(t *testing.T) {
	k := New()
	k.Set("k", []byte("v"), 0, false)
	v, ok, _ := k.GetDel("k")
	if !ok || string(v) != "v" {
		t.Fatalf("got %q %v", v, ok)
	}
	if k.Exists("k") != 0 {
		t.Fatal("key should be gone after GETDEL")
	}
}

func TestAppend(t *testing.T) {
	k := New()
	n, _ := k.Append("k", []byte("foo"))
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	n, _ = k.Append("k", []byte("bar"))
	if n != 6 {
		t.Fatalf("want 6, got %d", n)
	}
	v, _, _ := k.Get("k")
	if string(v) != "foobar" {
		t.Fatalf("want foobar, got %q", v)
	}
}

func TestIncrByAndOverflow(t *testing.T) {
	k := New()
	n, err := k.IncrBy("counter", 5)
	if err != nil || n != 5 {
		t.Fatalf("got %d %v", n, err)
	}
	n, err = k.IncrBy("counter", -2)
	if err != nil || n != 3 {
		t.Fatalf("got %d %v", n, err)
	}
	k.Set("counter", []byte("9223372036854775807"), 0, false)
	if _, err := k.IncrBy("counter", 1); err != ErrOverflow {
		t.Fatalf("want ErrOverflow, got %v", err)
	}
}

func TestIncrByNotInteger(t *testing.T) {
	k := New()
	k.Set("s", []byte("abc"), 0, false)
	if _, err := k.IncrBy("s", 1); err != ErrNotInteger {
		t.Fatalf("want ErrNotInteger, got %v", err)
	}
}

func TestIncrByFloat(t *testing.T) {
	k := New()
	f, err := k.IncrByFloat("f", 1.5)
	if err != nil || f != 1.5 {
		t.Fatalf("got %v %v", f, err)
	}
	f, err = k.IncrByFloat("f", 2.25)
	if err != nil || f != 3.75 {
		t.Fatalf("got %v %v", f, err)
	}
}

func TestGetSetRange(t *testing.T) {
	k := New()
	k.Set("k", []byte("Hello World"), 0, false)
	v, _ := k.GetRange("k", 0, 4)
	if string(v) != "Hello" {
		t.Fatalf("want Hello, got %q", v)
	}
	v, _ = k.GetRange("k", -5, -1)
	if string(v) != "World" {
		t.Fatalf("want World, got %q", v)
	}
	n, _ := k.SetRange("k", 6, []byte("Redis"))
	if n != 11 {
		t.Fatalf("want 11, got %d", n)
	}
	v2, _, _ := k.Get("k")
	if string(v2) != "Hello Redis" {
		t.Fatalf("want %q, got %q", "Hello Redis", v2)
	}
}

func TestSetRangeZeroFillsGap(t *testing.T) {
	k := New()
	n, _ := k.SetRange("k", 5, []byte("hi"))
	if n != 7 {
		t.Fatalf("want 7, got %d", n)
	}
	v, _, _ := k.Get("k")
	want := append(make([]byte, 5), []byte("hi")...)
	if !bytes.Equal(v, want) {
		t.Fatalf("want %q, got %q", want, v)
	}
}

func TestGetSetBit(t *testing.T) {
	k := New()
	old, _ := k.SetBit("k", 7, 1)
	if old != 0 {
		t.Fatalf("want 0, got %d", old)
	}
	bit, _ := k.GetBit("k", 7)
	if bit != 1 {
		t.Fatalf("want 1, got %d", bit)
	}
	v, _, _ := k.Get("k")
	if v[0] != 0x01 {
		t.Fatalf("want 0x01, got %x", v[0])
	}
}

func TestBitCount(t *testing.T) {
	k := New()
	k.Set("k", []byte("foobar"), 0, false)
	n, _ := k.BitCount("k", false, 0, 0)
	if n != 26 {
		t.Fatalf("want 26, got %d", n)
	}
	n, _ = k.BitCount("k", true, 1, 1)
	if n != 6 {
		t.Fatalf("want 6, got %d", n)
	}
}

func TestBitOpAndOrXorNot(t *testing.T) {
	k := New()
	k.Set("a", []byte{0b1100}, 0, false)
	k.Set("b", []byte{0b1010}, 0, false)

	k.BitOp("AND", "dst", "a", "b")
	v, _, _ := k.Get("dst")
	if v[0] != 0b1000 {
		t.Fatalf("AND: want 0b1000, got %08b", v[0])
	}

	k.BitOp("OR", "dst", "a", "b")
	v, _, _ = k.Get("dst")
	if v[0] != 0b1110 {
		t.Fatalf("OR: want 0b1110, got %08b", v[0])
	}

	k.BitOp("XOR", "dst", "a", "b")
	v, _, _ = k.Get("dst")
	if v[0] != 0b0110 {
		t.Fatalf("XOR: want 0b0110, got %08b", v[0])
	}

	k.BitOp("NOT", "dst", "a")
	v, _, _ = k.Get("dst")
	if v[0] != ^byte(0b1100) {
		t.Fatalf("NOT: want %08b, got %08b", ^byte(0b1100), v[0])
	}

	if _, err := k.BitOp("NOT", "dst", "a", "b"); err != ErrBitOpNotWrong {
		t.Fatalf("want ErrBitOpNotWrong, got %v", err)
	}
}
