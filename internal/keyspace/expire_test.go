package keyspace

import "testing"

func TestExpireAndTTL(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("k", []byte("v"), 0, false)
	ok, err := k.Expire("k", 5000, ExpireNone)
	if err != nil || !ok {
		t.Fatalf("got %v %v", ok, err)
	}
	if ttl := k.TTL("k", 1000); ttl != 4000 {
		t.Fatalf("want 4000, got %d", ttl)
	}
}

func TestExpireMissingKey(t *testing.T) {
	k := New()
	_, err := k.Expire("nope", 5000, ExpireNone)
	if err != ErrNoSuchKey {
		t.Fatalf("want ErrNoSuchKey, got %v", err)
	}
}

func TestExpireNXXX(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("k", []byte("v"), 0, false)
	ok, _ := k.Expire("k", 1000, ExpireXX)
	if ok {
		t.Fatal("XX should veto when no expiry is set")
	}
	ok, _ = k.Expire("k", 1000, ExpireNX)
	if !ok {
		t.Fatal("NX should apply when no expiry is set")
	}
	ok, _ = k.Expire("k", 2000, ExpireNX)
	if ok {
		t.Fatal("NX should veto when an expiry already exists")
	}
}

func TestExpireGTLT(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("k", []byte("v"), 5000, false)
	ok, _ := k.Expire("k", 3000, ExpireGT)
	if ok {
		t.Fatal("GT should veto a smaller deadline")
	}
	ok, _ = k.Expire("k", 9000, ExpireGT)
	if !ok {
		t.Fatal("GT should accept a larger deadline")
	}
	ok, _ = k.Expire("k", 20000, ExpireLT)
	if ok {
		t.Fatal("LT should veto a larger deadline")
	}
}

func TestPersist(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("k", []byte("v"), 5000, false)
	if !k.Persist("k") {
		t.Fatal("want true")
	}
	if ttl := k.TTL("k", 0); ttl != -1 {
		t.Fatalf("want -1 (no TTL), got %d", ttl)
	}
	if k.Persist("k") {
		t.Fatal("second PERSIST call should report false")
	}
}

func TestTTLMissingKey(t *testing.T) {
	k := New()
	if ttl := k.TTL("nope", 0); ttl != -2 {
		t.Fatalf("want -2, got %d", ttl)
	}
}

func TestLazyExpiry(t *testing.T) {
	k := New()
	now := int64(1000)
	k.clock = func() int64 { return now }
	k.Set("k", []byte("v"), 1500, false)
	if k.Exists("k") != 1 {
		t.Fatal("key should still be live before its deadline")
	}
	now = 2000
	if k.Exists("k") != 0 {
		t.Fatal("key should be lazily purged once past its deadline")
	}
}

func TestActiveExpireCycle(t *testing.T) {
	k := New()
	k.clock = func() int64 { return 0 }
	k.Set("a", []byte("v"), 500, false)
	k.Set("b", []byte("v"), 0, false)
	n := k.ActiveExpireCycle(1000)
	if n != 1 {
		t.Fatalf("want 1 expired, got %d", n)
	}
	if k.Exists("a") != 0 || k.Exists("b") != 1 {
		t.Fatal("only the expired key should be gone")
	}
}
