package uid

import (
	"strings"
	"testing"
	"time"
)

func TestUID(t *testing.T) {
	id := UID(10)
	if len(id) != 10 {
		t.Fatalf("got length %d, want 10", len(id))
	}
	for _, c := range id {
		if !strings.ContainsRune(letters, c) {
			t.Fatalf("character %q outside the base-32 alphabet", c)
		}
	}
	if UID(10) == id {
		t.Fatal("two ids should not collide")
	}
}

func TestUUID(t *testing.T) {
	id := UUID()
	if len(id) != 36 {
		t.Fatalf("got length %d, want 36", len(id))
	}
	for _, i := range []int{8, 13, 18, 23} {
		if id[i] != '-' {
			t.Fatalf("expected dash at %d in %q", i, id)
		}
	}
	if id[14] != '4' {
		t.Fatalf("expected version 4, got %q", id)
	}
}

func TestULIDRoundTrip(t *testing.T) {
	at := time.UnixMilli(1714566615250)
	id := ULIDAt(at)
	if len(id) != 26 {
		t.Fatalf("got length %d, want 26", len(id))
	}
	ms, err := Decode(id)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ms != at.UnixMilli() {
		t.Fatalf("got %d, want %d", ms, at.UnixMilli())
	}
}

func TestULIDSortsByTime(t *testing.T) {
	earlier := ULIDAt(time.UnixMilli(1714566615250))
	later := ULIDAt(time.UnixMilli(1714566615250).Add(time.Hour))
	if !(earlier < later) {
		t.Fatalf("%q should sort before %q", earlier, later)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := Decode("short"); err == nil {
		t.Fatal("expected length error")
	}
	bad := "IIIIIIIIII" + strings.Repeat("0", 16)
	if _, err := Decode(bad); err == nil {
		t.Fatal("expected alphabet error")
	}
}
