package catalog

import "testing"

func TestItemKeyStable(t *testing.T) {
	a := NewPart("3001", 5, ConditionNew)
	b := NewPart("3001", 5, ConditionNew)
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestItemKeyDistinguishesColor(t *testing.T) {
	a := NewPart("3001", 5, ConditionNew)
	b := NewPart("3001", 6, ConditionNew)
	if a.Key() == b.Key() {
		t.Fatalf("expected distinct keys for different colors, got %q", a.Key())
	}
}

func TestItemKeyNonPartOmitsColor(t *testing.T) {
	i := New(KindInstruction, "6028542", ConditionNew)
	if got, want := i.Key(), "instruction:6028542:new"; got != want {
		t.Fatalf("expected key %q, got %q", want, got)
	}
}

func TestItemLessTotalOrder(t *testing.T) {
	a := NewPart("3001", 1, ConditionNew)
	b := NewPart("3001", 2, ConditionNew)
	if !a.Less(b) {
		t.Fatal("expected a < b by color id")
	}
	if b.Less(a) {
		t.Fatal("expected b not < a")
	}
}

func TestParseKeyRoundTripsPart(t *testing.T) {
	want := NewPart("3001", 5, ConditionNew)
	got, err := ParseKey(want.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseKeyRoundTripsNonPart(t *testing.T) {
	want := New(KindInstruction, "6028542", ConditionUsed)
	got, err := ParseKey(want.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "part", "part:3001", "bogus:3001:new:5"} {
		if _, err := ParseKey(key); err == nil {
			t.Fatalf("expected error for malformed key %q", key)
		}
	}
}
