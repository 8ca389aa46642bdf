package currency

import "testing"

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	if !r.IsSupported("usd") {
		t.Fatal("usd should be supported after normalisation")
	}
	if r.IsSupported("XYZ") {
		t.Fatal("XYZ should not be supported")
	}
	if got := r.Name("EUR"); got != "Euro" {
		t.Fatalf("expected Euro, got %q", got)
	}
	if got := r.Symbol("GBP"); got != "£" {
		t.Fatalf("expected £, got %q", got)
	}
	if got := r.Symbol("XYZ"); got != "XYZ" {
		t.Fatalf("unknown code should fall back to itself, got %q", got)
	}
	if r.Decimals("JPY") != 0 || r.Decimals("KRW") != 0 {
		t.Fatal("JPY and KRW display without fraction digits")
	}
	if r.Decimals("USD") != 2 || r.Decimals("XYZ") != 2 {
		t.Fatal("default precision should be 2")
	}
}

func TestRegistryListOrder(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	if len(list) != 20 {
		t.Fatalf("expected 20 currencies, got %d", len(list))
	}
	if list[0].Code != "USD" || list[len(list)-1].Code != "HUF" {
		t.Fatalf("unexpected order: first %s last %s", list[0].Code, list[len(list)-1].Code)
	}

	list[0].Code = "ZZZ"
	if r.List()[0].Code != "USD" {
		t.Fatal("List must return a copy")
	}

	codes := r.Codes()
	if codes[3] != "JPY" {
		t.Fatalf("expected JPY at index 3, got %s", codes[3])
	}
}

func TestNewRegistrySkipsDuplicates(t *testing.T) {
	r := newRegistry([]Currency{{Code: "usd", Name: "first"}, {Code: "USD", Name: "second"}})
	if len(r.List()) != 1 || r.Name("USD") != "first" {
		t.Fatalf("duplicate codes should keep the first entry: %+v", r.List())
	}
}
