package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineSubtotalPartial(t *testing.T) {
	t.Parallel()

	price := decimal.NewFromInt(100)
	got := LineSubtotal(price, 10, 3, true)
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30, got %s", got)
	}
}

func TestLineSubtotalWholePacks(t *testing.T) {
	t.Parallel()

	price := decimal.NewFromInt(100)
	got := LineSubtotal(price, 10, 2, false)
	if !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected 200, got %s", got)
	}
}

func TestLineSubtotalRetainsPrecision(t *testing.T) {
	t.Parallel()

	// 100 / 3 does not terminate; the subtotal of 3 units must recover the
	// full pack price, not a rounded approximation times three.
	price := decimal.NewFromInt(100)
	got := LineSubtotal(price, 3, 3, true)
	if !got.Round(2).Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100.00 after rounding, got %s", got)
	}
}

func TestClampPartialQty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		qty, packSize, want int
	}{
		{0, 10, 1},
		{-5, 10, 1},
		{11, 10, 10},
		{10, 10, 10},
		{4, 10, 4},
		{3, 0, 1},
	}
	for _, tc := range cases {
		if got := ClampPartialQty(tc.qty, tc.packSize); got != tc.want {
			t.Errorf("ClampPartialQty(%d, %d) = %d, want %d", tc.qty, tc.packSize, got, tc.want)
		}
	}
}

func TestApplyPartialConsumption(t *testing.T) {
	t.Parallel()

	// 6 loose units, sell 4: no pack crossed.
	stock, remaining := ApplyPartialConsumption(100, 6, 10, 4)
	if stock != 100 || remaining != 2 {
		t.Fatalf("expected stock=100 remaining=2, got stock=%d remaining=%d", stock, remaining)
	}

	// 2 loose units, sell 5: one pack opens.
	stock, remaining = ApplyPartialConsumption(100, 2, 10, 5)
	if stock != 99 || remaining != 7 {
		t.Fatalf("expected stock=99 remaining=7, got stock=%d remaining=%d", stock, remaining)
	}
}

func TestApplyPartialConsumptionFloorsStock(t *testing.T) {
	t.Parallel()

	stock, remaining := ApplyPartialConsumption(0, 1, 10, 5)
	if stock != 0 {
		t.Fatalf("stock must never go negative, got %d", stock)
	}
	if remaining < 0 {
		t.Fatalf("remaining must settle non-negative, got %d", remaining)
	}
}

func TestBucketForCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		category string
		want     CategoryBucket
	}{
		{"Tablet", BucketTablet},
		{"tablets", BucketTablet},
		{"Syrup", BucketSyrup},
		{"Injection", BucketInjection},
		{"injectable", BucketInjection},
		{"Ointment", BucketNone},
		{"Other", BucketNone},
	}
	for _, tc := range cases {
		if got := BucketForCategory(tc.category); got != tc.want {
			t.Errorf("BucketForCategory(%q) = %v, want %v", tc.category, got, tc.want)
		}
	}
}
