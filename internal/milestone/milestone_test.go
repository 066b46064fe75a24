package milestone

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluateBetweenTiers(t *testing.T) {
	p := Evaluate(dec("4500"))

	if p.Current == nil || !p.Current.Threshold.Equal(dec("3000")) {
		t.Fatalf("current = %+v, want threshold 3000", p.Current)
	}
	if p.Next == nil || !p.Next.Threshold.Equal(dec("5000")) {
		t.Fatalf("next = %+v, want threshold 5000", p.Next)
	}
	if !p.Percent.Equal(dec("75")) {
		t.Errorf("percent = %s, want 75", p.Percent)
	}
	if !p.Remaining.Equal(dec("500")) {
		t.Errorf("remaining = %s, want 500", p.Remaining)
	}
}

func TestEvaluateBeforeFirstTier(t *testing.T) {
	p := Evaluate(dec("250"))

	if p.Current != nil {
		t.Fatalf("current = %+v, want nil", p.Current)
	}
	if p.Next == nil || !p.Next.Threshold.Equal(dec("1000")) {
		t.Fatalf("next = %+v, want threshold 1000", p.Next)
	}
	if !p.Percent.Equal(dec("25")) {
		t.Errorf("percent = %s, want 25", p.Percent)
	}
	if !p.Remaining.Equal(dec("750")) {
		t.Errorf("remaining = %s, want 750", p.Remaining)
	}
}

func TestEvaluateExactThreshold(t *testing.T) {
	p := Evaluate(dec("10000"))

	if p.Current == nil || !p.Current.Threshold.Equal(dec("10000")) {
		t.Fatalf("current = %+v, want threshold 10000", p.Current)
	}
	if p.Next == nil || !p.Next.Threshold.Equal(dec("15000")) {
		t.Fatalf("next = %+v, want threshold 15000", p.Next)
	}
	if !p.Percent.IsZero() {
		t.Errorf("percent = %s, want 0", p.Percent)
	}
}

func TestEvaluateBeyondLastTier(t *testing.T) {
	p := Evaluate(dec("1500000"))

	if p.Current == nil || !p.Current.Threshold.Equal(dec("1000000")) {
		t.Fatalf("current = %+v, want threshold 1000000", p.Current)
	}
	if p.Next != nil {
		t.Fatalf("next = %+v, want nil", p.Next)
	}
	if !p.Percent.Equal(dec("100")) {
		t.Errorf("percent = %s, want 100", p.Percent)
	}
	if !p.Remaining.IsZero() {
		t.Errorf("remaining = %s, want 0", p.Remaining)
	}
}

func TestEvaluateZeroTotal(t *testing.T) {
	p := Evaluate(decimal.Zero)

	if p.Current != nil {
		t.Fatalf("current = %+v, want nil", p.Current)
	}
	if !p.Percent.IsZero() {
		t.Errorf("percent = %s, want 0", p.Percent)
	}
}

func TestTiersStrictlyAscending(t *testing.T) {
	for i := 1; i < len(tiers); i++ {
		if !tiers[i].Threshold.GreaterThan(tiers[i-1].Threshold) {
			t.Fatalf("tier %d threshold %s not above %s", i, tiers[i].Threshold, tiers[i-1].Threshold)
		}
	}
	if len(tiers) != 29 {
		t.Fatalf("len(tiers) = %d, want 29", len(tiers))
	}
}

func TestEvaluatePercentRounded(t *testing.T) {
	// 1234 between 1000 and 3000: 234/2000 = 11.7%.
	p := Evaluate(dec("1234"))
	if !p.Percent.Equal(dec("11.7")) {
		t.Errorf("percent = %s, want 11.7", p.Percent)
	}
}
