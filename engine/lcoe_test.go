package engine_test

import (
	"math"
	"testing"

	"github.com/gridwatt/lcoe-engine/engine"
)

func TestAggregateLCOE_DiscountedEnergyMatchesAnnuityFormula(t *testing.T) {
	// Constant demand discounted over T years is a plain annuity:
	// tier * (1 - (1+r)^-T) / r.
	p := testParams()
	tier := d("12")

	energy, lcoe, err := engine.AggregateLCOE(d("10000"), tier, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := 0.08
	annuity := (1 - math.Pow(1+r, -20)) / r
	wantEnergy := 12 * annuity

	if diff := math.Abs(energy.InexactFloat64() - wantEnergy); diff > 1e-6 {
		t.Errorf("discounted energy = %v, want %v", energy, wantEnergy)
	}
	if diff := math.Abs(lcoe.InexactFloat64() - 10000/wantEnergy); diff > 1e-6 {
		t.Errorf("lcoe = %v, want %v", lcoe, 10000/wantEnergy)
	}
}

func TestAggregateLCOE_StrictlyPositive(t *testing.T) {
	p := testParams()

	for _, tier := range []string{"12", "20", "35"} {
		_, lcoe, err := engine.AggregateLCOE(d("11416.24"), d(tier), p)
		if err != nil {
			t.Fatalf("tier %s: unexpected error: %v", tier, err)
		}
		if !lcoe.IsPositive() {
			t.Errorf("tier %s: lcoe = %v, want > 0", tier, lcoe)
		}
	}
}

func TestAggregateLCOE_ZeroDemandTierIsDataError(t *testing.T) {
	p := testParams()

	_, _, err := engine.AggregateLCOE(d("10000"), d("0"), p)
	if err == nil {
		t.Fatal("expected an error for zero demand tier")
	}
	if !engine.IsDataError(err) {
		t.Errorf("zero demand tier must classify as data error, got %v", err)
	}
	if engine.IsConfigError(err) {
		t.Error("zero demand tier must not classify as config error")
	}
}
