package demod

import "testing"

func TestClockRecovererEmitsMidpoint(t *testing.T) {
	c := NewClockRecoverer(8)
	var chips []bool
	emit := func(chip bool) { chips = append(chips, chip) }

	// A run of 8 identical samples after the first (bootstrap) sample
	// should emit exactly one chip at the midpoint (sample 4 of the run).
	samples := []bool{true, true, true, true, true, true, true, true, true}
	for _, s := range samples {
		c.PushSample(s, emit)
	}
	if len(chips) != 1 {
		t.Fatalf("expected exactly 1 chip emission, got %d", len(chips))
	}
	if chips[0] != true {
		t.Errorf("expected emitted chip to be true, got %v", chips[0])
	}
}

func TestClockRecovererResyncsOnEdge(t *testing.T) {
	c := NewClockRecoverer(8)
	var chips []bool
	emit := func(chip bool) { chips = append(chips, chip) }

	// Short run, then a transition resets the phase so no chip is emitted
	// mid-run; only a full centered run after the edge should emit.
	for _, s := range []bool{false, false, false, true, true, true, true, true, true, true, true} {
		c.PushSample(s, emit)
	}
	if len(chips) != 1 {
		t.Fatalf("expected exactly 1 chip emission after resync, got %d", len(chips))
	}
}

func TestClockRecovererNoEmissionOnShortRun(t *testing.T) {
	c := NewClockRecoverer(8)
	var chips []bool
	emit := func(chip bool) { chips = append(chips, chip) }

	for _, s := range []bool{false, false, false} {
		c.PushSample(s, emit)
	}
	if len(chips) != 0 {
		t.Errorf("expected no emissions from a 3-sample run with samplesPerBit=8, got %d", len(chips))
	}
}
