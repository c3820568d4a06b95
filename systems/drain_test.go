package systems

import (
	"math"
	"testing"
)

var testDrainParams = DrainParams{RadiusScale: 0.6, MinRadius: 8, MaxRadius: 120}

func TestDrainRadius(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		want      float64
	}{
		{"scaled", 2500, 30},
		{"clamped to min", 1, 8},
		{"zero", 0, 8},
		{"negative treated as zero", -100, 8},
		{"clamped to max", 1e6, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDrain(1, tt.magnitude, 0, 0, testDrainParams)
			if math.Abs(d.Radius-tt.want) > 1e-9 {
				t.Errorf("radius(%v) = %v, want %v", tt.magnitude, d.Radius, tt.want)
			}
			if math.Abs(d.RadiusSq-tt.want*tt.want) > 1e-6 {
				t.Errorf("radiusSq(%v) = %v, want %v", tt.magnitude, d.RadiusSq, tt.want*tt.want)
			}
		})
	}
}

func TestDrainUpdateConfig(t *testing.T) {
	d := NewDrain(1, 2500, 0, 0, testDrainParams)
	d.UpdateConfig(10000)

	if d.Magnitude != 10000 {
		t.Errorf("magnitude = %v, want 10000", d.Magnitude)
	}
	if math.Abs(d.Radius-60) > 1e-9 {
		t.Errorf("radius = %v, want 60", d.Radius)
	}
	if !d.Contains(55, 0) {
		t.Error("expected point inside enlarged radius")
	}
}

func TestDrainContainsIsStrict(t *testing.T) {
	d := NewDrain(1, 2500, 100, 100, testDrainParams) // radius 30

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 100, 100, true},
		{"just inside", 129.9, 100, true},
		{"exactly on boundary", 130, 100, false},
		{"just outside", 130.1, 100, false},
		{"diagonal inside", 120, 120, true},
		{"diagonal outside", 122, 122, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDrainSetPosition(t *testing.T) {
	d := NewDrain(1, 2500, 0, 0, testDrainParams)
	d.SetPosition(500, 500)

	if d.Contains(0, 0) {
		t.Error("old position still contained after move")
	}
	if !d.Contains(500, 510) {
		t.Error("new position not contained after move")
	}
}
