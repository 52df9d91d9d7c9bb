package hardware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pawprint-systems/pawfeed-core/internal/infrastructure/config"
)

func TestSimScaleAbsent(t *testing.T) {
	scale := NewSimScale(1)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		w, err := scale.ReadWeight(ctx)
		if err != nil {
			t.Fatalf("ReadWeight() error = %v", err)
		}
		if w < 0 || w > 0.1 {
			t.Errorf("absent reading = %v, want within [0, 0.1]", w)
		}
	}
}

func TestSimScalePresent(t *testing.T) {
	scale := NewSimScale(1)
	scale.SetCatPresent(true)
	scale.SetCatWeight(4.0)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		w, err := scale.ReadWeight(ctx)
		if err != nil {
			t.Fatalf("ReadWeight() error = %v", err)
		}
		if w < 3.9 || w > 4.1 {
			t.Errorf("present reading = %v, want within [3.9, 4.1]", w)
		}
	}
}

func TestSimScaleFailNextRead(t *testing.T) {
	scale := NewSimScale(1)
	ctx := context.Background()

	wantErr := errors.New("sensor glitch")
	scale.FailNextRead(wantErr)

	if _, err := scale.ReadWeight(ctx); !errors.Is(err, wantErr) {
		t.Errorf("ReadWeight() error = %v, want %v", err, wantErr)
	}

	// Failure is one-shot.
	if _, err := scale.ReadWeight(ctx); err != nil {
		t.Errorf("second ReadWeight() error = %v, want nil", err)
	}
}

func TestSimScaleCancelledContext(t *testing.T) {
	scale := NewSimScale(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := scale.ReadWeight(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadWeight() error = %v, want context.Canceled", err)
	}
}

func testDispenserConfig() config.DispenserConfig {
	return config.DispenserConfig{
		GramsPerSecond:     1000, // fast for tests
		MinDispenseSeconds: 0.01,
		MaxDispenseSeconds: 0.05,
	}
}

func TestSimDispenserDispense(t *testing.T) {
	d := NewSimDispenser(testDispenserConfig())
	ctx := context.Background()

	if err := d.Dispense(ctx, 50); err != nil {
		t.Fatalf("Dispense() error = %v", err)
	}

	if got := d.TotalDispensed(); got != 50 {
		t.Errorf("TotalDispensed() = %v, want 50", got)
	}
	if d.IsDispensing() {
		t.Error("IsDispensing() = true after completion, want false")
	}
}

func TestSimDispenserInvalidPortion(t *testing.T) {
	d := NewSimDispenser(testDispenserConfig())

	if err := d.Dispense(context.Background(), 0); !errors.Is(err, ErrInvalidPortion) {
		t.Errorf("Dispense(0) error = %v, want ErrInvalidPortion", err)
	}
	if err := d.Dispense(context.Background(), -5); !errors.Is(err, ErrInvalidPortion) {
		t.Errorf("Dispense(-5) error = %v, want ErrInvalidPortion", err)
	}
}

func TestSimDispenserFailNext(t *testing.T) {
	d := NewSimDispenser(testDispenserConfig())
	wantErr := errors.New("servo jam")
	d.FailNextDispense(wantErr)

	if err := d.Dispense(context.Background(), 50); !errors.Is(err, wantErr) {
		t.Errorf("Dispense() error = %v, want %v", err, wantErr)
	}
	if got := d.TotalDispensed(); got != 0 {
		t.Errorf("TotalDispensed() = %v after failed dispense, want 0", got)
	}
}

func TestSimDispenserCancellation(t *testing.T) {
	cfg := testDispenserConfig()
	cfg.GramsPerSecond = 10
	cfg.MaxDispenseSeconds = 5
	d := NewSimDispenser(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Dispense(ctx, 50) // would take 5s uncancelled
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Dispense() error = %v, want context.DeadlineExceeded", err)
	}
	if got := d.TotalDispensed(); got != 0 {
		t.Errorf("TotalDispensed() = %v after cancelled dispense, want 0", got)
	}
}

func TestDispenseDurationClamp(t *testing.T) {
	d := NewSimDispenser(config.DispenserConfig{
		GramsPerSecond:     10,
		MinDispenseSeconds: 0.5,
		MaxDispenseSeconds: 5.0,
	})

	tests := []struct {
		name  string
		grams float64
		want  time.Duration
	}{
		{"below minimum", 1, 500 * time.Millisecond},
		{"proportional", 20, 2 * time.Second},
		{"above maximum", 200, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.dispenseDuration(tt.grams); got != tt.want {
				t.Errorf("dispenseDuration(%v) = %v, want %v", tt.grams, got, tt.want)
			}
		})
	}
}
