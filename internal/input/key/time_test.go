package key

import (
	"testing"
	"time"
)

func TestTimestampSubWraps(t *testing.T) {
	tests := []struct {
		name    string
		now     Timestamp
		earlier Timestamp
		want    uint16
	}{
		{"simple", 600, 100, 500},
		{"equal", 42, 42, 0},
		{"across wrap", 10, 65530, 16},
		{"max", 65535, 0, 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.now.Sub(tt.earlier); got != tt.want {
				t.Errorf("Sub() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimestampAddWraps(t *testing.T) {
	if got := Timestamp(65530).Add(10); got != 4 {
		t.Errorf("Add() = %d, want 4", got)
	}
}

func TestTimestampCompare(t *testing.T) {
	if Timestamp(5).Compare(3) != 1 || Timestamp(3).Compare(5) != -1 || Timestamp(4).Compare(4) != 0 {
		t.Error("Compare() returned wrong ordering")
	}
}

func TestElapsed(t *testing.T) {
	limit := 500 * time.Millisecond
	tests := []struct {
		name  string
		now   Timestamp
		since Timestamp
		want  bool
	}{
		{"under", 499, 0, false},
		{"exact", 500, 0, false},
		{"over", 501, 0, true},
		{"over across wrap", 400, 65000, true},
		{"under across wrap", 100, 65000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elapsed(tt.now, tt.since, limit); got != tt.want {
				t.Errorf("Elapsed(%d, %d) = %v, want %v", tt.now, tt.since, got, tt.want)
			}
		})
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(65500)
	if c.Now() != 65500 {
		t.Fatalf("Now() = %d, want 65500", c.Now())
	}

	if got := c.Advance(100 * time.Millisecond); got != 64 {
		t.Errorf("Advance() = %d, want 64", got)
	}

	c.Set(7)
	if c.Now() != 7 {
		t.Errorf("Now() after Set = %d, want 7", c.Now())
	}
}

func TestSystemClockStartsNearZero(t *testing.T) {
	c := NewSystemClock()
	if now := c.Now(); now > 1000 {
		t.Errorf("Now() = %d immediately after creation", now)
	}
}
