package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestPercent(t *testing.T) {
	tests := []struct {
		current, target, want string
	}{
		{"0", "1000", "0"},
		{"400", "1000", "40"},
		{"750", "1000", "75"},
		{"1000", "1000", "100"},
		{"2500", "1000", "100"},
		{"1", "3", "33.3333333333333333"},
		{"-10", "1000", "0"},
	}
	for _, tt := range tests {
		got, err := Percent(d(tt.current), d(tt.target))
		if err != nil {
			t.Fatalf("Percent(%s,%s) err=%v", tt.current, tt.target, err)
		}
		if !got.Equal(d(tt.want)) {
			t.Errorf("Percent(%s,%s)=%s want %s", tt.current, tt.target, got, tt.want)
		}
	}
}

func TestPercent_InvalidTarget(t *testing.T) {
	for _, target := range []string{"0", "-1"} {
		if _, err := Percent(d("10"), d(target)); !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("target=%s err=%v want invalid input", target, err)
		}
	}
}

func TestPercent_BoundedAndMonotonic(t *testing.T) {
	for _, target := range []int64{1, 7, 100, 1000, 123457} {
		prev := decimal.NewFromInt(-1)
		for c := int64(0); c <= target*2; c += target/10 + 1 {
			p, err := Percent(decimal.NewFromInt(c), decimal.NewFromInt(target))
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if p.IsNegative() || p.GreaterThan(hundred) {
				t.Fatalf("Percent(%d,%d)=%s out of [0,100]", c, target, p)
			}
			if p.LessThan(prev) {
				t.Fatalf("Percent not monotonic at current=%d target=%d: %s < %s", c, target, p, prev)
			}
			prev = p
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"past", now.Add(-time.Hour), 0},
		{"exactly now", now, 0},
		{"one minute", now.Add(time.Minute), 1},
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"one day and a second", now.Add(24*time.Hour + time.Second), 2},
		{"thirty days", now.Add(30 * 24 * time.Hour), 30},
	}
	for _, tt := range tests {
		if got := DaysRemaining(tt.end, now); got != tt.want {
			t.Errorf("%s: DaysRemaining=%d want %d", tt.name, got, tt.want)
		}
	}
}

func TestIsOnTrack(t *testing.T) {
	if IsOnTrack(d("74.99")) {
		t.Fatalf("74.99 must not be on track")
	}
	if !IsOnTrack(d("75")) {
		t.Fatalf("75 must be on track")
	}

	strict := NewPolicy(90)
	if strict.IsOnTrack(d("80")) {
		t.Fatalf("80 must not be on track with threshold 90")
	}
	if !NewPolicy(0).IsOnTrack(d("75")) {
		t.Fatalf("invalid threshold must fall back to default")
	}
}
