package services

import (
	"testing"
	"time"

	"github.com/saeid-a/PeerSupportBack/internal/models"
)

func TestCalculateRefundScenarios(t *testing.T) {
	cases := []struct {
		name       string
		until      time.Duration
		initiator  models.Initiator
		percentage int
		amount     int64
	}{
		{"client cancels 30h out", 30 * time.Hour, models.InitiatorClient, 100, 2000},
		{"client cancels 10h out", 10 * time.Hour, models.InitiatorClient, 50, 1000},
		{"client cancels 1h out", time.Hour, models.InitiatorClient, 0, 0},
		{"supporter cancels 1h out", time.Hour, models.InitiatorSupporter, 100, 2000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := CalculateRefund(2000, testNow.Add(tc.until), tc.initiator, testNow)
			if decision.Percentage != tc.percentage {
				t.Fatalf("expected %d%%, got %d%%", tc.percentage, decision.Percentage)
			}
			if decision.AmountCents != tc.amount {
				t.Fatalf("expected amount %d, got %d", tc.amount, decision.AmountCents)
			}
			if decision.Reason == "" {
				t.Fatalf("expected a reason")
			}
		})
	}
}

func TestCalculateRefundBreakpointsAreInclusive(t *testing.T) {
	cases := []struct {
		until      time.Duration
		percentage int
	}{
		{24*time.Hour + time.Nanosecond, 100},
		{24 * time.Hour, 50},
		{2 * time.Hour, 50},
		{2*time.Hour - time.Nanosecond, 0},
		{-time.Hour, 0},
	}

	for _, tc := range cases {
		decision := CalculateRefund(2000, testNow.Add(tc.until), models.InitiatorClient, testNow)
		if decision.Percentage != tc.percentage {
			t.Fatalf("hours until %v: expected %d%%, got %d%%", tc.until, tc.percentage, decision.Percentage)
		}
	}
}

func TestCalculateRefundClientPercentageNeverIncreasesAsSessionApproaches(t *testing.T) {
	previous := 101
	for until := 48 * time.Hour; until >= -time.Hour; until -= 15 * time.Minute {
		decision := CalculateRefund(2000, testNow.Add(until), models.InitiatorClient, testNow)
		if decision.Percentage > previous {
			t.Fatalf("percentage rose from %d to %d at %v", previous, decision.Percentage, until)
		}
		previous = decision.Percentage
	}
}

func TestCalculateRefundSupporterAlwaysFull(t *testing.T) {
	for _, price := range []int64{1, 999, 2000, 123457} {
		for until := -2 * time.Hour; until <= 48*time.Hour; until += 30 * time.Minute {
			decision := CalculateRefund(price, testNow.Add(until), models.InitiatorSupporter, testNow)
			if decision.Percentage != 100 || decision.AmountCents != price {
				t.Fatalf("price %d at %v: expected full refund, got %+v", price, until, decision)
			}
		}
	}
}

func TestCalculateRefundRoundsToWholeCents(t *testing.T) {
	decision := CalculateRefund(999, testNow.Add(10*time.Hour), models.InitiatorClient, testNow)
	if decision.AmountCents != 500 {
		t.Fatalf("expected 999 at 50%% to round to 500, got %d", decision.AmountCents)
	}
}
