package services

import (
	"math"
	"time"

	"github.com/saeid-a/PeerSupportBack/internal/models"
)

const (
	fullRefundNotice    = 24 * time.Hour
	partialRefundNotice = 2 * time.Hour
)

// CalculateRefund decides how much of price is returned when a session is
// cancelled at now. Supporter cancellations are always fully refunded.
func CalculateRefund(
	priceCents int64,
	scheduledAt time.Time,
	initiator models.Initiator,
	now time.Time,
) models.RefundDecision {
	if initiator == models.InitiatorSupporter {
		return newRefundDecision(priceCents, 100, "Cancelled by supporter: full refund")
	}

	notice := scheduledAt.Sub(now)
	switch {
	case notice > fullRefundNotice:
		return newRefundDecision(priceCents, 100, "Cancelled more than 24 hours in advance: full refund")
	case notice >= partialRefundNotice:
		return newRefundDecision(priceCents, 50, "Cancelled between 2 and 24 hours in advance: 50% refund")
	default:
		return newRefundDecision(priceCents, 0, "Cancelled less than 2 hours in advance: no refund")
	}
}

func newRefundDecision(priceCents int64, percentage int, reason string) models.RefundDecision {
	amount := int64(math.Round(float64(priceCents) * float64(percentage) / 100))
	return models.RefundDecision{
		Percentage:  percentage,
		AmountCents: amount,
		Reason:      reason,
	}
}
