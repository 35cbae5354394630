package negotiation

import (
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
)

// DefaultDealRejectReason - причина отказа продавца, если он ее не указал.
const DefaultDealRejectReason = "Rejected by seller"

// ConfirmBySeller - отдельное подтверждение сделки продавцом. Эквивалентно повторному
// Accept со стороны продавца, но проверяет права по записи сделки.
func ConfirmBySeller(deal *models.Deal, listing *models.Listing, callerId string, now time.Time) (AcceptOutcome, error) {
	if err := checkSellerAction(deal, callerId, "confirm"); err != nil {
		return AcceptOutcome{}, err
	}
	if deal.SellerAcceptedAt != nil {
		return AcceptOutcome{}, models.AlreadyAccepted("you have already accepted this, waiting for other party to confirm")
	}
	return Accept(listing, deal.BidID, callerId, now)
}

// RejectBySeller закрывает сделку отказом продавца: предложение отклоняется,
// объявление возвращается на витрину, если других принятых предложений нет.
func RejectBySeller(deal *models.Deal, listing *models.Listing, callerId, reason string, now time.Time) (*models.Bid, error) {
	if err := checkSellerAction(deal, callerId, "reject"); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = DefaultDealRejectReason
	}

	bid := listing.FindEntry(deal.BidID)
	if bid == nil {
		return nil, models.NotFound(listing.EntryKind() + " not found")
	}

	CloseDeal(deal, models.Seller, reason, now)
	markRejected(bid, models.ReasonRejectedBySeller, now)
	RevertToActive(listing, now)
	listing.UpdatedAt = now
	return bid, nil
}

// CloseDeal закрывает несостоявшуюся сделку отказом стороны by.
func CloseDeal(deal *models.Deal, by models.Role, reason string, now time.Time) {
	deal.Status = models.RejectedBySellerDeal
	if by == models.Buyer {
		deal.Status = models.RejectedByBuyerDeal
	}
	deal.CancelReason = reason
	deal.CancelledAt = &now
	deal.UpdatedAt = now
}

func checkSellerAction(deal *models.Deal, callerId, action string) error {
	if deal.SellerID != callerId {
		return models.Forbidden("only the seller can " + action + " this deal")
	}
	switch deal.Status {
	case models.ConfirmedDeal:
		return models.AlreadyConfirmed("deal is already confirmed")
	case models.RejectedBySellerDeal, models.RejectedByBuyerDeal:
		return models.AlreadyTerminal("deal has already been rejected")
	}
	return nil
}
