package services

import (
	"context"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/negotiation"
	"github.com/senyabanana/unlisted-market/internal/repository"
)

type DealService struct {
	*Deps
}

// NewDealService создает новый экземпляр DealService.
func NewDealService(deps *Deps) *DealService {
	return &DealService{Deps: deps}
}

// inDealTx блокирует объявление сделки, затем саму сделку, и сохраняет их после fn.
// Порядок блокировок тот же, что в BidService.AcceptBid. Сделка другого объявления считается ненайденной.
func (s *DealService) inDealTx(ctx context.Context, listingId, dealId string, fn func(deal *models.Deal, listing *models.Listing, n *notices) error) (*models.Deal, error) {
	var saved *models.Deal
	n := &notices{deps: s.Deps}
	err := s.Repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		n.items = n.items[:0]
		peeked, err := tx.GetDeal(ctx, dealId)
		if err != nil {
			return err
		}
		if peeked.ListingID != listingId {
			return repository.ErrNotFound
		}
		listing, err := tx.GetListingForUpdate(ctx, peeked.ListingID)
		if err != nil {
			return err
		}
		deal, err := tx.FindDeal(ctx, listing.ID, peeked.BidID)
		if err != nil {
			return err
		}
		if deal == nil {
			return repository.ErrNotFound
		}
		if err := fn(deal, listing, n); err != nil {
			return err
		}
		if err := tx.SaveListing(ctx, listing); err != nil {
			return err
		}
		if err := tx.SaveDeal(ctx, deal); err != nil {
			return err
		}
		saved = deal.Clone()
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "deal not found")
	}
	s.notify(ctx, n.items)
	return saved, nil
}

// ConfirmDeal подтверждает сделку продавцом и возвращает коды.
func (s *DealService) ConfirmDeal(ctx context.Context, listingId, dealId string, caller models.Caller) (*models.AcceptResult, error) {
	deal, err := s.inDealTx(ctx, listingId, dealId, func(deal *models.Deal, l *models.Listing, n *notices) error {
		now := s.now()
		outcome, err := negotiation.ConfirmBySeller(deal, l, caller.ID, now)
		if err != nil {
			return err
		}
		negotiation.RecordAcceptance(deal, l, outcome.Bid, outcome.Confirmed, negotiation.DealInput{Now: now})
		n.confirmed(l, deal, true)
		n.fanOut(l, outcome.Rejected, models.ReasonSoldToOther)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "listing", string(models.SoldListing))
	s.Metrics.Deal(ctx, string(deal.Status), deal.PlatformFee)
	return &models.AcceptResult{
		Status:  models.ConfirmedBid,
		Message: "Deal confirmed! Both parties have accepted.",
		DealID:  deal.ID,
		Deal:    deal.Status,
		Codes:   negotiation.Codes(deal, caller.ID),
	}, nil
}

// RejectDeal отклоняет сделку продавцом и возвращает объявление на витрину.
func (s *DealService) RejectDeal(ctx context.Context, listingId, dealId string, caller models.Caller, req models.RejectDealRequest) (*models.DealView, error) {
	deal, err := s.inDealTx(ctx, listingId, dealId, func(deal *models.Deal, l *models.Listing, n *notices) error {
		if _, err := negotiation.RejectBySeller(deal, l, caller.ID, req.Reason, s.now()); err != nil {
			return err
		}
		n.sellerRejected(l, deal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(models.RejectedBid))
	s.Metrics.Deal(ctx, string(deal.Status), deal.PlatformFee)
	view, _ := negotiation.ViewFor(deal, caller.ID)
	return &view, nil
}

// GetUserDeals возвращает сделки пользователя. Коды видны только после подтверждения.
func (s *DealService) GetUserDeals(ctx context.Context, caller models.Caller) ([]models.DealView, error) {
	deals, err := s.Repo.GetUserDeals(ctx, caller.ID)
	if err != nil {
		return nil, s.mapError(err, "deal not found")
	}
	views := make([]models.DealView, 0, len(deals))
	for i := range deals {
		if v, ok := negotiation.ViewFor(&deals[i], caller.ID); ok {
			views = append(views, v)
		}
	}
	return views, nil
}
