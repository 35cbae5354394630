package services

import (
	"context"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/negotiation"
	"github.com/senyabanana/unlisted-market/internal/repository"
)

type BidService struct {
	*Deps
}

// NewBidService создает новый экземпляр BidService.
func NewBidService(deps *Deps) *BidService {
	return &BidService{Deps: deps}
}

// PlaceBid создает предложение контрагента и уведомляет владельца объявления.
func (s *BidService) PlaceBid(ctx context.Context, listingId string, caller models.Caller, req models.BidRequest) (*models.Bid, error) {
	var placed *models.Bid
	_, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, n *notices) error {
		bid, err := negotiation.Place(l, negotiation.PlaceInput{
			ID:       s.newID(),
			CallerID: caller.ID,
			Username: caller.Username,
			Price:    req.Price,
			Quantity: req.Quantity,
			Message:  req.Message,
			Now:      s.now(),
		})
		if err != nil {
			return err
		}
		n.newEntry(l, bid)
		placed = bid.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(placed.Status))
	return placed, nil
}

// AcceptAtAsking принимает объявление по цене владельца. Сделка создается сразу,
// владельцу остается подтвердить ее.
func (s *BidService) AcceptAtAsking(ctx context.Context, listingId string, caller models.Caller, req models.AcceptListingRequest) (*models.AcceptResult, error) {
	var result *models.AcceptResult
	var recorded models.Deal
	_, err := s.inListingTx(ctx, listingId, func(ctx context.Context, tx repository.Tx, l *models.Listing, n *notices) error {
		now := s.now()
		in := negotiation.PlaceInput{
			ID:       s.newID(),
			CallerID: caller.ID,
			Username: caller.Username,
			Message:  req.Message,
			Now:      now,
		}
		if req.Quantity != nil {
			in.Quantity = *req.Quantity
		}
		bid, err := negotiation.AcceptAtAsking(l, in)
		if err != nil {
			return err
		}

		deal := negotiation.RecordAcceptance(nil, l, bid, false, negotiation.DealInput{ID: s.newID(), Now: now, Rng: s.Rng})
		if err := tx.SaveDeal(ctx, deal); err != nil {
			return err
		}
		n.newEntry(l, bid)
		n.accepted(l, bid, deal, negotiation.BidderRole(l.Type))
		recorded = *deal
		result = &models.AcceptResult{
			Status:  bid.Status,
			Message: "Accepted at asking price. Waiting for the owner to confirm.",
			DealID:  deal.ID,
			Deal:    deal.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(result.Status))
	s.Metrics.Transition(ctx, "listing", string(models.DealPendingListing))
	s.Metrics.Deal(ctx, string(recorded.Status), recorded.PlatformFee)
	return result, nil
}

// CounterBid добавляет раунд торга и уведомляет другую сторону.
func (s *BidService) CounterBid(ctx context.Context, listingId, bidId string, caller models.Caller, req models.CounterRequest) (*models.Bid, error) {
	var countered *models.Bid
	_, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, n *notices) error {
		bid, round, err := negotiation.Counter(l, bidId, caller.ID, req, s.now())
		if err != nil {
			return err
		}
		recipient := l.OwnerID
		if caller.ID == l.OwnerID {
			recipient = bid.UserID
		}
		n.countered(l, bid, round, recipient)
		countered = bid.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(countered.Status))
	return countered, nil
}

// RejectBid отклоняет предложение и уведомляет другую сторону. Если по предложению
// уже открыта сделка, она закрывается отказом владельца.
func (s *BidService) RejectBid(ctx context.Context, listingId, bidId string, caller models.Caller) (*models.Bid, error) {
	var rejected *models.Bid
	var closed *models.Deal
	_, err := s.inListingTx(ctx, listingId, func(ctx context.Context, tx repository.Tx, l *models.Listing, n *notices) error {
		now := s.now()
		bid, roles, err := negotiation.Reject(l, bidId, caller.ID, now)
		if err != nil {
			return err
		}
		if bid.DealID != nil {
			deal, err := tx.FindDeal(ctx, l.ID, bid.ID)
			if err != nil {
				return err
			}
			if deal != nil {
				negotiation.CloseDeal(deal, roles.Caller, bid.RejectionReason, now)
				if err := tx.SaveDeal(ctx, deal); err != nil {
					return err
				}
				closed = deal.Clone()
			}
		}
		recipient := bid.UserID
		if roles.IsBidder {
			recipient = l.OwnerID
		}
		n.rejected(l, bid, recipient)
		rejected = bid.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(rejected.Status))
	if closed != nil {
		s.Metrics.Deal(ctx, string(closed.Status), closed.PlatformFee)
	}
	return rejected, nil
}

// AcceptBid выполняет принятие одной из сторон. Вторая сторона подтверждает сделку,
// получает коды и закрывает объявление.
func (s *BidService) AcceptBid(ctx context.Context, listingId, bidId string, caller models.Caller) (*models.AcceptResult, error) {
	var result *models.AcceptResult
	var recorded models.Deal
	_, err := s.inListingTx(ctx, listingId, func(ctx context.Context, tx repository.Tx, l *models.Listing, n *notices) error {
		now := s.now()
		outcome, err := negotiation.Accept(l, bidId, caller.ID, now)
		if err != nil {
			return err
		}
		existing, err := tx.FindDeal(ctx, l.ID, bidId)
		if err != nil {
			return err
		}
		deal := negotiation.RecordAcceptance(existing, l, outcome.Bid, outcome.Confirmed, negotiation.DealInput{ID: s.newID(), Now: now, Rng: s.Rng})
		if err := tx.SaveDeal(ctx, deal); err != nil {
			return err
		}

		result = &models.AcceptResult{Status: outcome.Bid.Status, DealID: deal.ID, Deal: deal.Status}
		if outcome.Confirmed {
			result.Message = "Deal confirmed! Both parties have accepted."
			result.Codes = negotiation.Codes(deal, caller.ID)
			n.confirmed(l, deal, false)
			n.fanOut(l, outcome.Rejected, models.ReasonSoldToOther)
		} else {
			result.Message = "Accepted. Waiting for the other party to confirm."
			n.accepted(l, outcome.Bid, deal, outcome.Roles.Caller)
		}
		recorded = *deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "bid", string(result.Status))
	s.Metrics.Deal(ctx, string(recorded.Status), recorded.PlatformFee)
	return result, nil
}

// GetPlacedBids возвращает предложения пользователя на чужие объявления.
func (s *BidService) GetPlacedBids(ctx context.Context, caller models.Caller) ([]models.PlacedBid, error) {
	placed, err := s.Repo.GetPlacedBids(ctx, caller.ID)
	if err != nil {
		return nil, s.mapError(err, "listing not found")
	}
	for i := range placed {
		summary := &placed[i].Listing
		summary.DisplayPrice = negotiation.DisplayPrice(&models.Listing{Type: summary.Type, Price: summary.ListingPrice})
	}
	return placed, nil
}
