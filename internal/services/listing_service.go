package services

import (
	"context"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/negotiation"
	"github.com/senyabanana/unlisted-market/internal/repository"
	"github.com/senyabanana/unlisted-market/internal/utils"
)

// DefaultBoostDuration - срок буста объявления по умолчанию.
const DefaultBoostDuration = 24 * time.Hour

type ListingService struct {
	*Deps
	BoostDuration time.Duration
}

// NewListingService создает новый экземпляр ListingService.
func NewListingService(deps *Deps, boostDuration time.Duration) *ListingService {
	if boostDuration <= 0 {
		boostDuration = DefaultBoostDuration
	}
	return &ListingService{Deps: deps, BoostDuration: boostDuration}
}

// CreateListing создает новое объявление.
func (s *ListingService) CreateListing(ctx context.Context, caller models.Caller, req models.ListingRequest) (*models.Listing, error) {
	listing, err := negotiation.NewListing(s.newID(), caller.ID, caller.Username, req, s.now())
	if err != nil {
		return nil, err
	}
	err = s.Repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateListing(ctx, listing)
	})
	if err != nil {
		return nil, s.mapError(err, "listing not found")
	}
	s.Metrics.Transition(ctx, "listing", string(listing.Status))
	return present(listing), nil
}

// GetListing возвращает объявление по идентификатору.
func (s *ListingService) GetListing(ctx context.Context, listingId string) (*models.Listing, error) {
	listing, err := s.Repo.GetListing(ctx, listingId)
	if err != nil {
		return nil, s.mapError(err, "listing not found")
	}
	return present(listing), nil
}

// GetListings возвращает витрину. Собственные объявления пользователя скрыты.
func (s *ListingService) GetListings(ctx context.Context, caller models.Caller, filter models.ListingFilter, limitStr, offsetStr string) ([]models.Listing, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.ValidationError(err.Error())
	}
	if filter.Type != "" && filter.Type != models.SellListing && filter.Type != models.BuyListing {
		return nil, models.ValidationError("invalid listing type. Must be 'sell' or 'buy'")
	}
	filter.Limit, filter.Offset = limit, offset

	listings, err := s.Repo.GetListings(ctx, filter, caller.ID)
	if err != nil {
		return nil, s.mapError(err, "listing not found")
	}
	return presentAll(listings), nil
}

// GetUserListings возвращает объявления пользователя.
func (s *ListingService) GetUserListings(ctx context.Context, caller models.Caller) ([]models.Listing, error) {
	listings, err := s.Repo.GetUserListings(ctx, caller.ID)
	if err != nil {
		return nil, s.mapError(err, "listing not found")
	}
	return presentAll(listings), nil
}

// UpdateListing меняет цену, количество или минимальный лот.
func (s *ListingService) UpdateListing(ctx context.Context, listingId string, caller models.Caller, req models.UpdateListingRequest) (*models.Listing, error) {
	listing, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, _ *notices) error {
		return negotiation.Update(l, caller.ID, req, s.now())
	})
	if err != nil {
		return nil, err
	}
	return present(listing), nil
}

// BoostListing поднимает объявление в выдаче на BoostDuration.
func (s *ListingService) BoostListing(ctx context.Context, listingId string, caller models.Caller) (*models.Listing, error) {
	listing, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, _ *notices) error {
		now := s.now()
		return negotiation.Boost(l, caller.ID, now.Add(s.BoostDuration), now)
	})
	if err != nil {
		return nil, err
	}
	return present(listing), nil
}

// CancelListing отменяет объявление и отклоняет открытые предложения.
func (s *ListingService) CancelListing(ctx context.Context, listingId string, caller models.Caller, req models.CancelRequest) (*models.Listing, error) {
	listing, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, n *notices) error {
		rejected, err := negotiation.Cancel(l, caller.ID, req.Reason, s.now())
		if err != nil {
			return err
		}
		n.fanOut(l, rejected, models.ReasonListingCancelled)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "listing", string(listing.Status))
	return present(listing), nil
}

// MarkSold фиксирует продажу вне платформы.
func (s *ListingService) MarkSold(ctx context.Context, listingId string, caller models.Caller, req models.MarkSoldRequest) (*models.Listing, error) {
	listing, err := s.inListingTx(ctx, listingId, func(_ context.Context, _ repository.Tx, l *models.Listing, n *notices) error {
		rejected, err := negotiation.MarkSold(l, caller.ID, req, s.now())
		if err != nil {
			return err
		}
		n.fanOut(l, rejected, models.ReasonSoldExternally)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(ctx, "listing", string(listing.Status))
	return present(listing), nil
}

// DeleteListing удаляет объявление без принятых предложений и уведомляет всех авторов предложений.
func (s *ListingService) DeleteListing(ctx context.Context, listingId string, caller models.Caller) error {
	n := &notices{deps: s.Deps}
	err := s.Repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		n.items = n.items[:0]
		listing, err := tx.GetListingForUpdate(ctx, listingId)
		if err != nil {
			return err
		}
		if err := negotiation.CheckDelete(listing, caller.ID); err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, b := range *listing.Entries() {
			if seen[b.UserID] {
				continue
			}
			seen[b.UserID] = true
			n.add(b.UserID, models.ListingCancelledNotification, "Listing Cancelled",
				"The listing for "+listing.CompanyName+" has been removed by the owner.", listing, nil)
		}
		return tx.DeleteListing(ctx, listingId)
	})
	if err != nil {
		return s.mapError(err, "listing not found")
	}
	s.notify(ctx, n.items)
	return nil
}

// ExpireBoosts снимает истекшие бусты. Возвращает число измененных объявлений.
func (s *ListingService) ExpireBoosts(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.Repo.GetExpiredBoosts(ctx, now)
	if err != nil {
		return 0, s.mapError(err, "listing not found")
	}

	expired := 0
	for _, id := range ids {
		changed := false
		_, err := s.inListingTx(ctx, id, func(_ context.Context, _ repository.Tx, l *models.Listing, _ *notices) error {
			changed = negotiation.ExpireBoost(l, now)
			return nil
		})
		if err != nil {
			if s.Logger != nil {
				s.Logger.Printf("expire boost for listing %s: %v", id, err)
			}
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

func present(l *models.Listing) *models.Listing {
	l.DisplayPrice = negotiation.DisplayPrice(l)
	return l
}

func presentAll(listings []models.Listing) []models.Listing {
	for i := range listings {
		present(&listings[i])
	}
	return listings
}
