package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/negotiation"
	"github.com/senyabanana/unlisted-market/internal/repository"
	"github.com/senyabanana/unlisted-market/internal/telemetry"

	"github.com/google/uuid"
)

// Notifier доставляет уведомления. Ошибки доставки не возвращаются вызывающему.
type Notifier interface {
	Notify(ctx context.Context, notifications ...models.Notification)
}

// Deps - общие зависимости сервисов торга.
type Deps struct {
	Repo     repository.ListingRepository
	Notifier Notifier
	Metrics  *telemetry.Metrics
	Logger   *log.Logger
	Now      func() time.Time
	NewID    func() string
	Rng      negotiation.RandSource
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

func (d *Deps) notify(ctx context.Context, notifications []models.Notification) {
	if d.Notifier == nil || len(notifications) == 0 {
		return
	}
	d.Notifier.Notify(ctx, notifications...)
}

// mapError приводит ошибки хранилища к ErrorResponse. Ошибки модели возвращаются как есть.
func (d *Deps) mapError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var resp *models.ErrorResponse
	switch {
	case errors.As(err, &resp):
		return resp
	case errors.Is(err, repository.ErrNotFound):
		return models.NotFound(notFoundMsg)
	case errors.Is(err, repository.ErrVersionConflict):
		return models.InvalidState("listing was modified concurrently, refetch and retry")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.InternalError("request timed out")
	}
	if d.Logger != nil {
		d.Logger.Printf("repository error: %v", err)
	}
	return models.InternalError("internal server error")
}

// inListingTx загружает объявление под блокировкой, применяет fn и сохраняет результат
// в той же транзакции. Уведомления из fn отправляются только после фиксации.
func (d *Deps) inListingTx(ctx context.Context, listingId string, fn func(ctx context.Context, tx repository.Tx, listing *models.Listing, n *notices) error) (*models.Listing, error) {
	var saved *models.Listing
	n := &notices{deps: d}
	err := d.Repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		n.items = n.items[:0]
		listing, err := tx.GetListingForUpdate(ctx, listingId)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, listing, n); err != nil {
			return err
		}
		if err := tx.SaveListing(ctx, listing); err != nil {
			return err
		}
		saved = listing.Clone()
		return nil
	})
	if err != nil {
		return nil, d.mapError(err, "listing not found")
	}
	d.notify(ctx, n.items)
	return saved, nil
}
