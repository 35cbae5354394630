package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
)

var (
	// ErrNotFound возвращается, когда запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict возвращается, когда объявление изменили параллельно.
	ErrVersionConflict = errors.New("listing version conflict")
)

// Tx - операции, выполняемые в одной транзакции над агрегатом объявления и его сделками.
type Tx interface {
	// GetListingForUpdate загружает объявление с предложениями и блокирует его до конца транзакции.
	GetListingForUpdate(ctx context.Context, listingId string) (*models.Listing, error)
	CreateListing(ctx context.Context, listing *models.Listing) error
	// SaveListing записывает объявление и все его предложения. Версия проверяется и увеличивается.
	SaveListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, listingId string) error
	// GetDeal читает сделку без блокировки. Изменять сделку можно только после блокировки
	// ее объявления и FindDeal.
	GetDeal(ctx context.Context, dealId string) (*models.Deal, error)
	// FindDeal ищет сделку по паре (объявление, предложение) и блокирует ее. Если сделки нет, возвращает nil без ошибки.
	FindDeal(ctx context.Context, listingId, bidId string) (*models.Deal, error)
	SaveDeal(ctx context.Context, deal *models.Deal) error
}

// ListingRepository - интерфейс для работы с объявлениями, предложениями и сделками.
type ListingRepository interface {
	WithTransaction(ctx context.Context, fn func(context.Context, Tx) error) error
	GetListing(ctx context.Context, listingId string) (*models.Listing, error)
	GetListings(ctx context.Context, filter models.ListingFilter, viewerId string) ([]models.Listing, error)
	GetUserListings(ctx context.Context, ownerId string) ([]models.Listing, error)
	GetPlacedBids(ctx context.Context, userId string) ([]models.PlacedBid, error)
	GetUserDeals(ctx context.Context, userId string) ([]models.Deal, error)
	GetExpiredBoosts(ctx context.Context, now time.Time) ([]string, error)
}

// NotificationRepository - интерфейс для работы с уведомлениями.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) error
	GetUserNotifications(ctx context.Context, userId string, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationId, userId string) error
}
