package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
)

// MemoryListingRepository хранит объявления в памяти. Транзакции выполняются по одной,
// изменения применяются только при успешном завершении fn.
type MemoryListingRepository struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
	deals    map[string]*models.Deal
}

// NewMemoryListingRepository создает пустое хранилище.
func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{
		listings: make(map[string]*models.Listing),
		deals:    make(map[string]*models.Deal),
	}
}

// WithTransaction выполняет fn над копиями данных и фиксирует их, если fn не вернула ошибку.
func (r *MemoryListingRepository) WithTransaction(ctx context.Context, fn func(context.Context, Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{
		repo:     r,
		listings: make(map[string]*models.Listing),
		deleted:  make(map[string]bool),
		deals:    make(map[string]*models.Deal),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for id := range tx.deleted {
		delete(r.listings, id)
	}
	for id, l := range tx.listings {
		r.listings[id] = l.Clone()
	}
	for id, d := range tx.deals {
		r.deals[id] = d.Clone()
	}
	return nil
}

// GetListing возвращает копию объявления.
func (r *MemoryListingRepository) GetListing(_ context.Context, listingId string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingId]
	if !ok {
		return nil, ErrNotFound
	}
	return l.Clone(), nil
}

// GetListings возвращает активные объявления витрины, поднятые бустом идут первыми.
func (r *MemoryListingRepository) GetListings(_ context.Context, filter models.ListingFilter, viewerId string) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.Listing
	for _, l := range r.listings {
		switch {
		case l.Status != models.ActiveListing,
			filter.Type != "" && l.Type != filter.Type,
			filter.CompanyID != "" && (l.CompanyID == nil || *l.CompanyID != filter.CompanyID),
			search != "" && !strings.Contains(strings.ToLower(l.CompanyName), search),
			filter.ExcludeID != "" && l.ID == filter.ExcludeID,
			viewerId != "" && l.OwnerID == viewerId:
			continue
		}
		matched = append(matched, *l.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsBoosted != matched[j].IsBoosted {
			return matched[i].IsBoosted
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

// GetUserListings возвращает все объявления пользователя.
func (r *MemoryListingRepository) GetUserListings(_ context.Context, ownerId string) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listings := []models.Listing{}
	for _, l := range r.listings {
		if l.OwnerID == ownerId {
			listings = append(listings, *l.Clone())
		}
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].CreatedAt.After(listings[j].CreatedAt) })
	return listings, nil
}

// GetPlacedBids возвращает предложения пользователя на чужие объявления.
func (r *MemoryListingRepository) GetPlacedBids(_ context.Context, userId string) ([]models.PlacedBid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	placed := []models.PlacedBid{}
	for _, l := range r.listings {
		if l.OwnerID == userId {
			continue
		}
		c := l.Clone()
		for _, b := range *c.Entries() {
			if b.UserID != userId {
				continue
			}
			placed = append(placed, models.PlacedBid{
				Bid:  b,
				Kind: c.EntryKind(),
				Listing: models.ListingSummary{
					ID:            c.ID,
					Type:          c.Type,
					CompanyName:   c.CompanyName,
					ListingPrice:  c.Price,
					Quantity:      c.Quantity,
					IsActive:      c.Status == models.ActiveListing,
					OwnerID:       c.OwnerID,
					OwnerUsername: c.OwnerUsername,
				},
			})
		}
	}
	sort.Slice(placed, func(i, j int) bool { return placed[i].CreatedAt.After(placed[j].CreatedAt) })
	return placed, nil
}

// GetUserDeals возвращает сделки, в которых пользователь покупатель или продавец.
func (r *MemoryListingRepository) GetUserDeals(_ context.Context, userId string) ([]models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deals := []models.Deal{}
	for _, d := range r.deals {
		if d.BuyerID == userId || d.SellerID == userId {
			deals = append(deals, *d.Clone())
		}
	}
	sort.Slice(deals, func(i, j int) bool { return deals[i].CreatedAt.After(deals[j].CreatedAt) })
	return deals, nil
}

// GetExpiredBoosts возвращает идентификаторы объявлений с истекшим бустом.
func (r *MemoryListingRepository) GetExpiredBoosts(_ context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, l := range r.listings {
		if l.IsBoosted && l.BoostExpiresAt != nil && !l.BoostExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryTx struct {
	repo     *MemoryListingRepository
	listings map[string]*models.Listing
	deleted  map[string]bool
	deals    map[string]*models.Deal
}

func (t *memoryTx) GetListingForUpdate(_ context.Context, listingId string) (*models.Listing, error) {
	if t.deleted[listingId] {
		return nil, ErrNotFound
	}
	if l, ok := t.listings[listingId]; ok {
		return l, nil
	}
	l, ok := t.repo.listings[listingId]
	if !ok {
		return nil, ErrNotFound
	}
	c := l.Clone()
	t.listings[listingId] = c
	return c, nil
}

func (t *memoryTx) CreateListing(_ context.Context, listing *models.Listing) error {
	t.listings[listing.ID] = listing
	delete(t.deleted, listing.ID)
	return nil
}

func (t *memoryTx) SaveListing(_ context.Context, listing *models.Listing) error {
	stored, ok := t.repo.listings[listing.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != listing.Version {
		return ErrVersionConflict
	}
	c := listing.Clone()
	c.Version++
	listing.Version = c.Version
	t.listings[listing.ID] = c
	return nil
}

func (t *memoryTx) DeleteListing(_ context.Context, listingId string) error {
	if _, ok := t.repo.listings[listingId]; !ok {
		return ErrNotFound
	}
	delete(t.listings, listingId)
	t.deleted[listingId] = true
	return nil
}

func (t *memoryTx) GetDeal(_ context.Context, dealId string) (*models.Deal, error) {
	if d, ok := t.deals[dealId]; ok {
		return d, nil
	}
	d, ok := t.repo.deals[dealId]
	if !ok {
		return nil, ErrNotFound
	}
	c := d.Clone()
	t.deals[dealId] = c
	return c, nil
}

func (t *memoryTx) FindDeal(ctx context.Context, listingId, bidId string) (*models.Deal, error) {
	for _, d := range t.deals {
		if d.ListingID == listingId && d.BidID == bidId {
			return d, nil
		}
	}
	for id, d := range t.repo.deals {
		if d.ListingID == listingId && d.BidID == bidId {
			return t.GetDeal(ctx, id)
		}
	}
	return nil, nil
}

func (t *memoryTx) SaveDeal(_ context.Context, deal *models.Deal) error {
	for id, d := range t.repo.deals {
		if id != deal.ID && d.ListingID == deal.ListingID && d.BidID == deal.BidID {
			return ErrVersionConflict
		}
	}
	t.deals[deal.ID] = deal.Clone()
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
