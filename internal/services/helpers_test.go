package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

var (
	owner  = models.Caller{ID: "owner", Username: "owner_name"}
	buyer1 = models.Caller{ID: "buyer1", Username: "buyer1_name"}
	buyer2 = models.Caller{ID: "buyer2", Username: "buyer2_name"}
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, notifications ...models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notifications...)
}

func (r *recordingNotifier) For(userId string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.UserID == userId {
			out = append(out, n)
		}
	}
	return out
}

type seqRand struct{ next int }

func (s *seqRand) IntN(n int) int {
	v := s.next % n
	s.next++
	return v
}

var errDealWrite = errors.New("deals: connection reset by peer")

// tracingRepo записывает порядок обращений транзакции к хранилищу и по флагу отказывает в SaveDeal.
type tracingRepo struct {
	repository.ListingRepository

	mu           sync.Mutex
	calls        []string
	failSaveDeal bool
}

func (r *tracingRepo) WithTransaction(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
	return r.ListingRepository.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, &tracingTx{Tx: tx, repo: r})
	})
}

func (r *tracingRepo) FailSaveDeal(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSaveDeal = fail
}

// Calls возвращает записанные вызовы и очищает журнал.
func (r *tracingRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls
	r.calls = nil
	return calls
}

func (r *tracingRepo) record(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.failSaveDeal
}

type tracingTx struct {
	repository.Tx
	repo *tracingRepo
}

func (t *tracingTx) GetListingForUpdate(ctx context.Context, listingId string) (*models.Listing, error) {
	t.repo.record("GetListingForUpdate")
	return t.Tx.GetListingForUpdate(ctx, listingId)
}

func (t *tracingTx) GetDeal(ctx context.Context, dealId string) (*models.Deal, error) {
	t.repo.record("GetDeal")
	return t.Tx.GetDeal(ctx, dealId)
}

func (t *tracingTx) FindDeal(ctx context.Context, listingId, bidId string) (*models.Deal, error) {
	t.repo.record("FindDeal")
	return t.Tx.FindDeal(ctx, listingId, bidId)
}

func (t *tracingTx) SaveDeal(ctx context.Context, deal *models.Deal) error {
	if t.repo.record("SaveDeal") {
		return errDealWrite
	}
	return t.Tx.SaveDeal(ctx, deal)
}

type testEnv struct {
	deps     *Deps
	repo     *tracingRepo
	clock    time.Time
	notifier *recordingNotifier
	listings *ListingService
	bids     *BidService
	deals    *DealService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		clock:    testNow,
		notifier: &recordingNotifier{},
		repo:     &tracingRepo{ListingRepository: repository.NewMemoryListingRepository()},
	}
	seq := 0
	env.deps = &Deps{
		Repo:     env.repo,
		Notifier: env.notifier,
		Now:      func() time.Time { return env.clock },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Rng: &seqRand{},
	}
	env.listings = NewListingService(env.deps, time.Hour)
	env.bids = NewBidService(env.deps)
	env.deals = NewDealService(env.deps)
	return env
}

func (e *testEnv) createListing(t *testing.T, listingType models.ListingType, price string, quantity int64) *models.Listing {
	t.Helper()
	l, err := e.listings.CreateListing(context.Background(), owner, models.ListingRequest{
		Type:        listingType,
		CompanyName: "Acme Pvt Ltd",
		Price:       decimal.RequireFromString(price),
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) placeBid(t *testing.T, listingId string, caller models.Caller, price string, quantity int64) *models.Bid {
	t.Helper()
	b, err := e.bids.PlaceBid(context.Background(), listingId, caller, models.BidRequest{
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) listing(t *testing.T, id string) *models.Listing {
	t.Helper()
	l, err := e.listings.GetListing(context.Background(), id)
	require.NoError(t, err)
	return l
}
