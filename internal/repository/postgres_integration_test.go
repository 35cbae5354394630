//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "market"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	exitCode := 1
	if err := setupDatabase(ctx, container); err != nil {
		fmt.Fprintf(os.Stderr, "database setup failed: %v\n", err)
	} else {
		exitCode = m.Run()
		testPool.Close()
	}
	_ = container.Terminate(ctx)
	os.Exit(exitCode)
}

func setupDatabase(ctx context.Context, container testcontainers.Container) error {
	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return err
	}
	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/market?sslmode=disable", host, port.Port())

	_, file, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations")
	m, err := migrate.New("file://"+filepath.Clean(migrationsDir), dsn)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	return err
}

func TestPostgresListingRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresListingRepository(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ownerId, buyerId := uuid.NewString(), uuid.NewString()

	listing := &models.Listing{
		ID:          uuid.NewString(),
		Type:        models.SellListing,
		OwnerID:     ownerId,
		CompanyName: "Acme Pvt Ltd",
		Price:       decimal.RequireFromString("1000"),
		Quantity:    100,
		MinLot:      1,
		Status:      models.ActiveListing,
		Bids: []models.Bid{{
			ID:                  uuid.NewString(),
			UserID:              buyerId,
			Price:               decimal.RequireFromString("1000"),
			OriginalPrice:       decimal.RequireFromString("1000"),
			Quantity:            10,
			Status:              models.PendingBid,
			BuyerOfferedPrice:   decimal.RequireFromString("1000"),
			SellerReceivesPrice: decimal.RequireFromString("980.3921568627450980"),
			PlatformFee:         decimal.RequireFromString("19.6078431372549020"),
			CounterHistory:      []models.CounterRound{},
			CreatedAt:           now,
			UpdatedAt:           now,
		}},
		Offers:    []models.Bid{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	listing.Bids[0].ListingID = listing.ID

	require.NoError(t, repo.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateListing(ctx, listing)
	}))

	bidId := listing.Bids[0].ID
	dealId := uuid.NewString()
	require.NoError(t, repo.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.GetListingForUpdate(ctx, listing.ID)
		if err != nil {
			return err
		}
		b := l.FindEntry(bidId)
		b.CounterHistory = append(b.CounterHistory, models.CounterRound{
			Round: 1, By: models.Seller, Price: decimal.RequireFromString("1010"), Quantity: 10, Timestamp: now,
		})
		b.Status = models.PendingConfirmationBid
		b.DealID = &dealId
		l.Status = models.DealPendingListing
		if err := tx.SaveListing(ctx, l); err != nil {
			return err
		}
		return tx.SaveDeal(ctx, &models.Deal{
			ID: dealId, ListingID: l.ID, BidID: bidId, DealType: l.Type, SellerID: ownerId, BuyerID: buyerId,
			AgreedPrice: b.Price, Quantity: b.Quantity, BuyerPaysPerShare: b.BuyerOfferedPrice,
			SellerReceivesPerShare: b.SellerReceivesPrice, TotalAmount: decimal.RequireFromString("10000"),
			PlatformFee: decimal.RequireFromString("196.07843137254902"), Status: models.PendingConfirmationDeal,
			BuyerVerificationCode: "ABCDEF", SellerVerificationCode: "GHJKLM", RMVerificationCode: "NPQRST",
			CreatedAt: now, UpdatedAt: now,
		})
	}))

	got, err := repo.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealPendingListing, got.Status)
	assert.Equal(t, 2, got.Version)
	require.Len(t, got.Bids, 1)
	assert.True(t, got.Bids[0].SellerReceivesPrice.Equal(decimal.RequireFromString("980.3921568627450980")))
	require.Len(t, got.Bids[0].CounterHistory, 1)
	assert.Equal(t, models.Seller, got.Bids[0].CounterHistory[0].By)
	require.NotNil(t, got.Bids[0].DealID)

	deals, err := repo.GetUserDeals(ctx, buyerId)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "NPQRST", deals[0].RMVerificationCode)

	placed, err := repo.GetPlacedBids(ctx, buyerId)
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.False(t, placed[0].Listing.IsActive)

	// GetDeal не ждет блокировку строки сделки, которую держит другая транзакция.
	locked := make(chan struct{})
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	defer releaseOnce()
	held := make(chan error, 1)
	go func() {
		held <- repo.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
			_, err := tx.FindDeal(ctx, listing.ID, bidId)
			close(locked)
			if err != nil {
				return err
			}
			<-release
			return nil
		})
	}()
	<-locked

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, repo.WithTransaction(readCtx, func(ctx context.Context, tx Tx) error {
		deal, err := tx.GetDeal(ctx, dealId)
		if err != nil {
			return err
		}
		assert.Equal(t, listing.ID, deal.ListingID)
		return nil
	}))
	releaseOnce()
	require.NoError(t, <-held)
}

func TestPostgresListingRepository_VersionConflictAndRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresListingRepository(testPool)
	now := time.Now().UTC()
	listing := &models.Listing{
		ID: uuid.NewString(), Type: models.BuyListing, OwnerID: uuid.NewString(), CompanyName: "Beta",
		Price: decimal.NewFromInt(50), Quantity: 5, MinLot: 1, Status: models.ActiveListing, Version: 1,
		Bids: []models.Bid{}, Offers: []models.Bid{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateListing(ctx, listing)
	}))

	stale := *listing
	err := repo.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.GetListingForUpdate(ctx, listing.ID)
		if err != nil {
			return err
		}
		l.Status = models.CancelledListing
		if err := tx.SaveListing(ctx, l); err != nil {
			return err
		}
		return tx.SaveListing(ctx, &stale)
	})
	require.ErrorIs(t, err, ErrVersionConflict)

	got, err := repo.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActiveListing, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestPostgresNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresNotificationRepository(testPool)
	userId := uuid.NewString()
	n := models.Notification{
		ID: uuid.NewString(), UserID: userId, Type: models.NewBidNotification, Title: "New bid",
		Data: map[string]any{"listingId": "x"}, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateNotification(ctx, n))
	require.NoError(t, repo.CreateNotification(ctx, n))

	got, err := repo.GetUserNotifications(ctx, userId, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Data["listingId"])

	require.NoError(t, repo.MarkRead(ctx, n.ID, userId))
	assert.ErrorIs(t, repo.MarkRead(ctx, n.ID, uuid.NewString()), ErrNotFound)
}
