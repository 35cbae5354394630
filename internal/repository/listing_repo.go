package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier - общее подмножество pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const listingColumns = `l.id, l.type, l.owner_id, l.owner_username, l.company_id, l.company_name, l.price, l.quantity,
	l.min_lot, l.status, l.description, l.is_boosted, l.boost_expires_at, l.sold_price, l.sold_quantity,
	l.sold_externally, l.sold_notes, l.sold_at, l.cancel_reason, l.cancelled_at, l.version, l.created_at, l.updated_at`

const bidColumns = `b.id, b.listing_id, b.user_id, b.username, b.price, b.original_price, b.quantity, b.message,
	b.status, b.buyer_offered_price, b.seller_receives_price, b.platform_fee, b.buyer_accepted_at,
	b.seller_accepted_at, b.counter_history, b.deal_id, b.rejected_at, b.rejection_reason, b.created_at, b.updated_at`

const dealColumns = `id, listing_id, bid_id, deal_type, company_name, company_id, seller_id, seller_username, buyer_id,
	buyer_username, agreed_price, quantity, buyer_pays_per_share, seller_receives_per_share, total_amount,
	platform_fee, status, buyer_accepted_at, seller_accepted_at, buyer_confirmed, seller_confirmed,
	buyer_confirmed_at, seller_confirmed_at, buyer_verification_code, seller_verification_code,
	rm_verification_code, cancel_reason, cancelled_at, created_at, updated_at`

// PostgresListingRepository - реализация ListingRepository для базы данных.
type PostgresListingRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresListingRepository создает новый экземпляр PostgresListingRepository.
func NewPostgresListingRepository(db *pgxpool.Pool) *PostgresListingRepository {
	return &PostgresListingRepository{DB: db}
}

// WithTransaction выполняет fn в транзакции. Ошибка fn откатывает все изменения.
func (r *PostgresListingRepository) WithTransaction(ctx context.Context, fn func(context.Context, Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("listing repo: begin tx: %w", err)
	}
	if err := fn(ctx, &postgresTx{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("listing repo: rollback tx: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("listing repo: commit tx: %w", err)
	}
	return nil
}

// GetListing возвращает объявление вместе с предложениями.
func (r *PostgresListingRepository) GetListing(ctx context.Context, listingId string) (*models.Listing, error) {
	return getListing(ctx, r.DB, listingId, false)
}

// GetListings возвращает активные объявления витрины, поднятые бустом идут первыми.
func (r *PostgresListingRepository) GetListings(ctx context.Context, filter models.ListingFilter, viewerId string) ([]models.Listing, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + listingColumns + " FROM listings l WHERE l.status = $1")
	args := []any{models.ActiveListing}

	if filter.Type != "" {
		args = append(args, filter.Type)
		fmt.Fprintf(&builder, " AND l.type = $%d", len(args))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		fmt.Fprintf(&builder, " AND l.company_id = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		fmt.Fprintf(&builder, " AND l.company_name ILIKE $%d", len(args))
	}
	if filter.ExcludeID != "" {
		args = append(args, filter.ExcludeID)
		fmt.Fprintf(&builder, " AND l.id <> $%d", len(args))
	}
	if viewerId != "" {
		args = append(args, viewerId)
		fmt.Fprintf(&builder, " AND l.owner_id <> $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&builder, " ORDER BY l.is_boosted DESC, l.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return queryListings(ctx, r.DB, builder.String(), args...)
}

// GetUserListings возвращает все объявления пользователя.
func (r *PostgresListingRepository) GetUserListings(ctx context.Context, ownerId string) ([]models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings l WHERE l.owner_id = $1 ORDER BY l.created_at DESC"
	return queryListings(ctx, r.DB, query, ownerId)
}

// GetPlacedBids возвращает предложения пользователя на чужие объявления.
func (r *PostgresListingRepository) GetPlacedBids(ctx context.Context, userId string) ([]models.PlacedBid, error) {
	query := `SELECT ` + bidColumns + `, b.kind, l.id, l.type, l.company_name, l.price, l.quantity, l.status,
			l.owner_id, l.owner_username
		FROM listing_bids b
		JOIN listings l ON l.id = b.listing_id
		WHERE b.user_id = $1 AND l.owner_id <> $1
		ORDER BY b.created_at DESC`
	rows, err := r.DB.Query(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	placed := []models.PlacedBid{}
	for rows.Next() {
		var p models.PlacedBid
		var history []byte
		var status models.ListingStatus
		if err := rows.Scan(
			&p.ID, &p.ListingID, &p.UserID, &p.Username, &p.Price, &p.OriginalPrice, &p.Quantity, &p.Message,
			&p.Status, &p.BuyerOfferedPrice, &p.SellerReceivesPrice, &p.PlatformFee, &p.BuyerAcceptedAt,
			&p.SellerAcceptedAt, &history, &p.DealID, &p.RejectedAt, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt,
			&p.Kind, &p.Listing.ID, &p.Listing.Type, &p.Listing.CompanyName, &p.Listing.ListingPrice,
			&p.Listing.Quantity, &status, &p.Listing.OwnerID, &p.Listing.OwnerUsername); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(history, &p.CounterHistory); err != nil {
			return nil, fmt.Errorf("decode counter history: %w", err)
		}
		p.Listing.IsActive = status == models.ActiveListing
		placed = append(placed, p)
	}
	return placed, rows.Err()
}

// GetUserDeals возвращает сделки, в которых пользователь покупатель или продавец.
func (r *PostgresListingRepository) GetUserDeals(ctx context.Context, userId string) ([]models.Deal, error) {
	query := "SELECT " + dealColumns + " FROM deals WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC"
	rows, err := r.DB.Query(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *deal)
	}
	return deals, rows.Err()
}

// GetExpiredBoosts возвращает идентификаторы объявлений с истекшим бустом.
func (r *PostgresListingRepository) GetExpiredBoosts(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM listings WHERE is_boosted AND boost_expires_at <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type postgresTx struct {
	q querier
}

func (t *postgresTx) GetListingForUpdate(ctx context.Context, listingId string) (*models.Listing, error) {
	return getListing(ctx, t.q, listingId, true)
}

func (t *postgresTx) CreateListing(ctx context.Context, l *models.Listing) error {
	insertQuery := `INSERT INTO listings (id, type, owner_id, owner_username, company_id, company_name, price, quantity,
			min_lot, status, description, is_boosted, boost_expires_at, sold_price, sold_quantity, sold_externally,
			sold_notes, sold_at, cancel_reason, cancelled_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := t.q.Exec(ctx, insertQuery,
		l.ID, l.Type, l.OwnerID, l.OwnerUsername, l.CompanyID, l.CompanyName, l.Price, l.Quantity,
		l.MinLot, l.Status, l.Description, l.IsBoosted, l.BoostExpiresAt, nullDecimal(l.SoldPrice), l.SoldQuantity,
		l.SoldExternally, l.SoldNotes, l.SoldAt, l.CancelReason, l.CancelledAt, l.Version, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return err
	}
	return t.saveEntries(ctx, l)
}

func (t *postgresTx) SaveListing(ctx context.Context, l *models.Listing) error {
	updateQuery := `UPDATE listings SET price = $1, quantity = $2, min_lot = $3, status = $4, description = $5,
			is_boosted = $6, boost_expires_at = $7, sold_price = $8, sold_quantity = $9, sold_externally = $10,
			sold_notes = $11, sold_at = $12, cancel_reason = $13, cancelled_at = $14, updated_at = $15,
			version = version + 1
		WHERE id = $16 AND version = $17`
	tag, err := t.q.Exec(ctx, updateQuery,
		l.Price, l.Quantity, l.MinLot, l.Status, l.Description,
		l.IsBoosted, l.BoostExpiresAt, nullDecimal(l.SoldPrice), l.SoldQuantity, l.SoldExternally,
		l.SoldNotes, l.SoldAt, l.CancelReason, l.CancelledAt, l.UpdatedAt,
		l.ID, l.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	l.Version++
	return t.saveEntries(ctx, l)
}

// saveEntries записывает предложения объявления. Предложения не удаляются, поэтому достаточно upsert.
func (t *postgresTx) saveEntries(ctx context.Context, l *models.Listing) error {
	upsertQuery := `INSERT INTO listing_bids (id, listing_id, kind, user_id, username, price, original_price, quantity,
			message, status, buyer_offered_price, seller_receives_price, platform_fee, buyer_accepted_at,
			seller_accepted_at, counter_history, deal_id, rejected_at, rejection_reason, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO UPDATE SET price = EXCLUDED.price, quantity = EXCLUDED.quantity,
			status = EXCLUDED.status, buyer_offered_price = EXCLUDED.buyer_offered_price,
			seller_receives_price = EXCLUDED.seller_receives_price, platform_fee = EXCLUDED.platform_fee,
			buyer_accepted_at = EXCLUDED.buyer_accepted_at, seller_accepted_at = EXCLUDED.seller_accepted_at,
			counter_history = EXCLUDED.counter_history, deal_id = EXCLUDED.deal_id,
			rejected_at = EXCLUDED.rejected_at, rejection_reason = EXCLUDED.rejection_reason,
			updated_at = EXCLUDED.updated_at`

	kind := l.EntryKind()
	for i, b := range *l.Entries() {
		history, err := json.Marshal(b.CounterHistory)
		if err != nil {
			return fmt.Errorf("encode counter history: %w", err)
		}
		if _, err := t.q.Exec(ctx, upsertQuery,
			b.ID, l.ID, kind, b.UserID, b.Username, b.Price, b.OriginalPrice, b.Quantity,
			b.Message, b.Status, b.BuyerOfferedPrice, b.SellerReceivesPrice, b.PlatformFee, b.BuyerAcceptedAt,
			b.SellerAcceptedAt, history, b.DealID, b.RejectedAt, b.RejectionReason, i, b.CreatedAt, b.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) DeleteListing(ctx context.Context, listingId string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingId)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) GetDeal(ctx context.Context, dealId string) (*models.Deal, error) {
	row := t.q.QueryRow(ctx, "SELECT "+dealColumns+" FROM deals WHERE id = $1", dealId)
	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return deal, err
}

func (t *postgresTx) FindDeal(ctx context.Context, listingId, bidId string) (*models.Deal, error) {
	row := t.q.QueryRow(ctx, "SELECT "+dealColumns+" FROM deals WHERE listing_id = $1 AND bid_id = $2 FOR UPDATE", listingId, bidId)
	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return deal, err
}

func (t *postgresTx) SaveDeal(ctx context.Context, d *models.Deal) error {
	upsertQuery := `INSERT INTO deals (` + dealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
		ON CONFLICT (listing_id, bid_id) DO UPDATE SET status = EXCLUDED.status,
			buyer_accepted_at = EXCLUDED.buyer_accepted_at, seller_accepted_at = EXCLUDED.seller_accepted_at,
			buyer_confirmed = EXCLUDED.buyer_confirmed, seller_confirmed = EXCLUDED.seller_confirmed,
			buyer_confirmed_at = EXCLUDED.buyer_confirmed_at, seller_confirmed_at = EXCLUDED.seller_confirmed_at,
			cancel_reason = EXCLUDED.cancel_reason, cancelled_at = EXCLUDED.cancelled_at,
			updated_at = EXCLUDED.updated_at`
	_, err := t.q.Exec(ctx, upsertQuery,
		d.ID, d.ListingID, d.BidID, d.DealType, d.CompanyName, d.CompanyID, d.SellerID, d.SellerUsername, d.BuyerID,
		d.BuyerUsername, d.AgreedPrice, d.Quantity, d.BuyerPaysPerShare, d.SellerReceivesPerShare, d.TotalAmount,
		d.PlatformFee, d.Status, d.BuyerAcceptedAt, d.SellerAcceptedAt, d.BuyerConfirmed, d.SellerConfirmed,
		d.BuyerConfirmedAt, d.SellerConfirmedAt, d.BuyerVerificationCode, d.SellerVerificationCode,
		d.RMVerificationCode, d.CancelReason, d.CancelledAt, d.CreatedAt, d.UpdatedAt)
	return err
}

func getListing(ctx context.Context, q querier, listingId string, forUpdate bool) (*models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings l WHERE l.id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	listing, err := scanListing(q.QueryRow(ctx, query, listingId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadEntries(ctx, q, []*models.Listing{listing}); err != nil {
		return nil, err
	}
	return listing, nil
}

func queryListings(ctx context.Context, q querier, query string, args ...any) ([]models.Listing, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		listings = append(listings, *l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*models.Listing, len(listings))
	for i := range listings {
		ptrs[i] = &listings[i]
	}
	if err := loadEntries(ctx, q, ptrs); err != nil {
		return nil, err
	}
	return listings, nil
}

func loadEntries(ctx context.Context, q querier, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	byId := make(map[string]*models.Listing, len(listings))
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		l.Bids, l.Offers = []models.Bid{}, []models.Bid{}
		byId[l.ID] = l
		ids = append(ids, l.ID)
	}

	query := "SELECT " + bidColumns + " FROM listing_bids b WHERE b.listing_id = ANY($1::uuid[]) ORDER BY b.listing_id, b.position"
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Bid
		var history []byte
		if err := rows.Scan(
			&b.ID, &b.ListingID, &b.UserID, &b.Username, &b.Price, &b.OriginalPrice, &b.Quantity, &b.Message,
			&b.Status, &b.BuyerOfferedPrice, &b.SellerReceivesPrice, &b.PlatformFee, &b.BuyerAcceptedAt,
			&b.SellerAcceptedAt, &history, &b.DealID, &b.RejectedAt, &b.RejectionReason, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal(history, &b.CounterHistory); err != nil {
			return fmt.Errorf("decode counter history: %w", err)
		}
		if l, ok := byId[b.ListingID]; ok {
			entries := l.Entries()
			*entries = append(*entries, b)
		}
	}
	return rows.Err()
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var soldPrice decimal.NullDecimal
	if err := row.Scan(
		&l.ID, &l.Type, &l.OwnerID, &l.OwnerUsername, &l.CompanyID, &l.CompanyName, &l.Price, &l.Quantity,
		&l.MinLot, &l.Status, &l.Description, &l.IsBoosted, &l.BoostExpiresAt, &soldPrice, &l.SoldQuantity,
		&l.SoldExternally, &l.SoldNotes, &l.SoldAt, &l.CancelReason, &l.CancelledAt, &l.Version, &l.CreatedAt,
		&l.UpdatedAt); err != nil {
		return nil, err
	}
	if soldPrice.Valid {
		l.SoldPrice = &soldPrice.Decimal
	}
	return &l, nil
}

func scanDeal(row pgx.Row) (*models.Deal, error) {
	var d models.Deal
	if err := row.Scan(
		&d.ID, &d.ListingID, &d.BidID, &d.DealType, &d.CompanyName, &d.CompanyID, &d.SellerID, &d.SellerUsername,
		&d.BuyerID, &d.BuyerUsername, &d.AgreedPrice, &d.Quantity, &d.BuyerPaysPerShare, &d.SellerReceivesPerShare,
		&d.TotalAmount, &d.PlatformFee, &d.Status, &d.BuyerAcceptedAt, &d.SellerAcceptedAt, &d.BuyerConfirmed,
		&d.SellerConfirmed, &d.BuyerConfirmedAt, &d.SellerConfirmedAt, &d.BuyerVerificationCode,
		&d.SellerVerificationCode, &d.RMVerificationCode, &d.CancelReason, &d.CancelledAt, &d.CreatedAt,
		&d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
