package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	BidStatus string // Статус предложения
	Role      string // Сторона сделки
)

const (
	Buyer  Role = "buyer"
	Seller Role = "seller"

	PendingBid             BidStatus = "pending"              // Предложение создано
	CounteredBid           BidStatus = "countered"            // Идет торг
	RejectedBid            BidStatus = "rejected"             // Отклонено, терминальный статус
	PendingConfirmationBid BidStatus = "pending_confirmation" // Принято одной стороной
	AcceptedBid            BidStatus = "accepted"             // Старое название pending_confirmation
	ConfirmedBid           BidStatus = "confirmed"            // Принято обеими сторонами, терминальный статус
)

// Opposite возвращает противоположную сторону.
func (r Role) Opposite() Role {
	if r == Buyer {
		return Seller
	}
	return Buyer
}

// IsTerminal сообщает, что статус больше не меняется.
func (s BidStatus) IsTerminal() bool {
	return s == RejectedBid || s == ConfirmedBid
}

// IsAcceptedFamily - статусы, при которых по предложению существует сделка.
func (s BidStatus) IsAcceptedFamily() bool {
	return s == PendingConfirmationBid || s == AcceptedBid || s == ConfirmedBid
}

// Bid представляет предложение контрагента (bid для sell, offer для buy).
type Bid struct {
	ID                  string          `json:"id"`
	ListingID           string          `json:"listingId"`
	UserID              string          `json:"userId"`
	Username            string          `json:"username"`
	Price               decimal.Decimal `json:"price"`
	OriginalPrice       decimal.Decimal `json:"originalPrice"`
	Quantity            int64           `json:"quantity"`
	Message             string          `json:"message,omitempty"`
	Status              BidStatus       `json:"status"`
	BuyerOfferedPrice   decimal.Decimal `json:"buyerOfferedPrice"`
	SellerReceivesPrice decimal.Decimal `json:"sellerReceivesPrice"`
	PlatformFee         decimal.Decimal `json:"platformFee"`
	BuyerAcceptedAt     *time.Time      `json:"buyerAcceptedAt,omitempty"`
	SellerAcceptedAt    *time.Time      `json:"sellerAcceptedAt,omitempty"`
	CounterHistory      []CounterRound  `json:"counterHistory"`
	DealID              *string         `json:"dealId,omitempty"`
	RejectedAt          *time.Time      `json:"rejectedAt,omitempty"`
	RejectionReason     string          `json:"rejectionReason,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// AcceptedAt возвращает отметку принятия для указанной стороны.
func (b *Bid) AcceptedAt(role Role) *time.Time {
	if role == Buyer {
		return b.BuyerAcceptedAt
	}
	return b.SellerAcceptedAt
}

// StampAccepted ставит отметку принятия для указанной стороны.
func (b *Bid) StampAccepted(role Role, at time.Time) {
	if role == Buyer {
		b.BuyerAcceptedAt = &at
		return
	}
	b.SellerAcceptedAt = &at
}

// Clone возвращает глубокую копию предложения.
func (b *Bid) Clone() *Bid {
	c := cloneBids([]Bid{*b})
	return &c[0]
}

// CounterRound - один раунд торга. После добавления не меняется.
type CounterRound struct {
	Round     int             `json:"round"`
	By        Role            `json:"by"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// BidRequest представляет структуру запроса для создания предложения.
type BidRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"required,gt=0"`
	Message  string          `json:"message" validate:"max=1000"`
}

// AcceptListingRequest - принятие объявления по цене владельца.
type AcceptListingRequest struct {
	Quantity *int64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Message  string `json:"message" validate:"max=1000"`
}

// CounterRequest представляет структуру запроса встречного предложения.
type CounterRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity *int64          `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Message  string          `json:"message" validate:"max=1000"`
}

// PlacedBid - предложение пользователя вместе с кратким описанием объявления.
type PlacedBid struct {
	Bid
	Kind    string         `json:"type"`
	Listing ListingSummary `json:"listing"`
}

// ListingSummary - краткое описание объявления для списка предложений пользователя.
type ListingSummary struct {
	ID            string          `json:"id"`
	Type          ListingType     `json:"type"`
	CompanyName   string          `json:"companyName"`
	ListingPrice  decimal.Decimal `json:"listingPrice"`
	DisplayPrice  decimal.Decimal `json:"displayPrice"`
	Quantity      int64           `json:"listingQuantity"`
	IsActive      bool            `json:"isActive"`
	OwnerID       string          `json:"ownerId"`
	OwnerUsername string          `json:"ownerUsername"`
}

func cloneBids(src []Bid) []Bid {
	if src == nil {
		return nil
	}
	out := make([]Bid, len(src))
	for i, b := range src {
		c := b
		c.BuyerAcceptedAt = clonePtr(b.BuyerAcceptedAt)
		c.SellerAcceptedAt = clonePtr(b.SellerAcceptedAt)
		c.DealID = clonePtr(b.DealID)
		c.RejectedAt = clonePtr(b.RejectedAt)
		if b.CounterHistory != nil {
			c.CounterHistory = make([]CounterRound, len(b.CounterHistory))
			copy(c.CounterHistory, b.CounterHistory)
		}
		out[i] = c
	}
	return out
}
