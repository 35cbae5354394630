package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	ListingType   string // Тип объявления
	ListingStatus string // Статус объявления
)

const (
	SellListing ListingType = "sell" // Продажа акций, встречные предложения - bids
	BuyListing  ListingType = "buy"  // Запрос на покупку, встречные предложения - offers

	ActiveListing      ListingStatus = "active"       // Объявление на витрине
	NegotiatingListing ListingStatus = "negotiating"  // Зарезервировано, переходов нет
	DealPendingListing ListingStatus = "deal_pending" // Одна из сторон приняла сделку
	SoldListing        ListingStatus = "sold"         // Сделка подтверждена или продано вне платформы
	CancelledListing   ListingStatus = "cancelled"    // Отменено владельцем
)

// Причины массового отклонения предложений.
const (
	ReasonListingCancelled = "listing_cancelled"
	ReasonSoldExternally   = "sold_externally"
	ReasonSoldToOther      = "sold_to_other_party"
	ReasonRejectedBySeller = "rejected_by_seller"
	ReasonRejectedByOwner  = "rejected by listing owner"
)

// Listing представляет объявление о продаже или покупке акций компании.
type Listing struct {
	ID             string           `json:"id"`
	Type           ListingType      `json:"type"`
	OwnerID        string           `json:"ownerId"`
	OwnerUsername  string           `json:"ownerUsername"`
	CompanyID      *string          `json:"companyId,omitempty"`
	CompanyName    string           `json:"companyName"`
	Price          decimal.Decimal  `json:"price"`
	DisplayPrice   decimal.Decimal  `json:"displayPrice"`
	Quantity       int64            `json:"quantity"`
	MinLot         int64            `json:"minLot"`
	Status         ListingStatus    `json:"status"`
	Description    string           `json:"description,omitempty"`
	IsBoosted      bool             `json:"isBoosted"`
	BoostExpiresAt *time.Time       `json:"boostExpiresAt,omitempty"`
	SoldPrice      *decimal.Decimal `json:"soldPrice,omitempty"`
	SoldQuantity   *int64           `json:"soldQuantity,omitempty"`
	SoldExternally bool             `json:"soldExternally"`
	SoldNotes      string           `json:"soldNotes,omitempty"`
	SoldAt         *time.Time       `json:"soldAt,omitempty"`
	CancelReason   string           `json:"cancelReason,omitempty"`
	CancelledAt    *time.Time       `json:"cancelledAt,omitempty"`
	Bids           []Bid            `json:"bids,omitempty"`
	Offers         []Bid            `json:"offers,omitempty"`
	Version        int              `json:"version"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Entries возвращает коллекцию предложений, соответствующую типу объявления.
func (l *Listing) Entries() *[]Bid {
	if l.Type == BuyListing {
		return &l.Offers
	}
	return &l.Bids
}

// FindEntry ищет предложение по идентификатору.
func (l *Listing) FindEntry(bidId string) *Bid {
	entries := l.Entries()
	for i := range *entries {
		if (*entries)[i].ID == bidId {
			return &(*entries)[i]
		}
	}
	return nil
}

// EntryKind возвращает название предложения для текстов уведомлений.
func (l *Listing) EntryKind() string {
	if l.Type == BuyListing {
		return "offer"
	}
	return "bid"
}

// Clone возвращает глубокую копию объявления вместе с предложениями.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.CompanyID = clonePtr(l.CompanyID)
	c.BoostExpiresAt = clonePtr(l.BoostExpiresAt)
	c.SoldPrice = clonePtr(l.SoldPrice)
	c.SoldQuantity = clonePtr(l.SoldQuantity)
	c.SoldAt = clonePtr(l.SoldAt)
	c.CancelledAt = clonePtr(l.CancelledAt)
	c.Bids = cloneBids(l.Bids)
	c.Offers = cloneBids(l.Offers)
	return &c
}

// ListingRequest представляет структуру запроса для создания объявления.
type ListingRequest struct {
	Type        ListingType     `json:"type" validate:"required,oneof=sell buy"`
	CompanyID   *string         `json:"companyId,omitempty"`
	CompanyName string          `json:"companyName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity" validate:"required,gt=0"`
	MinLot      int64           `json:"minLot" validate:"gte=0"`
	Description string          `json:"description" validate:"max=2000"`
}

// UpdateListingRequest представляет изменяемые поля активного объявления.
type UpdateListingRequest struct {
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int64           `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	MinLot   *int64           `json:"minLot,omitempty" validate:"omitempty,gt=0"`
}

// MarkSoldRequest - заявление владельца о продаже вне платформы.
type MarkSoldRequest struct {
	SoldPrice    decimal.Decimal `json:"soldPrice"`
	SoldQuantity *int64          `json:"soldQuantity,omitempty" validate:"omitempty,gt=0"`
	Notes        string          `json:"notes" validate:"max=1000"`
}

// CancelRequest содержит необязательную причину отмены.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ListingFilter - параметры выборки витрины.
type ListingFilter struct {
	Type      ListingType
	CompanyID string
	Search    string
	ExcludeID string
	Limit     int
	Offset    int
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
