package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus - статус сделки.
type DealStatus string

const (
	PendingConfirmationDeal DealStatus = "pending_confirmation" // Одна сторона приняла
	ConfirmedDeal           DealStatus = "confirmed"            // Обе стороны приняли, коды выданы
	RejectedBySellerDeal    DealStatus = "rejected_by_seller"   // Продавец отказался
	RejectedByBuyerDeal     DealStatus = "rejected_by_buyer"    // Покупатель-владелец объявления отказался
)

// Deal - запись о сходящейся или завершенной сделке.
type Deal struct {
	ID                     string          `json:"id"`
	ListingID              string          `json:"listingId"`
	BidID                  string          `json:"bidId"`
	DealType               ListingType     `json:"dealType"`
	CompanyName            string          `json:"companyName"`
	CompanyID              *string         `json:"companyId,omitempty"`
	SellerID               string          `json:"sellerId"`
	SellerUsername         string          `json:"sellerUsername"`
	BuyerID                string          `json:"buyerId"`
	BuyerUsername          string          `json:"buyerUsername"`
	AgreedPrice            decimal.Decimal `json:"agreedPrice"`
	Quantity               int64           `json:"quantity"`
	BuyerPaysPerShare      decimal.Decimal `json:"buyerPaysPerShare"`
	SellerReceivesPerShare decimal.Decimal `json:"sellerReceivesPerShare"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
	PlatformFee            decimal.Decimal `json:"platformFee"`
	Status                 DealStatus      `json:"status"`
	BuyerAcceptedAt        *time.Time      `json:"buyerAcceptedAt,omitempty"`
	SellerAcceptedAt       *time.Time      `json:"sellerAcceptedAt,omitempty"`
	BuyerConfirmed         bool            `json:"buyerConfirmed"`
	SellerConfirmed        bool            `json:"sellerConfirmed"`
	BuyerConfirmedAt       *time.Time      `json:"buyerConfirmedAt,omitempty"`
	SellerConfirmedAt      *time.Time      `json:"sellerConfirmedAt,omitempty"`
	BuyerVerificationCode  string          `json:"buyerVerificationCode,omitempty"`
	SellerVerificationCode string          `json:"sellerVerificationCode,omitempty"`
	RMVerificationCode     string          `json:"rmVerificationCode,omitempty"`
	CancelReason           string          `json:"cancelReason,omitempty"`
	CancelledAt            *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// Clone возвращает глубокую копию сделки.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	c := *d
	c.CompanyID = clonePtr(d.CompanyID)
	c.BuyerAcceptedAt = clonePtr(d.BuyerAcceptedAt)
	c.SellerAcceptedAt = clonePtr(d.SellerAcceptedAt)
	c.BuyerConfirmedAt = clonePtr(d.BuyerConfirmedAt)
	c.SellerConfirmedAt = clonePtr(d.SellerConfirmedAt)
	c.CancelledAt = clonePtr(d.CancelledAt)
	return &c
}

// RoleOf возвращает сторону пользователя в сделке.
func (d *Deal) RoleOf(userId string) (Role, bool) {
	switch userId {
	case d.BuyerID:
		return Buyer, true
	case d.SellerID:
		return Seller, true
	}
	return "", false
}

// RejectDealRequest содержит необязательную причину отказа продавца.
type RejectDealRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// DealView - сделка глазами одного из участников.
type DealView struct {
	Deal
	UserRole           Role   `json:"userRole"`
	MyVerificationCode string `json:"myVerificationCode,omitempty"`
}

// DealCodes - коды подтверждения, выдаваемые после подтверждения сделки.
// Код второй стороны не заполняется.
type DealCodes struct {
	BuyerCode  string `json:"buyerCode,omitempty"`
	SellerCode string `json:"sellerCode,omitempty"`
	RMCode     string `json:"rmCode"`
}

// AcceptResult - результат принятия предложения.
type AcceptResult struct {
	Status  BidStatus  `json:"status"`
	Message string     `json:"message"`
	DealID  string     `json:"dealId"`
	Deal    DealStatus `json:"dealStatus"`
	Codes   *DealCodes `json:"codes,omitempty"`
}
