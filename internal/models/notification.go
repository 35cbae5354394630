package models

import "time"

// NotificationType - тип уведомления.
type NotificationType string

const (
	NewBidNotification              NotificationType = "new_bid"
	NewOfferNotification            NotificationType = "new_offer"
	BidCounteredNotification        NotificationType = "bid_countered"
	BidRejectedNotification         NotificationType = "bid_rejected"
	AcceptanceSentNotification      NotificationType = "acceptance_sent"
	PartyAcceptedNotification       NotificationType = "party_accepted"
	DealConfirmedNotification       NotificationType = "deal_confirmed"
	SellerConfirmedNotification     NotificationType = "seller_confirmed"
	ConfirmationSuccessNotification NotificationType = "confirmation_success"
	SellerRejectedNotification      NotificationType = "seller_rejected"
	ListingCancelledNotification    NotificationType = "listing_cancelled"
)

// Notification - уведомление пользователю.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      map[string]any   `json:"data,omitempty"`
	ActionURL string           `json:"actionUrl,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
