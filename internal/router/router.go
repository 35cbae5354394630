package router

import (
	"net/http"

	"github.com/senyabanana/unlisted-market/internal/handlers"
)

// Handlers - набор обработчиков, из которых собирается таблица маршрутов.
type Handlers struct {
	Ping          http.HandlerFunc
	Listings      *handlers.ListingHandler
	Bids          *handlers.BidHandler
	Deals         *handlers.DealHandler
	Notifications *handlers.NotificationHandler
}

func InitRoutes(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", h.Ping)

	mux.HandleFunc("GET /api/listings", h.Listings.GetListings)
	mux.HandleFunc("POST /api/listings", h.Listings.CreateListing)
	mux.HandleFunc("GET /api/listings/my", h.Listings.GetUserListings)
	mux.HandleFunc("GET /api/listings/my-placed-bids", h.Bids.GetPlacedBids)
	mux.HandleFunc("GET /api/listings/completed-deals", h.Deals.GetUserDeals)
	mux.HandleFunc("GET /api/listings/{listingId}", handlers.RequirePathIDs(h.Listings.GetListing, "listingId"))
	mux.HandleFunc("PUT /api/listings/{listingId}", handlers.RequirePathIDs(h.Listings.UpdateListing, "listingId"))
	mux.HandleFunc("DELETE /api/listings/{listingId}", handlers.RequirePathIDs(h.Listings.DeleteListing, "listingId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/boost", handlers.RequirePathIDs(h.Listings.BoostListing, "listingId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/cancel", handlers.RequirePathIDs(h.Listings.CancelListing, "listingId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/mark-sold", handlers.RequirePathIDs(h.Listings.MarkSold, "listingId"))

	mux.HandleFunc("POST /api/listings/{listingId}/bid", handlers.RequirePathIDs(h.Bids.PlaceBid, "listingId"))
	mux.HandleFunc("POST /api/listings/{listingId}/accept", handlers.RequirePathIDs(h.Bids.AcceptListing, "listingId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/bids/{bidId}/accept", handlers.RequirePathIDs(h.Bids.AcceptBid, "listingId", "bidId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/bids/{bidId}/counter", handlers.RequirePathIDs(h.Bids.CounterBid, "listingId", "bidId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/bids/{bidId}/reject", handlers.RequirePathIDs(h.Bids.RejectBid, "listingId", "bidId"))

	mux.HandleFunc("PUT /api/listings/{listingId}/deals/{dealId}/confirm", handlers.RequirePathIDs(h.Deals.ConfirmDeal, "listingId", "dealId"))
	mux.HandleFunc("PUT /api/listings/{listingId}/deals/{dealId}/reject", handlers.RequirePathIDs(h.Deals.RejectDeal, "listingId", "dealId"))

	mux.HandleFunc("GET /api/notifications", h.Notifications.GetNotifications)
	mux.HandleFunc("PUT /api/notifications/{notificationId}/read", handlers.RequirePathIDs(h.Notifications.MarkRead, "notificationId"))

	return mux
}
