package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/services"
	"github.com/senyabanana/unlisted-market/internal/utils"
)

// BidHandler обрабатывает HTTP-запросы торга по предложениям.
type BidHandler struct {
	Service *services.BidService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewBidHandler создаёт новый экземпляр BidHandler.
func NewBidHandler(service *services.BidService, logger *log.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// PlaceBid обрабатывает запросы для создания предложения.
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.BidRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	bid, err := h.Service.PlaceBid(ctx, r.PathValue("listingId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, bid)
}

// AcceptListing обрабатывает принятие объявления по цене владельца.
func (h *BidHandler) AcceptListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.AcceptListingRequest
	if err := utils.DecodeJSON(r, &req, true); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	result, err := h.Service.AcceptAtAsking(ctx, r.PathValue("listingId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}

// AcceptBid обрабатывает принятие предложения одной из сторон.
func (h *BidHandler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	result, err := h.Service.AcceptBid(ctx, r.PathValue("listingId"), r.PathValue("bidId"), caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}

// CounterBid обрабатывает встречное предложение.
func (h *BidHandler) CounterBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.CounterRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	bid, err := h.Service.CounterBid(ctx, r.PathValue("listingId"), r.PathValue("bidId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, bid)
}

// RejectBid обрабатывает отклонение предложения.
func (h *BidHandler) RejectBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	bid, err := h.Service.RejectBid(ctx, r.PathValue("listingId"), r.PathValue("bidId"), caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, bid)
}

// GetPlacedBids обрабатывает запросы для получения предложений пользователя.
func (h *BidHandler) GetPlacedBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	placed, err := h.Service.GetPlacedBids(ctx, caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, placed)
}
