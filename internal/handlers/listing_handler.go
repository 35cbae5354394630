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

// ListingHandler обрабатывает HTTP-запросы к объявлениям.
type ListingHandler struct {
	Service *services.ListingService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewListingHandler создаёт новый экземпляр ListingHandler.
func NewListingHandler(service *services.ListingService, logger *log.Logger, timeout time.Duration) *ListingHandler {
	return &ListingHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetListings обрабатывает запросы для получения витрины объявлений.
func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	query := r.URL.Query()
	filter := models.ListingFilter{
		Type:      models.ListingType(query.Get("type")),
		CompanyID: query.Get("companyId"),
		Search:    query.Get("search"),
		ExcludeID: query.Get("exclude"),
	}

	listings, err := h.Service.GetListings(ctx, caller, filter, query.Get("limit"), query.Get("offset"))
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listings)
}

// CreateListing обрабатывает запросы для создания объявления.
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.ListingRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listing, err := h.Service.CreateListing(ctx, caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, listing)
}

// GetUserListings обрабатывает запросы для получения объявлений пользователя.
func (h *ListingHandler) GetUserListings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listings, err := h.Service.GetUserListings(ctx, caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listings)
}

// GetListing обрабатывает запросы для получения объявления.
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	listing, err := h.Service.GetListing(ctx, r.PathValue("listingId"))
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listing)
}

// UpdateListing обрабатывает запросы для редактирования объявления.
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.UpdateListingRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listing, err := h.Service.UpdateListing(ctx, r.PathValue("listingId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listing)
}

// DeleteListing обрабатывает запросы для удаления объявления.
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	if err := h.Service.DeleteListing(ctx, r.PathValue("listingId"), caller); err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// BoostListing обрабатывает запросы для поднятия объявления в выдаче.
func (h *ListingHandler) BoostListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listing, err := h.Service.BoostListing(ctx, r.PathValue("listingId"), caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listing)
}

// CancelListing обрабатывает запросы для отмены объявления.
func (h *ListingHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.CancelRequest
	if err := utils.DecodeJSON(r, &req, true); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listing, err := h.Service.CancelListing(ctx, r.PathValue("listingId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listing)
}

// MarkSold обрабатывает запросы владельца о продаже вне платформы.
func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.MarkSoldRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	listing, err := h.Service.MarkSold(ctx, r.PathValue("listingId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, listing)
}
