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

// DealHandler обрабатывает HTTP-запросы к сделкам.
type DealHandler struct {
	Service *services.DealService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewDealHandler создаёт новый экземпляр DealHandler.
func NewDealHandler(service *services.DealService, logger *log.Logger, timeout time.Duration) *DealHandler {
	return &DealHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// ConfirmDeal обрабатывает подтверждение сделки продавцом.
func (h *DealHandler) ConfirmDeal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	result, err := h.Service.ConfirmDeal(ctx, r.PathValue("listingId"), r.PathValue("dealId"), caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}

// RejectDeal обрабатывает отказ продавца от сделки.
func (h *DealHandler) RejectDeal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	var req models.RejectDealRequest
	if err := utils.DecodeJSON(r, &req, true); err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	deal, err := h.Service.RejectDeal(ctx, r.PathValue("listingId"), r.PathValue("dealId"), caller, req)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, deal)
}

// GetUserDeals обрабатывает запросы для получения сделок пользователя.
func (h *DealHandler) GetUserDeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendError(w, h.Logger, err)
		return
	}

	deals, err := h.Service.GetUserDeals(ctx, caller)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, h.Logger, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, deals)
}
