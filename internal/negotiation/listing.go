package negotiation

import (
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"
)

// NewListing проверяет запрос и создает активное объявление.
func NewListing(id, ownerId, ownerUsername string, req models.ListingRequest, now time.Time) (*models.Listing, error) {
	if req.Type != models.SellListing && req.Type != models.BuyListing {
		return nil, models.ValidationError("invalid listing type. Must be 'sell' or 'buy'")
	}
	companyName := strings.TrimSpace(req.CompanyName)
	if companyName == "" && (req.CompanyID == nil || *req.CompanyID == "") {
		return nil, models.ValidationError("company name or company ID is required")
	}
	if !req.Price.IsPositive() {
		return nil, models.ValidationError("price must be greater than 0")
	}
	if req.Quantity <= 0 {
		return nil, models.ValidationError("quantity must be greater than 0")
	}
	minLot := req.MinLot
	if minLot == 0 {
		minLot = 1
	}
	if minLot < 0 || minLot > req.Quantity {
		return nil, models.ValidationError("minimum lot must be between 1 and quantity")
	}

	return &models.Listing{
		ID:            id,
		Type:          req.Type,
		OwnerID:       ownerId,
		OwnerUsername: ownerUsername,
		CompanyID:     req.CompanyID,
		CompanyName:   companyName,
		Price:         req.Price,
		Quantity:      req.Quantity,
		MinLot:        minLot,
		Status:        models.ActiveListing,
		Description:   req.Description,
		Bids:          []models.Bid{},
		Offers:        []models.Bid{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update меняет цену, количество или минимальный лот активного объявления.
func Update(listing *models.Listing, callerId string, req models.UpdateListingRequest, now time.Time) error {
	if err := requireOwner(listing, callerId, "update"); err != nil {
		return err
	}
	if listing.Status != models.ActiveListing {
		return models.InvalidState("can only update active listings")
	}

	price, quantity, minLot := listing.Price, listing.Quantity, listing.MinLot
	if req.Price != nil {
		price = *req.Price
	}
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if req.MinLot != nil {
		minLot = *req.MinLot
	}
	if !price.IsPositive() {
		return models.ValidationError("price must be greater than 0")
	}
	if quantity <= 0 {
		return models.ValidationError("quantity must be greater than 0")
	}
	if minLot < 1 || minLot > quantity {
		return models.ValidationError("minimum lot must be between 1 and quantity")
	}

	listing.Price, listing.Quantity, listing.MinLot = price, quantity, minLot
	listing.UpdatedAt = now
	return nil
}

// Boost поднимает активное объявление в выдаче до момента until.
func Boost(listing *models.Listing, callerId string, until, now time.Time) error {
	if err := requireOwner(listing, callerId, "boost"); err != nil {
		return err
	}
	if listing.Status != models.ActiveListing {
		return models.InvalidState("can only boost active listings")
	}
	listing.IsBoosted = true
	listing.BoostExpiresAt = &until
	listing.UpdatedAt = now
	return nil
}

// ExpireBoost снимает истекший буст. Возвращает true, если объявление изменилось.
func ExpireBoost(listing *models.Listing, now time.Time) bool {
	if !listing.IsBoosted || listing.BoostExpiresAt == nil || listing.BoostExpiresAt.After(now) {
		return false
	}
	listing.IsBoosted = false
	listing.BoostExpiresAt = nil
	listing.UpdatedAt = now
	return true
}

// Cancel отменяет активное объявление и отклоняет открытые предложения.
func Cancel(listing *models.Listing, callerId, reason string, now time.Time) ([]*models.Bid, error) {
	if err := requireOwner(listing, callerId, "cancel"); err != nil {
		return nil, err
	}
	if listing.Status != models.ActiveListing {
		return nil, models.InvalidState("can only cancel active listings")
	}
	if reason == "" {
		reason = "User cancelled"
	}
	listing.Status = models.CancelledListing
	listing.CancelReason = reason
	listing.CancelledAt = &now
	listing.UpdatedAt = now
	return RejectOpenEntries(listing, "", models.ReasonListingCancelled, now), nil
}

// MarkSold фиксирует продажу вне платформы.
func MarkSold(listing *models.Listing, callerId string, req models.MarkSoldRequest, now time.Time) ([]*models.Bid, error) {
	if !req.SoldPrice.IsPositive() {
		return nil, models.ValidationError("please provide the price at which you sold/bought the shares")
	}
	if err := requireOwner(listing, callerId, "update"); err != nil {
		return nil, err
	}
	if listing.Status != models.ActiveListing {
		return nil, models.InvalidState("can only mark active listings as sold")
	}

	soldQuantity := listing.Quantity
	if req.SoldQuantity != nil {
		soldQuantity = *req.SoldQuantity
	}
	if soldQuantity < 1 || soldQuantity > listing.Quantity {
		return nil, models.ValidationError(fmt.Sprintf("sold quantity must be between 1 and %d", listing.Quantity))
	}
	soldPrice := req.SoldPrice
	listing.Status = models.SoldListing
	listing.SoldPrice = &soldPrice
	listing.SoldQuantity = &soldQuantity
	listing.SoldExternally = true
	listing.SoldNotes = req.Notes
	listing.SoldAt = &now
	listing.UpdatedAt = now
	return RejectOpenEntries(listing, "", models.ReasonSoldExternally, now), nil
}

// CheckDelete разрешает удаление, только если ни одно предложение не доходило до сделки.
func CheckDelete(listing *models.Listing, callerId string) error {
	if err := requireOwner(listing, callerId, "delete"); err != nil {
		return err
	}
	for _, b := range *listing.Entries() {
		if b.Status.IsAcceptedFamily() || b.DealID != nil {
			return models.Conflict("cannot delete listing with accepted bids/offers, please contact admin")
		}
	}
	return nil
}

// RejectOpenEntries отклоняет предложения в статусах pending и countered, кроме exceptId.
func RejectOpenEntries(listing *models.Listing, exceptId, reason string, now time.Time) []*models.Bid {
	var rejected []*models.Bid
	entries := listing.Entries()
	for i := range *entries {
		b := &(*entries)[i]
		if b.ID == exceptId {
			continue
		}
		if b.Status == models.PendingBid || b.Status == models.CounteredBid {
			markRejected(b, reason, now)
			rejected = append(rejected, b)
		}
	}
	return rejected
}

// RevertToActive возвращает объявление на витрину после отказа по сделке,
// если ни одно другое предложение не находится в принятом состоянии.
func RevertToActive(listing *models.Listing, now time.Time) bool {
	if listing.Status != models.DealPendingListing && listing.Status != models.NegotiatingListing {
		return false
	}
	for _, b := range *listing.Entries() {
		if b.Status.IsAcceptedFamily() {
			return false
		}
	}
	listing.Status = models.ActiveListing
	listing.UpdatedAt = now
	return true
}

// settle закрывает объявление подтвержденной сделкой по предложению winnerId.
func settle(listing *models.Listing, winnerId string, now time.Time) []*models.Bid {
	listing.Status = models.SoldListing
	listing.UpdatedAt = now
	return RejectOpenEntries(listing, winnerId, models.ReasonSoldToOther, now)
}

func requireOwner(listing *models.Listing, callerId, action string) error {
	if listing.OwnerID != callerId {
		return models.Forbidden(fmt.Sprintf("not authorized to %s this listing", action))
	}
	return nil
}
