package negotiation

import (
	"fmt"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/shopspring/decimal"
)

// PlaceInput - данные нового предложения.
type PlaceInput struct {
	ID       string
	CallerID string
	Username string
	Price    decimal.Decimal
	Quantity int64
	Message  string
	Now      time.Time
}

// Place добавляет предложение контрагента к объявлению.
func Place(listing *models.Listing, in PlaceInput) (*models.Bid, error) {
	if err := checkCanPropose(listing, in.CallerID); err != nil {
		return nil, err
	}
	if err := validateQuantity(listing, in.Quantity); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, models.ValidationError("price must be greater than 0")
	}

	bid := newBid(listing, in)
	ApplyFees(&bid, listing.Type, BidderRole(listing.Type))
	entries := listing.Entries()
	*entries = append(*entries, bid)
	listing.UpdatedAt = in.Now
	return listing.FindEntry(bid.ID), nil
}

// AcceptAtAsking создает предложение по цене объявления, сразу принятое контрагентом.
// Количество по умолчанию равно количеству в объявлении.
func AcceptAtAsking(listing *models.Listing, in PlaceInput) (*models.Bid, error) {
	if err := checkCanPropose(listing, in.CallerID); err != nil {
		return nil, err
	}
	if in.Quantity == 0 {
		in.Quantity = listing.Quantity
	}
	if err := validateQuantity(listing, in.Quantity); err != nil {
		return nil, err
	}

	in.Price = listing.Price
	bid := newBid(listing, in)
	// Цену назвал владелец, поэтому комиссия считается от его стороны.
	ApplyFees(&bid, listing.Type, OwnerRole(listing.Type))
	bid.Status = models.PendingConfirmationBid
	bid.StampAccepted(BidderRole(listing.Type), in.Now)

	entries := listing.Entries()
	*entries = append(*entries, bid)
	listing.Status = models.DealPendingListing
	listing.UpdatedAt = in.Now
	return listing.FindEntry(bid.ID), nil
}

// Counter проводит раунд встречного предложения. Владелец может торговаться всегда,
// автор предложения - только отвечая на встречное предложение.
func Counter(listing *models.Listing, bidId, callerId string, req models.CounterRequest, now time.Time) (*models.Bid, models.CounterRound, error) {
	bid, roles, err := lookupForNegotiation(listing, bidId, callerId, "counter")
	if err != nil {
		return nil, models.CounterRound{}, err
	}
	if listing.Status == models.SoldListing || listing.Status == models.CancelledListing {
		return nil, models.CounterRound{}, models.InvalidState(fmt.Sprintf("listing is %s", listing.Status))
	}
	if !req.Price.IsPositive() {
		return nil, models.CounterRound{}, models.ValidationError("price must be greater than 0")
	}
	if req.Quantity != nil {
		if err := validateQuantity(listing, *req.Quantity); err != nil {
			return nil, models.CounterRound{}, err
		}
	}

	round := AppendCounter(listing.Type, bid, roles.Caller, req.Price, req.Quantity, req.Message, now)
	listing.UpdatedAt = now
	return bid, round, nil
}

// Reject отклоняет предложение. Автор предложения может отклонить только встречное предложение владельца.
// Владелец может отклонить и предложение, ожидающее подтверждения: объявление возвращается на витрину,
// а сделку по предложению закрывает CloseDeal.
func Reject(listing *models.Listing, bidId, callerId string, now time.Time) (*models.Bid, Roles, error) {
	if bid := listing.FindEntry(bidId); bid != nil && listing.OwnerID == callerId && awaitingConfirmation(bid) {
		roles, err := ResolveRoles(listing, bid, callerId)
		if err != nil {
			return nil, roles, err
		}
		markRejected(bid, models.ReasonRejectedByOwner, now)
		RevertToActive(listing, now)
		listing.UpdatedAt = now
		return bid, roles, nil
	}

	bid, roles, err := lookupForNegotiation(listing, bidId, callerId, "reject")
	if err != nil {
		return nil, roles, err
	}

	reason := models.ReasonRejectedByOwner
	if roles.IsBidder {
		reason = "counter offer declined"
	}
	markRejected(bid, reason, now)
	listing.UpdatedAt = now
	return bid, roles, nil
}

// AcceptOutcome - результат принятия предложения одной из сторон.
type AcceptOutcome struct {
	Bid       *models.Bid
	Roles     Roles
	Confirmed bool
	// Rejected - соседние предложения, отклоненные при подтверждении сделки.
	Rejected []*models.Bid
}

// Accept выполняет первое принятие или подтверждение второй стороной.
// Повторное принятие той же стороной возвращает AlreadyAccepted и ничего не меняет.
func Accept(listing *models.Listing, bidId, callerId string, now time.Time) (AcceptOutcome, error) {
	bid := listing.FindEntry(bidId)
	if bid == nil {
		return AcceptOutcome{}, models.NotFound(listing.EntryKind() + " not found")
	}
	roles, err := ResolveRoles(listing, bid, callerId)
	if err != nil {
		return AcceptOutcome{}, err
	}

	switch {
	case bid.Status == models.ConfirmedBid:
		return AcceptOutcome{}, models.AlreadyTerminal("this " + listing.EntryKind() + " has already been confirmed")
	case bid.Status == models.RejectedBid:
		return AcceptOutcome{}, models.AlreadyTerminal("this " + listing.EntryKind() + " has been rejected")
	case bid.Status.IsAcceptedFamily():
		if bid.AcceptedAt(roles.Caller) != nil {
			return AcceptOutcome{}, models.AlreadyAccepted("you have already accepted this, waiting for other party to confirm")
		}
		bid.StampAccepted(roles.Caller, now)
		bid.Status = models.ConfirmedBid
		bid.UpdatedAt = now
		rejected := settle(listing, bid.ID, now)
		return AcceptOutcome{Bid: bid, Roles: roles, Confirmed: true, Rejected: rejected}, nil
	}

	if listing.Status != models.ActiveListing {
		return AcceptOutcome{}, models.InvalidState(fmt.Sprintf("listing is %s", listing.Status))
	}
	bid.Status = models.PendingConfirmationBid
	bid.StampAccepted(roles.Caller, now)
	bid.UpdatedAt = now
	listing.Status = models.DealPendingListing
	listing.UpdatedAt = now
	return AcceptOutcome{Bid: bid, Roles: roles}, nil
}

func lookupForNegotiation(listing *models.Listing, bidId, callerId, action string) (*models.Bid, Roles, error) {
	bid := listing.FindEntry(bidId)
	if bid == nil {
		return nil, Roles{}, models.NotFound(listing.EntryKind() + " not found")
	}
	roles, err := ResolveRoles(listing, bid, callerId)
	if err != nil {
		return nil, roles, models.Forbidden(fmt.Sprintf("not authorized to %s this %s", action, listing.EntryKind()))
	}
	if roles.IsBidder && bid.Status != models.CounteredBid {
		return nil, roles, models.Forbidden(fmt.Sprintf("not authorized to %s this %s", action, listing.EntryKind()))
	}
	if bid.Status.IsTerminal() {
		return nil, roles, models.AlreadyTerminal(fmt.Sprintf("%s is already %s", listing.EntryKind(), bid.Status))
	}
	if bid.Status.IsAcceptedFamily() {
		return nil, roles, models.InvalidState(fmt.Sprintf("%s is awaiting confirmation", listing.EntryKind()))
	}
	return bid, roles, nil
}

func awaitingConfirmation(bid *models.Bid) bool {
	return bid.Status == models.PendingConfirmationBid || bid.Status == models.AcceptedBid
}

func checkCanPropose(listing *models.Listing, callerId string) error {
	if listing.OwnerID == callerId {
		return models.Forbidden("cannot bid on your own listing")
	}
	if listing.Status != models.ActiveListing {
		return models.InvalidState("listing is not active")
	}
	return nil
}

func validateQuantity(listing *models.Listing, quantity int64) error {
	minLot := listing.MinLot
	if minLot < 1 {
		minLot = 1
	}
	if quantity < minLot {
		return models.ValidationError(fmt.Sprintf("minimum lot size is %d shares", minLot))
	}
	if quantity > listing.Quantity {
		return models.ValidationError(fmt.Sprintf("maximum available is %d shares", listing.Quantity))
	}
	return nil
}

func newBid(listing *models.Listing, in PlaceInput) models.Bid {
	return models.Bid{
		ID:             in.ID,
		ListingID:      listing.ID,
		UserID:         in.CallerID,
		Username:       in.Username,
		Price:          in.Price,
		OriginalPrice:  in.Price,
		Quantity:       in.Quantity,
		Message:        in.Message,
		Status:         models.PendingBid,
		CounterHistory: []models.CounterRound{},
		CreatedAt:      in.Now,
		UpdatedAt:      in.Now,
	}
}

func markRejected(bid *models.Bid, reason string, now time.Time) {
	bid.Status = models.RejectedBid
	bid.RejectedAt = &now
	bid.RejectionReason = reason
	bid.UpdatedAt = now
}
