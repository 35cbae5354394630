package services

import (
	"fmt"

	"github.com/senyabanana/unlisted-market/internal/models"
	"github.com/senyabanana/unlisted-market/internal/negotiation"

	"github.com/shopspring/decimal"
)

// notices собирает уведомления одной операции. Они отправляются после фиксации транзакции.
type notices struct {
	deps  *Deps
	items []models.Notification
}

func (n *notices) add(userId string, t models.NotificationType, title, message string, listing *models.Listing, data map[string]any) {
	if userId == "" {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["listingId"] = listing.ID
	data["companyName"] = listing.CompanyName
	n.items = append(n.items, models.Notification{
		ID:        n.deps.newID(),
		UserID:    userId,
		Type:      t,
		Title:     title,
		Message:   message,
		Data:      data,
		ActionURL: "/listings/" + listing.ID,
		CreatedAt: n.deps.now(),
	})
}

func (n *notices) newEntry(listing *models.Listing, bid *models.Bid) {
	t, title, verb := models.NewBidNotification, "New Bid Received", "placed a bid"
	if listing.Type == models.BuyListing {
		t, title, verb = models.NewOfferNotification, "New Offer Received", "made an offer"
	}
	n.add(listing.OwnerID, t, title,
		fmt.Sprintf("@%s %s of ₹%s for %d shares", bid.Username, verb, bid.Price.StringFixed(2), bid.Quantity),
		listing, map[string]any{"bidId": bid.ID, "fromUser": bid.Username, "amount": bid.Price.String(), "quantity": bid.Quantity})
}

func (n *notices) countered(listing *models.Listing, bid *models.Bid, round models.CounterRound, recipient string) {
	n.add(recipient, models.BidCounteredNotification, "Counter Offer Received",
		fmt.Sprintf("Counter offer on %s: ₹%s for %d shares", listing.CompanyName, round.Price.StringFixed(2), round.Quantity),
		listing, map[string]any{"bidId": bid.ID, "amount": round.Price.String(), "quantity": round.Quantity, "round": round.Round})
}

func (n *notices) rejected(listing *models.Listing, bid *models.Bid, recipient string) {
	n.add(recipient, models.BidRejectedNotification, "Bid Rejected",
		fmt.Sprintf("Your %s of ₹%s for %d shares of %s has been rejected.",
			listing.EntryKind(), bid.Price.StringFixed(2), bid.Quantity, listing.CompanyName),
		listing, map[string]any{"bidId": bid.ID, "amount": bid.Price.String(), "quantity": bid.Quantity})
}

// fanOut уведомляет авторов предложений, отклоненных массово.
func (n *notices) fanOut(listing *models.Listing, rejected []*models.Bid, reason string) {
	for _, b := range rejected {
		data := map[string]any{"bidId": b.ID, "reason": reason}
		switch reason {
		case models.ReasonListingCancelled:
			n.add(b.UserID, models.ListingCancelledNotification, "Listing Cancelled",
				fmt.Sprintf("The listing for %s has been cancelled by the owner.", listing.CompanyName), listing, data)
		case models.ReasonSoldExternally:
			n.add(b.UserID, models.BidRejectedNotification, "Listing No Longer Available",
				fmt.Sprintf("The owner of %s has completed their transaction elsewhere.", listing.CompanyName), listing, data)
		default:
			n.add(b.UserID, models.BidRejectedNotification, "Listing No Longer Available",
				fmt.Sprintf("%s has been sold to another party.", listing.CompanyName), listing, data)
		}
	}
}

// accepted уведомляет обе стороны о первом принятии.
func (n *notices) accepted(listing *models.Listing, bid *models.Bid, deal *models.Deal, acceptor models.Role) {
	parties := negotiation.ResolveParties(listing, bid)
	waiting := acceptor.Opposite()
	qty := decimal.NewFromInt(bid.Quantity)
	amount := func(r models.Role) string {
		if r == models.Buyer {
			return deal.BuyerPaysPerShare.Mul(qty).StringFixed(2)
		}
		return deal.SellerReceivesPerShare.Mul(qty).StringFixed(2)
	}

	n.add(parties.UserID(acceptor), models.AcceptanceSentNotification, "Acceptance Sent",
		fmt.Sprintf("Waiting for @%s to accept the deal for %s", parties.Username(waiting), listing.CompanyName),
		listing, map[string]any{"bidId": bid.ID, "dealId": deal.ID, "amount": amount(acceptor), "quantity": bid.Quantity})
	n.add(parties.UserID(waiting), models.PartyAcceptedNotification, "Deal Accepted",
		fmt.Sprintf("@%s accepted the deal for %s. Accept to confirm!", parties.Username(acceptor), listing.CompanyName),
		listing, map[string]any{"bidId": bid.ID, "dealId": deal.ID, "amount": amount(waiting), "quantity": bid.Quantity})
}

// confirmed уведомляет обе стороны о подтвержденной сделке.
func (n *notices) confirmed(listing *models.Listing, deal *models.Deal, bySeller bool) {
	data := func() map[string]any { return map[string]any{"dealId": deal.ID} }
	if bySeller {
		n.add(deal.BuyerID, models.SellerConfirmedNotification, "Congratulations!",
			fmt.Sprintf("Seller accepted your bid for %s. Check your codes!", listing.CompanyName), listing, data())
		n.add(deal.SellerID, models.ConfirmationSuccessNotification, "Deal Confirmed",
			fmt.Sprintf("You confirmed the sale of %s. Check your codes!", listing.CompanyName), listing, data())
		return
	}
	msg := fmt.Sprintf("Your deal for %s is confirmed! Check your verification codes.", listing.CompanyName)
	n.add(deal.BuyerID, models.DealConfirmedNotification, "Deal Confirmed", msg, listing, data())
	n.add(deal.SellerID, models.DealConfirmedNotification, "Deal Confirmed", msg, listing, data())
}

func (n *notices) sellerRejected(listing *models.Listing, deal *models.Deal) {
	n.add(deal.BuyerID, models.SellerRejectedNotification, "Seller Rejected",
		fmt.Sprintf("Seller declined your acceptance for %s. %s", deal.CompanyName, deal.CancelReason),
		listing, map[string]any{"dealId": deal.ID, "reason": deal.CancelReason})
}
