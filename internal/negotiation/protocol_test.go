package negotiation

import (
	"testing"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDeal(t *testing.T, listingType models.ListingType, acceptor string) (*models.Listing, *models.Deal) {
	t.Helper()
	l := newTestListing(t, listingType, "1000", 10)
	placeTestBid(t, l, "bid-1", "bidder", "1000", 10)
	placeTestBid(t, l, "bid-2", "bidder2", "990", 10)

	out, err := Accept(l, "bid-1", acceptor, testNow)
	require.NoError(t, err)
	deal := RecordAcceptance(nil, l, out.Bid, out.Confirmed, DealInput{ID: "deal-1", Now: testNow, Rng: &seqRand{}})
	return l, deal
}

func TestRecordAcceptance_Totals(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "owner")

	assert.Equal(t, "deal-1", deal.ID)
	assert.Equal(t, "bidder", deal.BuyerID)
	assert.Equal(t, "owner", deal.SellerID)
	assert.Equal(t, int64(10), deal.Quantity)
	assert.True(t, deal.TotalAmount.Equal(dec("10000")))
	assert.True(t, deal.PlatformFee.Equal(deal.BuyerPaysPerShare.Sub(deal.SellerReceivesPerShare).Mul(dec("10"))))
	assert.Equal(t, "196.08", deal.PlatformFee.StringFixed(2))
	assert.Equal(t, "ABCDEF", deal.BuyerVerificationCode)
	require.NotNil(t, l.Bids[0].DealID)
	assert.Equal(t, "deal-1", *l.Bids[0].DealID)
	assert.Nil(t, Codes(deal, "bidder"))
}

func TestRecordAcceptance_UpdatesInPlace(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "owner")
	codes := deal.BuyerVerificationCode

	out, err := Accept(l, "bid-1", "bidder", testNow)
	require.NoError(t, err)
	updated := RecordAcceptance(deal, l, out.Bid, out.Confirmed, DealInput{ID: "ignored", Now: testNow})

	assert.Same(t, deal, updated)
	assert.Equal(t, "deal-1", updated.ID)
	assert.Equal(t, codes, updated.BuyerVerificationCode)
	assert.Equal(t, models.ConfirmedDeal, updated.Status)
	assert.NotNil(t, updated.BuyerConfirmedAt)
	assert.NotNil(t, updated.SellerConfirmedAt)
}

func TestConfirmBySeller(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "bidder")

	_, err := ConfirmBySeller(deal, l, "bidder", testNow)
	assert.ErrorIs(t, err, models.ErrForbidden)

	out, err := ConfirmBySeller(deal, l, "owner", testNow)
	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, models.SoldListing, l.Status)
	RecordAcceptance(deal, l, out.Bid, out.Confirmed, DealInput{Now: testNow})

	_, err = ConfirmBySeller(deal, l, "owner", testNow)
	assert.ErrorIs(t, err, models.ErrAlreadyConfirmed)
}

func TestConfirmBySeller_SellerAcceptedFirst(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "owner")

	_, err := ConfirmBySeller(deal, l, "owner", testNow)
	assert.ErrorIs(t, err, models.ErrAlreadyAccepted)
}

func TestConfirmBySeller_BuyListing(t *testing.T) {
	l, deal := pendingDeal(t, models.BuyListing, "owner")
	assert.Equal(t, "bidder", deal.SellerID)

	out, err := ConfirmBySeller(deal, l, "bidder", testNow)
	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, models.ConfirmedBid, l.Offers[0].Status)
	assert.Equal(t, models.RejectedBid, l.Offers[1].Status)
}

// Продавец отказывается от сделки после принятия покупателем.
func TestSellerRejectsPendingDeal(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "bidder")
	require.Equal(t, models.DealPendingListing, l.Status)

	_, err := RejectBySeller(deal, l, "bidder", "", testNow)
	assert.ErrorIs(t, err, models.ErrForbidden)

	bid, err := RejectBySeller(deal, l, "owner", "", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.RejectedBySellerDeal, deal.Status)
	assert.Equal(t, DefaultDealRejectReason, deal.CancelReason)
	assert.NotNil(t, deal.CancelledAt)
	assert.Equal(t, models.RejectedBid, bid.Status)
	assert.Equal(t, models.ReasonRejectedBySeller, bid.RejectionReason)
	assert.Equal(t, models.ActiveListing, l.Status)
	assert.Equal(t, models.PendingBid, l.Bids[1].Status)

	_, err = RejectBySeller(deal, l, "owner", "", testNow)
	assert.ErrorIs(t, err, models.ErrAlreadyTerminal)
}

// Владелец запроса на покупку отказывается от сделки, которую продавец уже принял.
func TestOwnerRejectsAwaitingConfirmation(t *testing.T) {
	l, deal := pendingDeal(t, models.BuyListing, "bidder")
	require.Equal(t, models.DealPendingListing, l.Status)

	_, _, err := Reject(l, "bid-1", "bidder", testNow)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, _, err = Counter(l, "bid-1", "owner", models.CounterRequest{Price: dec("900")}, testNow)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	bid, roles, err := Reject(l, "bid-1", "owner", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.Buyer, roles.Caller)
	assert.Equal(t, models.RejectedBid, bid.Status)
	assert.Equal(t, models.ReasonRejectedByOwner, bid.RejectionReason)
	assert.Equal(t, models.ActiveListing, l.Status)
	assert.Equal(t, models.PendingBid, l.Offers[1].Status)

	CloseDeal(deal, roles.Caller, bid.RejectionReason, testNow)
	assert.Equal(t, models.RejectedByBuyerDeal, deal.Status)
	assert.NotNil(t, deal.CancelledAt)

	_, err = ConfirmBySeller(deal, l, "bidder", testNow)
	assert.ErrorIs(t, err, models.ErrAlreadyTerminal)
}

func TestRejectBySeller_Confirmed(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "bidder")
	out, err := Accept(l, "bid-1", "owner", testNow)
	require.NoError(t, err)
	RecordAcceptance(deal, l, out.Bid, out.Confirmed, DealInput{Now: testNow})

	_, err = RejectBySeller(deal, l, "owner", "changed my mind", testNow)
	assert.ErrorIs(t, err, models.ErrAlreadyConfirmed)
	assert.Equal(t, models.SoldListing, l.Status)
}

func TestViewFor_MasksCodes(t *testing.T) {
	l, deal := pendingDeal(t, models.SellListing, "owner")

	v, ok := ViewFor(deal, "bidder")
	require.True(t, ok)
	assert.Equal(t, models.Buyer, v.UserRole)
	assert.Empty(t, v.MyVerificationCode)
	assert.Empty(t, v.RMVerificationCode)
	assert.Empty(t, v.BuyerVerificationCode)

	_, ok = ViewFor(deal, "stranger")
	assert.False(t, ok)

	out, err := Accept(l, "bid-1", "bidder", testNow)
	require.NoError(t, err)
	RecordAcceptance(deal, l, out.Bid, out.Confirmed, DealInput{Now: testNow})

	v, _ = ViewFor(deal, "owner")
	assert.Equal(t, models.Seller, v.UserRole)
	assert.Equal(t, deal.SellerVerificationCode, v.MyVerificationCode)
	assert.Equal(t, deal.RMVerificationCode, v.RMVerificationCode)
	assert.Empty(t, v.BuyerVerificationCode)
	assert.Empty(t, v.SellerVerificationCode)
	assert.NotEmpty(t, deal.BuyerVerificationCode)
}

func TestRoles(t *testing.T) {
	l := newTestListing(t, models.BuyListing, "1000", 10)
	o := placeTestBid(t, l, "offer-1", "seller", "1000", 1)

	r, err := ResolveRoles(l, o, "owner")
	require.NoError(t, err)
	assert.Equal(t, Roles{Caller: models.Buyer, Counterparty: models.Seller, IsOwner: true}, r)

	r, err = ResolveRoles(l, o, "seller")
	require.NoError(t, err)
	assert.Equal(t, Roles{Caller: models.Seller, Counterparty: models.Buyer, IsBidder: true}, r)

	_, err = ResolveRoles(l, o, "x")
	assert.ErrorIs(t, err, models.ErrForbidden)

	p := ResolveParties(l, o)
	assert.Equal(t, "owner", p.UserID(models.Buyer))
	assert.Equal(t, "seller_name", p.Username(models.Seller))
}
