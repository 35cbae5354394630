package negotiation

import (
	"testing"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestListing(t *testing.T, listingType models.ListingType, price string, quantity int64) *models.Listing {
	t.Helper()
	l, err := NewListing("listing-1", "owner", "owner_name", models.ListingRequest{
		Type:        listingType,
		CompanyName: "Acme Pvt Ltd",
		Price:       dec(price),
		Quantity:    quantity,
	}, testNow)
	require.NoError(t, err)
	return l
}

func placeTestBid(t *testing.T, l *models.Listing, id, user, price string, quantity int64) *models.Bid {
	t.Helper()
	b, err := Place(l, PlaceInput{
		ID:       id,
		CallerID: user,
		Username: user + "_name",
		Price:    dec(price),
		Quantity: quantity,
		Now:      testNow,
	})
	require.NoError(t, err)
	return b
}

func requireFeeInvariant(t *testing.T, b *models.Bid) {
	t.Helper()
	require.True(t, b.BuyerOfferedPrice.Sub(b.SellerReceivesPrice).Equal(b.PlatformFee),
		"buyer %s - seller %s != fee %s", b.BuyerOfferedPrice, b.SellerReceivesPrice, b.PlatformFee)
}

type seqRand struct{ next int }

func (s *seqRand) IntN(n int) int {
	v := s.next % n
	s.next++
	return v
}
