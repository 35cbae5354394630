package negotiation

import (
	"testing"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeFees(t *testing.T) {
	tests := []struct {
		name           string
		listingType    models.ListingType
		anchor         models.Role
		base           string
		buyerPays      string
		sellerReceives string
	}{
		{"sell listing, seller sets price", models.SellListing, models.Seller, "1000", "1020", "1000"},
		{"sell listing, buyer sets price", models.SellListing, models.Buyer, "1020", "1020", "1000"},
		{"buy listing, buyer sets price", models.BuyListing, models.Buyer, "480", "480", "470.4"},
		{"buy listing, seller sets price", models.BuyListing, models.Seller, "490", "500", "490"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeFees(dec(tt.base), tt.listingType, tt.anchor)
			assert.True(t, s.BuyerPays.Equal(dec(tt.buyerPays)), "buyer pays %s", s.BuyerPays)
			assert.True(t, s.SellerReceives.Equal(dec(tt.sellerReceives)), "seller receives %s", s.SellerReceives)
			assert.True(t, s.PlatformFee.Equal(s.BuyerPays.Sub(s.SellerReceives)))
			assert.False(t, s.PlatformFee.IsNegative())
		})
	}
}

func TestComputeFees_Unrounded(t *testing.T) {
	s := ComputeFees(dec("1000"), models.SellListing, models.Buyer)

	assert.Equal(t, "980.39", s.SellerReceives.StringFixed(2))
	assert.Equal(t, "19.61", s.PlatformFee.StringFixed(2))
	assert.True(t, s.SellerReceives.Exponent() < -2)
}

func TestDisplayPrice(t *testing.T) {
	sell := newTestListing(t, models.SellListing, "1000", 10)
	buy := newTestListing(t, models.BuyListing, "500", 10)

	assert.True(t, DisplayPrice(sell).Equal(dec("1020")))
	assert.True(t, DisplayPrice(buy).Equal(dec("490")))
}
