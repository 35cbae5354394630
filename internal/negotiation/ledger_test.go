package negotiation

import (
	"testing"
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCounter_RoundsAndPrice(t *testing.T) {
	l := newTestListing(t, models.SellListing, "1000", 100)
	b := placeTestBid(t, l, "bid-1", "buyer", "900", 50)

	prices := []string{"980", "920", "960", "950"}
	by := []models.Role{models.Seller, models.Buyer, models.Seller, models.Buyer}
	for i, p := range prices {
		round := AppendCounter(l.Type, b, by[i], dec(p), nil, "", testNow.Add(time.Duration(i)*time.Minute))

		assert.Equal(t, i+1, round.Round)
		assert.Equal(t, by[i], round.By)
		assert.True(t, b.Price.Equal(dec(p)))
		assert.True(t, b.CounterHistory[i].Price.Equal(b.Price))
		requireFeeInvariant(t, b)
	}

	require.Len(t, b.CounterHistory, 4)
	for i, r := range b.CounterHistory {
		assert.Equal(t, i+1, r.Round)
		assert.Equal(t, int64(50), r.Quantity)
	}
	assert.Equal(t, models.CounteredBid, b.Status)
	assert.True(t, b.OriginalPrice.Equal(dec("900")))
}

func TestAppendCounter_QuantityAndAnchor(t *testing.T) {
	l := newTestListing(t, models.SellListing, "1000", 100)
	b := placeTestBid(t, l, "bid-1", "buyer", "900", 50)
	qty := int64(30)

	AppendCounter(l.Type, b, models.Seller, dec("1000"), &qty, "take 30", testNow)

	assert.Equal(t, int64(30), b.Quantity)
	assert.Equal(t, "take 30", b.CounterHistory[0].Message)
	assert.True(t, b.SellerReceivesPrice.Equal(dec("1000")))
	assert.True(t, b.BuyerOfferedPrice.Equal(dec("1020")))
}

func TestAppendCounter_PriorRoundsUntouched(t *testing.T) {
	l := newTestListing(t, models.SellListing, "1000", 100)
	b := placeTestBid(t, l, "bid-1", "buyer", "900", 50)

	first := AppendCounter(l.Type, b, models.Seller, dec("980"), nil, "first", testNow)
	AppendCounter(l.Type, b, models.Buyer, dec("940"), nil, "second", testNow.Add(time.Minute))

	assert.Equal(t, first, b.CounterHistory[0])
	last, ok := LastCounter(b)
	require.True(t, ok)
	assert.Equal(t, 2, last.Round)
}

func TestLastCounter_Empty(t *testing.T) {
	_, ok := LastCounter(&models.Bid{})
	assert.False(t, ok)
}
