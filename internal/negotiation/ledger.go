package negotiation

import (
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/shopspring/decimal"
)

// AppendCounter добавляет раунд торга и синхронизирует цену, количество и комиссии предложения.
// Кто вправе вызывать, решает Counter.
func AppendCounter(listingType models.ListingType, bid *models.Bid, by models.Role, price decimal.Decimal, quantity *int64, message string, now time.Time) models.CounterRound {
	q := bid.Quantity
	if quantity != nil {
		q = *quantity
	}
	round := models.CounterRound{
		Round:     len(bid.CounterHistory) + 1,
		By:        by,
		Price:     price,
		Quantity:  q,
		Message:   message,
		Timestamp: now,
	}
	bid.CounterHistory = append(bid.CounterHistory, round)

	bid.Status = models.CounteredBid
	bid.Price = price
	bid.Quantity = q
	bid.UpdatedAt = now
	ApplyFees(bid, listingType, by)
	return round
}

// LastCounter возвращает последний раунд торга, если он был.
func LastCounter(bid *models.Bid) (models.CounterRound, bool) {
	if len(bid.CounterHistory) == 0 {
		return models.CounterRound{}, false
	}
	return bid.CounterHistory[len(bid.CounterHistory)-1], true
}
