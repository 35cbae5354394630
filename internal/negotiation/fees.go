// Package negotiation содержит правила торга: комиссии, раунды встречных предложений,
// переходы статусов предложений и объявлений и двустороннее подтверждение сделки.
// Пакет не обращается к хранилищу и не отправляет уведомлений.
package negotiation

import (
	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/shopspring/decimal"
)

var (
	sellMarkup  = decimal.RequireFromString("1.02")
	buyDiscount = decimal.RequireFromString("0.98")
)

// Split - разбивка цены за акцию между покупателем, продавцом и платформой.
type Split struct {
	BuyerPays      decimal.Decimal
	SellerReceives decimal.Decimal
	PlatformFee    decimal.Decimal
}

// ComputeFees считает комиссию 2% от цены, названной стороной anchor.
// Округление не выполняется, до двух знаков округляет только отображение.
func ComputeFees(base decimal.Decimal, listingType models.ListingType, anchor models.Role) Split {
	var s Split
	switch {
	case listingType == models.SellListing && anchor == models.Seller:
		s.SellerReceives = base
		s.BuyerPays = base.Mul(sellMarkup)
	case listingType == models.SellListing:
		s.BuyerPays = base
		s.SellerReceives = base.Div(sellMarkup)
	case anchor == models.Buyer:
		s.BuyerPays = base
		s.SellerReceives = base.Mul(buyDiscount)
	default:
		s.SellerReceives = base
		s.BuyerPays = base.Div(buyDiscount)
	}
	s.PlatformFee = s.BuyerPays.Sub(s.SellerReceives)
	return s
}

// ApplyFees пересчитывает три производных поля предложения от его текущей цены.
func ApplyFees(bid *models.Bid, listingType models.ListingType, anchor models.Role) {
	s := ComputeFees(bid.Price, listingType, anchor)
	bid.BuyerOfferedPrice = s.BuyerPays
	bid.SellerReceivesPrice = s.SellerReceives
	bid.PlatformFee = s.PlatformFee
}

// DisplayPrice - цена объявления глазами контрагента: сколько заплатит покупатель
// по объявлению о продаже или сколько получит продавец по запросу на покупку.
func DisplayPrice(listing *models.Listing) decimal.Decimal {
	s := ComputeFees(listing.Price, listing.Type, OwnerRole(listing.Type))
	if listing.Type == models.SellListing {
		return s.BuyerPays
	}
	return s.SellerReceives
}
