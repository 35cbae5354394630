package negotiation

import (
	"time"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/shopspring/decimal"
)

// DealInput - параметры создания записи о сделке.
type DealInput struct {
	ID  string
	Now time.Time
	Rng RandSource
}

// RecordAcceptance находит или создает сделку по паре (объявление, предложение)
// и переносит в нее состояние принятия. existing - найденная сделка или nil.
func RecordAcceptance(existing *models.Deal, listing *models.Listing, bid *models.Bid, confirmed bool, in DealInput) *models.Deal {
	deal := existing
	if deal == nil {
		deal = newDeal(listing, bid, in)
	}

	deal.BuyerAcceptedAt = bid.BuyerAcceptedAt
	deal.SellerAcceptedAt = bid.SellerAcceptedAt
	if confirmed {
		deal.Status = models.ConfirmedDeal
		deal.BuyerConfirmed = true
		deal.SellerConfirmed = true
		if deal.BuyerConfirmedAt == nil {
			deal.BuyerConfirmedAt = &in.Now
		}
		if deal.SellerConfirmedAt == nil {
			deal.SellerConfirmedAt = &in.Now
		}
	}
	deal.UpdatedAt = in.Now

	dealId := deal.ID
	bid.DealID = &dealId
	return deal
}

func newDeal(listing *models.Listing, bid *models.Bid, in DealInput) *models.Deal {
	parties := ResolveParties(listing, bid)
	rng := in.Rng
	if rng == nil {
		rng = DefaultRandSource()
	}
	codes := GenerateCodes(rng)
	qty := decimal.NewFromInt(bid.Quantity)

	return &models.Deal{
		ID:                     in.ID,
		ListingID:              listing.ID,
		BidID:                  bid.ID,
		DealType:               listing.Type,
		CompanyName:            listing.CompanyName,
		CompanyID:              listing.CompanyID,
		SellerID:               parties.SellerID,
		SellerUsername:         parties.SellerUsername,
		BuyerID:                parties.BuyerID,
		BuyerUsername:          parties.BuyerUsername,
		AgreedPrice:            bid.Price,
		Quantity:               bid.Quantity,
		BuyerPaysPerShare:      bid.BuyerOfferedPrice,
		SellerReceivesPerShare: bid.SellerReceivesPrice,
		TotalAmount:            bid.BuyerOfferedPrice.Mul(qty),
		PlatformFee:            bid.BuyerOfferedPrice.Sub(bid.SellerReceivesPrice).Mul(qty),
		Status:                 models.PendingConfirmationDeal,
		BuyerVerificationCode:  codes.BuyerCode,
		SellerVerificationCode: codes.SellerCode,
		RMVerificationCode:     codes.RMCode,
		CreatedAt:              in.Now,
		UpdatedAt:              in.Now,
	}
}

// Codes возвращает участнику userId его код и код RM подтвержденной сделки, иначе nil.
func Codes(deal *models.Deal, userId string) *models.DealCodes {
	if deal == nil || deal.Status != models.ConfirmedDeal {
		return nil
	}
	role, ok := deal.RoleOf(userId)
	if !ok {
		return nil
	}
	codes := &models.DealCodes{RMCode: deal.RMVerificationCode}
	if role == models.Buyer {
		codes.BuyerCode = deal.BuyerVerificationCode
	} else {
		codes.SellerCode = deal.SellerVerificationCode
	}
	return codes
}

// ViewFor показывает сделку участнику userId. Свой код и код RM раскрываются
// только после подтверждения, код второй стороны не раскрывается никогда.
func ViewFor(deal *models.Deal, userId string) (models.DealView, bool) {
	role, ok := deal.RoleOf(userId)
	if !ok {
		return models.DealView{}, false
	}

	v := models.DealView{Deal: *deal.Clone(), UserRole: role}
	v.BuyerVerificationCode = ""
	v.SellerVerificationCode = ""
	v.RMVerificationCode = ""
	if deal.Status == models.ConfirmedDeal {
		if role == models.Buyer {
			v.MyVerificationCode = deal.BuyerVerificationCode
		} else {
			v.MyVerificationCode = deal.SellerVerificationCode
		}
		v.RMVerificationCode = deal.RMVerificationCode
	}
	return v, true
}
