package negotiation

import "github.com/senyabanana/unlisted-market/internal/models"

// OwnerRole возвращает сторону владельца объявления.
func OwnerRole(t models.ListingType) models.Role {
	if t == models.BuyListing {
		return models.Buyer
	}
	return models.Seller
}

// BidderRole возвращает сторону автора предложения.
func BidderRole(t models.ListingType) models.Role {
	return OwnerRole(t).Opposite()
}

// Roles - роли участников одной операции над предложением.
type Roles struct {
	Caller       models.Role
	Counterparty models.Role
	IsOwner      bool
	IsBidder     bool
}

// ResolveRoles определяет сторону вызывающего по типу объявления.
// Вызывающий, не являющийся ни владельцем, ни автором предложения, получает Forbidden.
func ResolveRoles(listing *models.Listing, bid *models.Bid, callerId string) (Roles, error) {
	var r Roles
	switch callerId {
	case listing.OwnerID:
		r.IsOwner = true
		r.Caller = OwnerRole(listing.Type)
	case bid.UserID:
		r.IsBidder = true
		r.Caller = BidderRole(listing.Type)
	default:
		return r, models.Forbidden("not a party to this " + listing.EntryKind())
	}
	r.Counterparty = r.Caller.Opposite()
	return r, nil
}

// Parties - покупатель и продавец по предложению.
type Parties struct {
	BuyerID        string
	BuyerUsername  string
	SellerID       string
	SellerUsername string
}

// ResolveParties сопоставляет владельца и автора предложения со сторонами сделки.
func ResolveParties(listing *models.Listing, bid *models.Bid) Parties {
	if listing.Type == models.SellListing {
		return Parties{
			BuyerID:        bid.UserID,
			BuyerUsername:  bid.Username,
			SellerID:       listing.OwnerID,
			SellerUsername: listing.OwnerUsername,
		}
	}
	return Parties{
		BuyerID:        listing.OwnerID,
		BuyerUsername:  listing.OwnerUsername,
		SellerID:       bid.UserID,
		SellerUsername: bid.Username,
	}
}

// UserID возвращает идентификатор пользователя, играющего роль role.
func (p Parties) UserID(role models.Role) string {
	if role == models.Buyer {
		return p.BuyerID
	}
	return p.SellerID
}

// Username возвращает имя пользователя, играющего роль role.
func (p Parties) Username(role models.Role) string {
	if role == models.Buyer {
		return p.BuyerUsername
	}
	return p.SellerUsername
}
