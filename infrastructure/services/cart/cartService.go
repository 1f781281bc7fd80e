package cart_service

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
)

// PopulatedCartItem is one cart line joined with the live product fields the
// checkout snapshot needs.
type PopulatedCartItem struct {
	ProductId uint64
	Name      string
	Image     string
	IsVeg     bool
	Price     entities.Money
	// FinalPrice is the promotional display price of one unit. The checkout
	// snapshot charges Price, not FinalPrice.
	FinalPrice   entities.Money
	DiscountType entities.DiscountType
	Quantity     int32
}

type PopulatedCart struct {
	UserId uint64
	Items  []PopulatedCartItem
}

type ICartService interface {
	// GetPopulated returns the user's cart with every line joined against
	// the live product catalog. Lines referencing deleted products are
	// dropped. Data of the returned future is *PopulatedCart.
	GetPopulated(ctx context.Context, userId uint64) future.IFuture

	// AddItem adds quantity of a product to the user's cart, merging into
	// an existing line for the same product.
	AddItem(ctx context.Context, userId, productId uint64, quantity int32) future.IFuture

	RemoveItem(ctx context.Context, userId, productId uint64) future.IFuture

	// Clear empties the user's cart. Clearing an already empty cart is not
	// an error.
	Clear(ctx context.Context, userId uint64) future.IFuture
}
