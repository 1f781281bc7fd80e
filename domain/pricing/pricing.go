package pricing

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	"time"
)

// PricedProduct is the computed read-time view of a product's price. It is
// never persisted, finalPrice must always be derived from the live discount
// fields so edits take effect immediately.
type PricedProduct struct {
	ProductId         uint64
	Name              string
	ListPrice         entities.Money
	FinalPrice        entities.Money
	SavingsAmount     entities.Money
	SavingsPercentage string
	DiscountType      entities.DiscountType
	BogoConfig        *entities.BogoConfig
	ComboItems        []uint64
}

var hundred = decimal.New(100, 0)

// Calc derives the effective unit price of a product from its discount
// configuration. Pure and deterministic, safe to call on every read.
//
// Bogo never changes the unit price, it is a quantity promotion carried
// through as informational config. Offer expiry is not checked here, callers
// that care filter with IsOfferActive first.
func Calc(product *entities.Product) (*PricedProduct, future.IErrorFuture) {
	if product == nil {
		return nil, future.NewError(future.ValidationError, "Product Required", errors.New("product is nil"))
	}

	if !product.DiscountType.IsValid() {
		return nil, future.NewError(future.ValidationError, "DiscountType Invalid",
			errors.Errorf("unknown discount type %q", product.DiscountType))
	}

	price, err := decimal.NewFromString(product.Price.Amount)
	if err != nil {
		return nil, future.NewError(future.ValidationError, "Price Invalid",
			errors.Wrapf(err, "product %d price %q", product.ProductId, product.Price.Amount))
	}

	if price.IsNegative() {
		return nil, future.NewError(future.ValidationError, "Price Invalid",
			errors.Errorf("product %d price %s is negative", product.ProductId, price.String()))
	}

	finalPrice := price
	switch product.DiscountType {
	case entities.DiscountNone, entities.DiscountBogo:
		if product.DiscountType == entities.DiscountBogo {
			if product.BogoConfig == nil || product.BogoConfig.BuyQuantity < 1 || product.BogoConfig.GetQuantity < 1 {
				return nil, future.NewError(future.ValidationError, "BogoConfig Invalid",
					errors.Errorf("product %d bogo config missing or non-positive", product.ProductId))
			}
		}

	case entities.DiscountPercentage:
		percent, err := parseDiscountValue(product)
		if err != nil {
			return nil, err
		}
		finalPrice = price.Sub(price.Mul(percent).Div(hundred)).Round(2)
		// a percentage over 100 clamps to free, same as an oversized fixed amount
		if finalPrice.IsNegative() {
			finalPrice = decimal.Zero
		}

	case entities.DiscountFixed:
		amount, err := parseDiscountValue(product)
		if err != nil {
			return nil, err
		}
		finalPrice = price.Sub(amount).Round(2)
		if finalPrice.IsNegative() {
			finalPrice = decimal.Zero
		}

	case entities.DiscountCombo:
		if product.ComboPrice == nil {
			return nil, future.NewError(future.ValidationError, "ComboPrice Required",
				errors.Errorf("product %d combo discount without combo price", product.ProductId))
		}
		comboPrice, err := decimal.NewFromString(product.ComboPrice.Amount)
		if err != nil {
			return nil, future.NewError(future.ValidationError, "ComboPrice Invalid",
				errors.Wrapf(err, "product %d combo price %q", product.ProductId, product.ComboPrice.Amount))
		}
		if comboPrice.IsNegative() {
			return nil, future.NewError(future.ValidationError, "ComboPrice Invalid",
				errors.Errorf("product %d combo price %s is negative", product.ProductId, comboPrice.String()))
		}
		if comboPrice.IsPositive() {
			finalPrice = comboPrice.Round(2)
		}
	}

	savings := price.Sub(finalPrice).Round(2)
	savingsPercentage := decimal.Zero
	if price.IsPositive() {
		savingsPercentage = savings.Div(price).Mul(hundred).Round(2)
	}

	return &PricedProduct{
		ProductId:         product.ProductId,
		Name:              product.Name,
		ListPrice:         entities.Money{Amount: price.StringFixed(2), Currency: product.Price.Currency},
		FinalPrice:        entities.Money{Amount: finalPrice.StringFixed(2), Currency: product.Price.Currency},
		SavingsAmount:     entities.Money{Amount: savings.StringFixed(2), Currency: product.Price.Currency},
		SavingsPercentage: savingsPercentage.StringFixed(2),
		DiscountType:      product.DiscountType,
		BogoConfig:        product.BogoConfig,
		ComboItems:        product.ComboItems,
	}, nil
}

// IsOfferActive reports whether the product's promotion window is still open
// at the given instant. A nil offerValidUntil means no expiry.
func IsOfferActive(product *entities.Product, timestamp time.Time) bool {
	if product == nil || product.DiscountType == entities.DiscountNone {
		return false
	}
	if product.OfferValidUntil == nil {
		return true
	}
	return product.OfferValidUntil.After(timestamp)
}

func parseDiscountValue(product *entities.Product) (decimal.Decimal, future.IErrorFuture) {
	value, err := decimal.NewFromString(product.DiscountValue)
	if err != nil {
		return decimal.Zero, future.NewError(future.ValidationError, "DiscountValue Invalid",
			errors.Wrapf(err, "product %d discount value %q", product.ProductId, product.DiscountValue))
	}
	if value.IsNegative() {
		return decimal.Zero, future.NewError(future.ValidationError, "DiscountValue Invalid",
			errors.Errorf("product %d discount value %s is negative", product.ProductId, value.String()))
	}
	return value, nil
}
