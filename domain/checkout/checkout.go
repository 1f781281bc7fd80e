package checkout

import (
	"context"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	order_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/order"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	cart_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/cart"
	"time"
)

type ICheckoutService interface {
	// Checkout snapshots the user's populated cart into a new pending
	// order. Item name, image and price are captured at this moment and
	// never refreshed from the catalog. The originating cart is cleared
	// after the order is stored, a failed clear is logged, not surfaced.
	Checkout(ctx context.Context, buyerId uint64) (*entities.Order, future.IErrorFuture)
}

type checkoutService struct {
	cartService     cart_service.ICartService
	orderRepository order_repository.IOrderRepository
	taxRatePercent  string
	currency        string
}

func NewCheckoutService(cartService cart_service.ICartService,
	orderRepository order_repository.IOrderRepository,
	taxRatePercent, currency string) ICheckoutService {
	return &checkoutService{
		cartService:     cartService,
		orderRepository: orderRepository,
		taxRatePercent:  taxRatePercent,
		currency:        currency,
	}
}

func (service checkoutService) Checkout(ctx context.Context, buyerId uint64) (*entities.Order, future.IErrorFuture) {
	taxRate, err := decimal.NewFromString(service.taxRatePercent)
	if err != nil || taxRate.IsNegative() {
		applog.GLog.Logger.FromContext(ctx).Error("tax rate misconfigured",
			"fn", "Checkout", "taxRatePercent", service.taxRatePercent, "error", err)
		return nil, future.NewError(future.InternalError, "Unknown Error",
			errors.Errorf("tax rate %q invalid", service.taxRatePercent))
	}

	cartData := service.cartService.GetPopulated(ctx, buyerId).Get()
	if cartData.Error() != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cartService.GetPopulated failed",
			"fn", "Checkout", "uid", buyerId, "error", cartData.Error())
		return nil, cartData.Error()
	}

	cart := cartData.Data().(*cart_service.PopulatedCart)
	if len(cart.Items) == 0 {
		return nil, future.NewError(future.ValidationError, "Cart Empty",
			errors.Errorf("user %d cart has no items", buyerId))
	}

	items := make([]entities.OrderItem, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, line := range cart.Items {
		if line.Quantity < 1 {
			return nil, future.NewError(future.ValidationError, "Quantity Invalid",
				errors.Errorf("product %d quantity %d must be at least 1", line.ProductId, line.Quantity))
		}

		// the snapshot keeps the catalog list price; promotional pricing
		// stays a display concern and is not charged here
		price, err := decimal.NewFromString(line.Price.Amount)
		if err != nil || price.IsNegative() {
			return nil, future.NewError(future.ValidationError, "Price Invalid",
				errors.Errorf("product %d price %q invalid", line.ProductId, line.Price.Amount))
		}

		subtotal = subtotal.Add(price.Mul(decimal.New(int64(line.Quantity), 0)))
		items = append(items, entities.OrderItem{
			ProductId: line.ProductId,
			Name:      line.Name,
			Image:     line.Image,
			Price:     entities.Money{Amount: price.StringFixed(2), Currency: service.currency},
			Quantity:  line.Quantity,
		})
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Div(decimal.New(100, 0)).Round(2)
	grandTotal := subtotal.Add(tax)

	timestamp := time.Now().UTC()
	order := entities.Order{
		DocVersion: entities.DocumentVersion,
		BuyerId:    buyerId,
		Items:      items,
		Status:     entities.OrderPending,
		Invoice: entities.Invoice{
			Subtotal:       entities.Money{Amount: subtotal.StringFixed(2), Currency: service.currency},
			Tax:            entities.Money{Amount: tax.StringFixed(2), Currency: service.currency},
			GrandTotal:     entities.Money{Amount: grandTotal.StringFixed(2), Currency: service.currency},
			TaxRatePercent: taxRate.String(),
		},
		IsPaid:    false,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}

	storedOrder, repoErr := service.orderRepository.Save(ctx, order)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("orderRepository.Save failed",
			"fn", "Checkout", "uid", buyerId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	if clearData := service.cartService.Clear(ctx, buyerId).Get(); clearData.Error() != nil {
		applog.GLog.Logger.FromContext(ctx).Warn("cartService.Clear failed",
			"fn", "Checkout", "uid", buyerId, "oid", storedOrder.OrderId, "error", clearData.Error())
	}

	applog.GLog.Logger.FromContext(ctx).Info("order created",
		"fn", "Checkout", "uid", buyerId, "oid", storedOrder.OrderId,
		"grandTotal", storedOrder.Invoice.GrandTotal.Amount)
	return storedOrder, nil
}
