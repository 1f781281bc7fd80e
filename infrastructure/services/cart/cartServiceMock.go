package cart_service

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	"sync"
)

// iCartServiceMock holds populated carts in memory, used when
// CartService.MockEnabled is set and by service tests.
type iCartServiceMock struct {
	mutex sync.Mutex
	carts map[uint64]*PopulatedCart
}

func NewCartServiceMock() ICartService {
	return &iCartServiceMock{carts: make(map[uint64]*PopulatedCart)}
}

// SeedCart installs a populated cart for a user, replacing any existing one.
func SeedCart(service ICartService, cart PopulatedCart) {
	mock, ok := service.(*iCartServiceMock)
	if !ok {
		return
	}
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.carts[cart.UserId] = &cart
}

func (cart *iCartServiceMock) GetPopulated(ctx context.Context, userId uint64) future.IFuture {
	cart.mutex.Lock()
	defer cart.mutex.Unlock()
	stored, ok := cart.carts[userId]
	if !ok {
		return future.Factory().SetCapacity(1).
			SetData(&PopulatedCart{UserId: userId, Items: []PopulatedCartItem{}}).
			BuildAndSend()
	}
	copied := *stored
	copied.Items = append([]PopulatedCartItem(nil), stored.Items...)
	return future.Factory().SetCapacity(1).SetData(&copied).BuildAndSend()
}

func (cart *iCartServiceMock) AddItem(ctx context.Context, userId, productId uint64, quantity int32) future.IFuture {
	if quantity < 1 {
		return future.Factory().SetCapacity(1).
			SetError(future.ValidationError, "Quantity Invalid",
				errors.Errorf("quantity %d must be at least 1", quantity)).
			BuildAndSend()
	}

	cart.mutex.Lock()
	defer cart.mutex.Unlock()
	stored, ok := cart.carts[userId]
	if !ok {
		stored = &PopulatedCart{UserId: userId}
		cart.carts[userId] = stored
	}
	for i := range stored.Items {
		if stored.Items[i].ProductId == productId {
			stored.Items[i].Quantity += quantity
			return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
		}
	}
	stored.Items = append(stored.Items, PopulatedCartItem{ProductId: productId, Quantity: quantity})
	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}

func (cart *iCartServiceMock) RemoveItem(ctx context.Context, userId, productId uint64) future.IFuture {
	cart.mutex.Lock()
	defer cart.mutex.Unlock()
	stored, ok := cart.carts[userId]
	if ok {
		items := stored.Items[:0]
		for _, item := range stored.Items {
			if item.ProductId != productId {
				items = append(items, item)
			}
		}
		stored.Items = items
	}
	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}

func (cart *iCartServiceMock) Clear(ctx context.Context, userId uint64) future.IFuture {
	cart.mutex.Lock()
	defer cart.mutex.Unlock()
	delete(cart.carts, userId)
	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}
