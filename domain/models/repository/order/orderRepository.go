package order_repository

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
)

// Orders are a historical record, the repository has no delete operations.
type IOrderRepository interface {
	Save(ctx context.Context, order entities.Order) (*entities.Order, repository.IRepoError)

	FindById(ctx context.Context, orderId uint64) (*entities.Order, repository.IRepoError)

	FindByBuyerIdWithPage(ctx context.Context, buyerId uint64, page, perPage int64) ([]*entities.Order, int64, repository.IRepoError)

	ExistsById(ctx context.Context, orderId uint64) (bool, repository.IRepoError)

	// UpdateStatus is a guarded write, the update only applies when the
	// persisted status still equals expected. NotFoundErr signals the
	// guard missed, the caller decides between unknown order and stale
	// transition.
	UpdateStatus(ctx context.Context, orderId uint64, expected, target entities.OrderStatus) (*entities.Order, repository.IRepoError)

	Count(ctx context.Context) (int64, repository.IRepoError)
}
