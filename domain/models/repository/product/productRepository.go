package product_repository

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
)

type IProductRepository interface {
	Save(ctx context.Context, product entities.Product) (*entities.Product, repository.IRepoError)

	FindById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError)

	FindAllIds(ctx context.Context) ([]uint64, repository.IRepoError)

	ExistsById(ctx context.Context, productId uint64) (bool, repository.IRepoError)

	// UpdateRating writes only the aggregate fields, it never touches the
	// rest of the document.
	UpdateRating(ctx context.Context, productId uint64, rating float64, numReviews int32) repository.IRepoError

	// only set DeletedAt field
	DeleteById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError)

	Count(ctx context.Context) (int64, repository.IRepoError)
}
