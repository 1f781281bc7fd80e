package review_repository

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
)

type IReviewRepository interface {
	// Upsert writes the review keyed on (userId, productId). A second
	// submission by the same user replaces rating and comment on the
	// existing document instead of inserting a duplicate. The returned
	// bool reports whether a new document was created.
	Upsert(ctx context.Context, review entities.Review) (*entities.Review, bool, repository.IRepoError)

	FindById(ctx context.Context, reviewId uint64) (*entities.Review, repository.IRepoError)

	FindByUserAndProduct(ctx context.Context, userId, productId uint64) (*entities.Review, repository.IRepoError)

	FindAllByProductId(ctx context.Context, productId uint64) ([]*entities.Review, repository.IRepoError)

	// RatingsByProductId returns only the rating values of the current
	// review set of a product.
	RatingsByProductId(ctx context.Context, productId uint64) ([]float64, repository.IRepoError)

	RemoveById(ctx context.Context, reviewId uint64) repository.IRepoError

	CountByProductId(ctx context.Context, productId uint64) (int64, repository.IRepoError)
}
