package rating

import (
	"context"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	product_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/product"
	review_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/review"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	user_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/user"
	"golang.org/x/sync/errgroup"
	"math"
	"strings"
	"sync"
	"time"
)

type IRatingService interface {
	// SubmitReview stores a review for (userId, productId). A repeated
	// submission by the same user updates the existing review. The bool
	// reports whether a new review was created. The product's rating and
	// numReviews are recomputed from the full review set before return.
	SubmitReview(ctx context.Context, userId, productId uint64, ratingValue int32, comment string) (*entities.Review, bool, future.IErrorFuture)

	// RemoveReview deletes a review. Only the review's author or a
	// requester with the admin role may delete it.
	RemoveReview(ctx context.Context, reviewId, requesterId uint64, requesterRole string) future.IErrorFuture

	ListReviews(ctx context.Context, productId uint64) ([]*entities.Review, future.IErrorFuture)

	// ReconcileAll recomputes the aggregate of every product, used to
	// repair drift after manual data fixes. Products are processed
	// concurrently, the first failure cancels the rest.
	ReconcileAll(ctx context.Context) future.IErrorFuture
}

const reconcileConcurrency = 8

// productLockStripes bounds the lock table regardless of catalog size. Two
// products sharing a stripe serialize against each other, which is safe, only
// slightly coarser.
const productLockStripes = 64

type ratingService struct {
	reviewRepository  review_repository.IReviewRepository
	productRepository product_repository.IProductRepository

	// serializes the recompute-and-persist cycle per product so
	// concurrent reviews on the same product cannot interleave
	productLocks [productLockStripes]sync.Mutex
}

func NewRatingService(reviewRepository review_repository.IReviewRepository,
	productRepository product_repository.IProductRepository) IRatingService {
	return &ratingService{
		reviewRepository:  reviewRepository,
		productRepository: productRepository,
	}
}

func (service *ratingService) lockProduct(productId uint64) *sync.Mutex {
	lock := &service.productLocks[productId%productLockStripes]
	lock.Lock()
	return lock
}

func (service *ratingService) SubmitReview(ctx context.Context, userId, productId uint64, ratingValue int32, comment string) (*entities.Review, bool, future.IErrorFuture) {
	if ratingValue < entities.ReviewMinRating || ratingValue > entities.ReviewMaxRating {
		return nil, false, future.NewError(future.ValidationError, "Rating Out Of Range",
			errors.Errorf("rating %d must be between %d and %d",
				ratingValue, entities.ReviewMinRating, entities.ReviewMaxRating))
	}

	comment = strings.TrimSpace(comment)
	if len(comment) > entities.ReviewCommentMaxLen {
		return nil, false, future.NewError(future.ValidationError, "Comment Too Long",
			errors.Errorf("comment length %d exceeds %d", len(comment), entities.ReviewCommentMaxLen))
	}

	exists, repoErr := service.productRepository.ExistsById(ctx, productId)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("productRepository.ExistsById failed",
			"fn", "SubmitReview", "pid", productId, "error", repoErr)
		return nil, false, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}
	if !exists {
		return nil, false, future.NewError(future.NotFound, "Product Not Found",
			errors.Errorf("product %d not found", productId))
	}

	lock := service.lockProduct(productId)
	defer lock.Unlock()

	review, created, repoErr := service.reviewRepository.Upsert(ctx, entities.Review{
		UserId:    userId,
		ProductId: productId,
		Rating:    ratingValue,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("reviewRepository.Upsert failed",
			"fn", "SubmitReview", "uid", userId, "pid", productId, "error", repoErr)
		return nil, false, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	if err := service.recompute(ctx, productId); err != nil {
		return nil, false, err
	}

	return review, created, nil
}

func (service *ratingService) RemoveReview(ctx context.Context, reviewId, requesterId uint64, requesterRole string) future.IErrorFuture {
	review, repoErr := service.reviewRepository.FindById(ctx, reviewId)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return future.NewError(future.NotFound, "Review Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("reviewRepository.FindById failed",
			"fn", "RemoveReview", "rid", reviewId, "error", repoErr)
		return future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	if review.UserId != requesterId && requesterRole != user_service.RoleAdmin {
		return future.NewError(future.Forbidden, "User Not Authorized",
			errors.Errorf("user %d cannot delete review %d", requesterId, reviewId))
	}

	lock := service.lockProduct(review.ProductId)
	defer lock.Unlock()

	if repoErr := service.reviewRepository.RemoveById(ctx, reviewId); repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return future.NewError(future.NotFound, "Review Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("reviewRepository.RemoveById failed",
			"fn", "RemoveReview", "rid", reviewId, "error", repoErr)
		return future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	return service.recompute(ctx, review.ProductId)
}

func (service *ratingService) ListReviews(ctx context.Context, productId uint64) ([]*entities.Review, future.IErrorFuture) {
	reviews, repoErr := service.reviewRepository.FindAllByProductId(ctx, productId)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("reviewRepository.FindAllByProductId failed",
			"fn", "ListReviews", "pid", productId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}
	return reviews, nil
}

func (service *ratingService) ReconcileAll(ctx context.Context) future.IErrorFuture {
	productIds, repoErr := service.productRepository.FindAllIds(ctx)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("productRepository.FindAllIds failed",
			"fn", "ReconcileAll", "error", repoErr)
		return future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	group, groupCtx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, reconcileConcurrency)
	for _, productId := range productIds {
		productId := productId
		group.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lock := service.lockProduct(productId)
			defer lock.Unlock()
			return service.recompute(groupCtx, productId)
		})
	}

	if err := group.Wait(); err != nil {
		if errFuture, ok := err.(future.IErrorFuture); ok {
			return errFuture
		}
		return future.NewError(future.InternalError, "Unknown Error", err)
	}
	return nil
}

// recompute derives rating and numReviews from the full current review set
// and persists them, retrying once on a transient failure. Callers must hold
// the product lock.
func (service *ratingService) recompute(ctx context.Context, productId uint64) future.IErrorFuture {
	err := service.recomputeOnce(ctx, productId)
	if err != nil && err.Code() == future.InternalError {
		err = service.recomputeOnce(ctx, productId)
	}
	return err
}

func (service *ratingService) recomputeOnce(ctx context.Context, productId uint64) future.IErrorFuture {
	ratings, repoErr := service.reviewRepository.RatingsByProductId(ctx, productId)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("reviewRepository.RatingsByProductId failed",
			"fn", "recompute", "pid", productId, "error", repoErr)
		return future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	aggregate := float64(0)
	if len(ratings) > 0 {
		mean, err := stats.Mean(ratings)
		if err != nil {
			return future.NewError(future.InternalError, "Unknown Error",
				errors.Wrapf(err, "mean of product %d ratings", productId))
		}
		aggregate = math.Round(mean*10) / 10
	}

	if repoErr := service.productRepository.UpdateRating(ctx, productId, aggregate, int32(len(ratings))); repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("productRepository.UpdateRating failed",
			"fn", "recompute", "pid", productId, "error", repoErr)
		return future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	return nil
}
