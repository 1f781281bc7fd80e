package rating

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/go-framework/logger"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	user_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/user"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	applog.GLog.ZapLogger = applog.InitZap()
	applog.GLog.Logger = logger.NewZapLogger(applog.GLog.ZapLogger)
	os.Exit(m.Run())
}

type fakeReviewRepository struct {
	mutex   sync.Mutex
	nextId  uint64
	reviews map[uint64]*entities.Review
}

func newFakeReviewRepository() *fakeReviewRepository {
	return &fakeReviewRepository{nextId: 1, reviews: make(map[uint64]*entities.Review)}
}

func (repo *fakeReviewRepository) Upsert(ctx context.Context, review entities.Review) (*entities.Review, bool, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, stored := range repo.reviews {
		if stored.UserId == review.UserId && stored.ProductId == review.ProductId {
			stored.Rating = review.Rating
			stored.Comment = review.Comment
			stored.UpdatedAt = time.Now().UTC()
			copied := *stored
			return &copied, false, nil
		}
	}
	review.ReviewId = repo.nextId
	repo.nextId++
	review.UpdatedAt = review.CreatedAt
	repo.reviews[review.ReviewId] = &review
	copied := review
	return &copied, true, nil
}

func (repo *fakeReviewRepository) FindById(ctx context.Context, reviewId uint64) (*entities.Review, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	review, ok := repo.reviews[reviewId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", nil)
	}
	copied := *review
	return &copied, nil
}

func (repo *fakeReviewRepository) FindByUserAndProduct(ctx context.Context, userId, productId uint64) (*entities.Review, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, review := range repo.reviews {
		if review.UserId == userId && review.ProductId == productId {
			copied := *review
			return &copied, nil
		}
	}
	return nil, repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", nil)
}

func (repo *fakeReviewRepository) FindAllByProductId(ctx context.Context, productId uint64) ([]*entities.Review, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	result := make([]*entities.Review, 0)
	for _, review := range repo.reviews {
		if review.ProductId == productId {
			copied := *review
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (repo *fakeReviewRepository) RatingsByProductId(ctx context.Context, productId uint64) ([]float64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	ratings := make([]float64, 0)
	for _, review := range repo.reviews {
		if review.ProductId == productId {
			ratings = append(ratings, float64(review.Rating))
		}
	}
	return ratings, nil
}

func (repo *fakeReviewRepository) RemoveById(ctx context.Context, reviewId uint64) repository.IRepoError {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	if _, ok := repo.reviews[reviewId]; !ok {
		return repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", nil)
	}
	delete(repo.reviews, reviewId)
	return nil
}

func (repo *fakeReviewRepository) CountByProductId(ctx context.Context, productId uint64) (int64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	count := int64(0)
	for _, review := range repo.reviews {
		if review.ProductId == productId {
			count++
		}
	}
	return count, nil
}

type fakeProductRepository struct {
	mutex    sync.Mutex
	products map[uint64]*entities.Product
}

func newFakeProductRepository(productIds ...uint64) *fakeProductRepository {
	repo := &fakeProductRepository{products: make(map[uint64]*entities.Product)}
	for _, productId := range productIds {
		repo.products[productId] = &entities.Product{ProductId: productId, Name: fmt.Sprintf("product-%d", productId)}
	}
	return repo
}

func (repo *fakeProductRepository) Save(ctx context.Context, product entities.Product) (*entities.Product, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.products[product.ProductId] = &product
	copied := product
	return &copied, nil
}

func (repo *fakeProductRepository) FindById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	product, ok := repo.products[productId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", nil)
	}
	copied := *product
	return &copied, nil
}

func (repo *fakeProductRepository) FindAllIds(ctx context.Context) ([]uint64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	ids := make([]uint64, 0, len(repo.products))
	for productId := range repo.products {
		ids = append(ids, productId)
	}
	return ids, nil
}

func (repo *fakeProductRepository) ExistsById(ctx context.Context, productId uint64) (bool, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	_, ok := repo.products[productId]
	return ok, nil
}

func (repo *fakeProductRepository) UpdateRating(ctx context.Context, productId uint64, rating float64, numReviews int32) repository.IRepoError {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	product, ok := repo.products[productId]
	if !ok {
		return repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", nil)
	}
	product.Rating = rating
	product.NumReviews = numReviews
	return nil
}

func (repo *fakeProductRepository) DeleteById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError) {
	return nil, repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", nil)
}

func (repo *fakeProductRepository) Count(ctx context.Context) (int64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	return int64(len(repo.products)), nil
}

const testProductId uint64 = 1000002

func TestSubmitFirstReview(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	review, created, err := service.SubmitReview(ctx, 900001, testProductId, 4, "tasty")
	require.Nil(t, err)
	require.True(t, created)
	require.Equal(t, int32(4), review.Rating)

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, 4.0, product.Rating)
	require.Equal(t, int32(1), product.NumReviews)
}

func TestSubmitRoundsMeanToOneDecimal(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	for userId, ratingValue := range map[uint64]int32{900001: 2, 900002: 3, 900003: 3} {
		_, _, err := service.SubmitReview(ctx, userId, testProductId, ratingValue, "")
		require.Nil(t, err)
	}

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	// mean 2.666... rounds to 2.7
	require.Equal(t, 2.7, product.Rating)
	require.Equal(t, int32(3), product.NumReviews)
}

func TestResubmitUpdatesExistingReview(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	first, created, err := service.SubmitReview(ctx, 900001, testProductId, 2, "cold")
	require.Nil(t, err)
	require.True(t, created)

	second, created, err := service.SubmitReview(ctx, 900001, testProductId, 5, "much better now")
	require.Nil(t, err)
	require.False(t, created)
	require.Equal(t, first.ReviewId, second.ReviewId)

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, 5.0, product.Rating)
	require.Equal(t, int32(1), product.NumReviews)
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository(testProductId))

	for _, ratingValue := range []int32{0, -1, 6} {
		_, _, err := service.SubmitReview(context.Background(), 900001, testProductId, ratingValue, "")
		require.NotNil(t, err)
		require.Equal(t, future.ValidationError, err.Code())
	}
}

func TestSubmitRejectsOverlongComment(t *testing.T) {
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository(testProductId))

	_, _, err := service.SubmitReview(context.Background(), 900001, testProductId, 4,
		strings.Repeat("x", entities.ReviewCommentMaxLen+1))
	require.NotNil(t, err)
	require.Equal(t, future.ValidationError, err.Code())
}

func TestSubmitUnknownProduct(t *testing.T) {
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository())

	_, _, err := service.SubmitReview(context.Background(), 900001, testProductId, 4, "")
	require.NotNil(t, err)
	require.Equal(t, future.NotFound, err.Code())
}

func TestRemoveReviewRecomputesAggregate(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	review, _, err := service.SubmitReview(ctx, 900001, testProductId, 2, "")
	require.Nil(t, err)
	_, _, err = service.SubmitReview(ctx, 900002, testProductId, 5, "")
	require.Nil(t, err)

	removeErr := service.RemoveReview(ctx, review.ReviewId, 900001, user_service.RoleCustomer)
	require.Nil(t, removeErr)

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, 5.0, product.Rating)
	require.Equal(t, int32(1), product.NumReviews)
}

func TestRemoveLastReviewZeroesAggregate(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	review, _, err := service.SubmitReview(ctx, 900001, testProductId, 4, "")
	require.Nil(t, err)

	removeErr := service.RemoveReview(ctx, review.ReviewId, 900001, user_service.RoleCustomer)
	require.Nil(t, removeErr)

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, 0.0, product.Rating)
	require.Equal(t, int32(0), product.NumReviews)
}

func TestRemoveReviewByStranger(t *testing.T) {
	ctx := context.Background()
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository(testProductId))

	review, _, err := service.SubmitReview(ctx, 900001, testProductId, 4, "")
	require.Nil(t, err)

	removeErr := service.RemoveReview(ctx, review.ReviewId, 900099, user_service.RoleCustomer)
	require.NotNil(t, removeErr)
	require.Equal(t, future.Forbidden, removeErr.Code())
}

func TestRemoveReviewByAdmin(t *testing.T) {
	ctx := context.Background()
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository(testProductId))

	review, _, err := service.SubmitReview(ctx, 900001, testProductId, 4, "")
	require.Nil(t, err)

	removeErr := service.RemoveReview(ctx, review.ReviewId, 900099, user_service.RoleAdmin)
	require.Nil(t, removeErr)
}

func TestRemoveUnknownReview(t *testing.T) {
	service := NewRatingService(newFakeReviewRepository(), newFakeProductRepository(testProductId))

	removeErr := service.RemoveReview(context.Background(), 424242, 900001, user_service.RoleCustomer)
	require.NotNil(t, removeErr)
	require.Equal(t, future.NotFound, removeErr.Code())
}

func TestConcurrentSubmitsKeepAggregateExact(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	const workers = 20
	var waitGroup sync.WaitGroup
	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func(userId uint64, ratingValue int32) {
			defer waitGroup.Done()
			_, _, err := service.SubmitReview(ctx, userId, testProductId, ratingValue, "")
			require.Nil(t, err)
		}(uint64(900001+i), int32(i%5+1))
	}
	waitGroup.Wait()

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, int32(workers), product.NumReviews)
	// four full cycles of 1..5 average out to 3
	require.Equal(t, 3.0, product.Rating)
}

func TestConcurrentSubmitsAcrossStripeSharingProducts(t *testing.T) {
	ctx := context.Background()
	// both ids map onto the same lock stripe
	otherProductId := testProductId + productLockStripes
	productRepo := newFakeProductRepository(testProductId, otherProductId)
	service := NewRatingService(newFakeReviewRepository(), productRepo)

	const workersPerProduct = 10
	var waitGroup sync.WaitGroup
	for i := 0; i < workersPerProduct; i++ {
		waitGroup.Add(1)
		go func(userId uint64) {
			defer waitGroup.Done()
			_, _, err := service.SubmitReview(ctx, userId, testProductId, 4, "")
			require.Nil(t, err)
		}(uint64(900001 + i))
		waitGroup.Add(1)
		go func(userId uint64) {
			defer waitGroup.Done()
			_, _, err := service.SubmitReview(ctx, userId, otherProductId, 2, "")
			require.Nil(t, err)
		}(uint64(900001 + i))
	}
	waitGroup.Wait()

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, int32(workersPerProduct), product.NumReviews)
	require.Equal(t, 4.0, product.Rating)

	other, repoErr := productRepo.FindById(ctx, otherProductId)
	require.Nil(t, repoErr)
	require.Equal(t, int32(workersPerProduct), other.NumReviews)
	require.Equal(t, 2.0, other.Rating)
}

func TestReconcileAllRepairsDrift(t *testing.T) {
	ctx := context.Background()
	productRepo := newFakeProductRepository(testProductId, testProductId+1)
	reviewRepo := newFakeReviewRepository()
	service := NewRatingService(reviewRepo, productRepo)

	_, _, err := service.SubmitReview(ctx, 900001, testProductId, 4, "")
	require.Nil(t, err)

	// simulate drift from a manual data fix
	require.Nil(t, productRepo.UpdateRating(ctx, testProductId, 1.0, 99))

	require.Nil(t, service.ReconcileAll(ctx))

	product, repoErr := productRepo.FindById(ctx, testProductId)
	require.Nil(t, repoErr)
	require.Equal(t, 4.0, product.Rating)
	require.Equal(t, int32(1), product.NumReviews)

	untouched, repoErr := productRepo.FindById(ctx, testProductId+1)
	require.Nil(t, repoErr)
	require.Equal(t, 0.0, untouched.Rating)
	require.Equal(t, int32(0), untouched.NumReviews)
}
