package review_repository

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const (
	collectionName string = "reviews"
)

type iReviewRepositoryImpl struct {
	mongoAdapter *mongoadapter.Mongo
	database     string
	collection   string
}

func NewReviewRepository(mongoDriver *mongoadapter.Mongo, database string) IReviewRepository {
	return &iReviewRepositoryImpl{mongoDriver, database, collectionName}
}

func (repo iReviewRepositoryImpl) Upsert(ctx context.Context, review entities.Review) (*entities.Review, bool, repository.IRepoError) {
	// mongo stores timestamps at millisecond precision, truncate so the
	// created-vs-updated comparison below survives the round trip
	timestamp := time.Now().UTC().Truncate(time.Millisecond)

	opt := options.FindOneAndUpdate()
	opt.SetUpsert(true)
	opt.SetReturnDocument(options.After)

	singleResult := repo.mongoAdapter.GetConn().Database(repo.database).Collection(repo.collection).FindOneAndUpdate(ctx,
		bson.D{{"userId", review.UserId}, {"productId", review.ProductId}},
		bson.D{
			{"$set", bson.D{{"rating", review.Rating}, {"comment", review.Comment}, {"updatedAt", timestamp}}},
			{"$setOnInsert", bson.D{{"reviewId", entities.GenerateOrderId()}, {"createdAt", timestamp}}},
		}, opt)

	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.IsDupError(err) {
			// concurrent first submissions by the same (user, product)
			// raced on the unique index, one insert won, retry as update
			return repo.Upsert(ctx, review)
		}
		return nil, false, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOneAndUpdate Failed"))
	}

	var stored entities.Review
	if err := singleResult.Decode(&stored); err != nil {
		return nil, false, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Review Failed"))
	}

	created := stored.CreatedAt.Equal(timestamp)
	return &stored, created, nil
}

func (repo iReviewRepositoryImpl) FindById(ctx context.Context, reviewId uint64) (*entities.Review, repository.IRepoError) {
	var review entities.Review
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"reviewId", reviewId}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", err)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}

	if err := singleResult.Decode(&review); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Review Failed"))
	}

	return &review, nil
}

func (repo iReviewRepositoryImpl) FindByUserAndProduct(ctx context.Context, userId, productId uint64) (*entities.Review, repository.IRepoError) {
	var review entities.Review
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"userId", userId}, {"productId", productId}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", err)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}

	if err := singleResult.Decode(&review); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Review Failed"))
	}

	return &review, nil
}

func (repo iReviewRepositoryImpl) FindAllByProductId(ctx context.Context, productId uint64) ([]*entities.Review, repository.IRepoError) {
	cursor, err := repo.mongoAdapter.FindMany(repo.database, repo.collection, bson.D{{"productId", productId}})
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindMany Failed"))
	}

	defer closeCursor(ctx, cursor)
	reviews := make([]*entities.Review, 0, 16)

	for cursor.Next(ctx) {
		var review entities.Review
		if err := cursor.Decode(&review); err != nil {
			return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Review Failed"))
		}
		reviews = append(reviews, &review)
	}

	return reviews, nil
}

func (repo iReviewRepositoryImpl) RatingsByProductId(ctx context.Context, productId uint64) ([]float64, repository.IRepoError) {
	pipeline := []bson.M{
		{"$match": bson.M{"productId": productId}},
		{"$project": bson.M{"_id": 0, "rating": 1}},
	}

	cursor, err := repo.mongoAdapter.Aggregate(repo.database, repo.collection, pipeline)
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Aggregate Failed"))
	}

	defer closeCursor(ctx, cursor)
	ratings := make([]float64, 0, 16)

	for cursor.Next(ctx) {
		var doc struct {
			Rating int32 `bson:"rating"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Rating Failed"))
		}
		ratings = append(ratings, float64(doc.Rating))
	}

	return ratings, nil
}

func (repo iReviewRepositoryImpl) RemoveById(ctx context.Context, reviewId uint64) repository.IRepoError {
	result, err := repo.mongoAdapter.DeleteOne(repo.database, repo.collection, bson.M{"reviewId": reviewId})
	if err != nil {
		return repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "DeleteOne Failed"))
	}

	if result.DeletedCount != 1 {
		return repository.ErrorFactory(repository.NotFoundErr, "Review Not Found", errors.New("remove review failed"))
	}

	return nil
}

func (repo iReviewRepositoryImpl) CountByProductId(ctx context.Context, productId uint64) (int64, repository.IRepoError) {
	total, err := repo.mongoAdapter.Count(repo.database, repo.collection, bson.D{{"productId", productId}})
	if err != nil {
		return 0, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Count Failed"))
	}
	return total, nil
}

func closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	err := cursor.Close(ctx)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cursor.Close failed",
			"fn", "closeCursor",
			"error", err)
	}
}
