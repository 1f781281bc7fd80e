package product_repository

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"time"
)

const (
	collectionName string = "products"
)

type iProductRepositoryImpl struct {
	mongoAdapter *mongoadapter.Mongo
	database     string
	collection   string
}

func NewProductRepository(mongoDriver *mongoadapter.Mongo, database string) IProductRepository {
	return &iProductRepositoryImpl{mongoDriver, database, collectionName}
}

func (repo iProductRepositoryImpl) Save(ctx context.Context, product entities.Product) (*entities.Product, repository.IRepoError) {

	if product.ProductId == 0 {
		product.ProductId = entities.GenerateOrderId()
		product.DocVersion = entities.DocumentVersion
		product.Version = 1
		product.CreatedAt = time.Now().UTC()
		product.UpdatedAt = product.CreatedAt

		var insertOneResult, err = repo.mongoAdapter.InsertOne(repo.database, repo.collection, &product)
		if err != nil {
			if repo.mongoAdapter.IsDupError(err) {
				for repo.mongoAdapter.IsDupError(err) {
					product.ProductId = entities.GenerateOrderId()
					insertOneResult, err = repo.mongoAdapter.InsertOne(repo.database, repo.collection, &product)
				}
			}
			if err != nil {
				return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "InsertOne Failed"))
			}
		}
		product.ID = insertOneResult.InsertedID.(primitive.ObjectID)
		return &product, nil
	}

	currentVersion := product.Version
	product.Version += 1
	product.UpdatedAt = time.Now().UTC()

	updateResult, err := repo.mongoAdapter.UpdateOne(repo.database, repo.collection,
		bson.D{{"productId", product.ProductId}, {"version", currentVersion}, {"deletedAt", nil}},
		bson.D{{"$set", product}})
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "UpdateOne Failed"))
	}

	if updateResult.ModifiedCount != 1 {
		applog.GLog.Logger.FromContext(ctx).Error("product version obsolete",
			"fn", "Save",
			"productId", product.ProductId,
			"version", currentVersion)
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", repository.ErrorVersionUpdateFailed)
	}

	return &product, nil
}

func (repo iProductRepositoryImpl) FindById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError) {
	var product entities.Product
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"productId", productId}, {"deletedAt", nil}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", err)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}

	if err := singleResult.Decode(&product); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Product Failed"))
	}

	return &product, nil
}

func (repo iProductRepositoryImpl) FindAllIds(ctx context.Context) ([]uint64, repository.IRepoError) {
	pipeline := []bson.M{
		{"$match": bson.M{"deletedAt": nil}},
		{"$project": bson.M{"_id": 0, "productId": 1}},
	}

	cursor, err := repo.mongoAdapter.Aggregate(repo.database, repo.collection, pipeline)
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Aggregate Failed"))
	}

	defer closeCursor(ctx, cursor)
	productIds := make([]uint64, 0, 64)

	for cursor.Next(ctx) {
		var doc struct {
			ProductId uint64 `bson:"productId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode ProductId Failed"))
		}
		productIds = append(productIds, doc.ProductId)
	}

	return productIds, nil
}

func (repo iProductRepositoryImpl) ExistsById(ctx context.Context, productId uint64) (bool, repository.IRepoError) {
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"productId", productId}, {"deletedAt", nil}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return false, nil
		}
		return false, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}
	return true, nil
}

func (repo iProductRepositoryImpl) UpdateRating(ctx context.Context, productId uint64, rating float64, numReviews int32) repository.IRepoError {
	updateResult, err := repo.mongoAdapter.UpdateOne(repo.database, repo.collection,
		bson.D{{"productId", productId}, {"deletedAt", nil}},
		bson.D{
			{"$set", bson.D{{"rating", rating}, {"numReviews", numReviews}, {"updatedAt", time.Now().UTC()}}},
			{"$inc", bson.D{{"version", 1}}},
		})
	if err != nil {
		return repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "UpdateOne Failed"))
	}

	if updateResult.MatchedCount != 1 {
		return repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", repository.ErrorUpdateFailed)
	}

	return nil
}

func (repo iProductRepositoryImpl) DeleteById(ctx context.Context, productId uint64) (*entities.Product, repository.IRepoError) {
	product, repoErr := repo.FindById(ctx, productId)
	if repoErr != nil {
		return nil, repoErr
	}

	deletedAt := time.Now().UTC()
	product.DeletedAt = &deletedAt
	product.Version += 1

	updateResult, err := repo.mongoAdapter.UpdateOne(repo.database, repo.collection,
		bson.D{{"productId", product.ProductId}, {"deletedAt", nil}},
		bson.D{{"$set", product}})
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "UpdateOne Failed"))
	}

	if updateResult.ModifiedCount != 1 {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Product Not Found", repository.ErrorUpdateFailed)
	}

	return product, nil
}

func (repo iProductRepositoryImpl) Count(ctx context.Context) (int64, repository.IRepoError) {
	total, err := repo.mongoAdapter.Count(repo.database, repo.collection, bson.D{{"deletedAt", nil}})
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
