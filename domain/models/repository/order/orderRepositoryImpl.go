package order_repository

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
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const (
	collectionName string = "orders"
)

type iOrderRepositoryImpl struct {
	mongoAdapter *mongoadapter.Mongo
	database     string
	collection   string
}

func NewOrderRepository(mongoDriver *mongoadapter.Mongo, database string) IOrderRepository {
	return &iOrderRepositoryImpl{mongoDriver, database, collectionName}
}

func (repo iOrderRepositoryImpl) Save(ctx context.Context, order entities.Order) (*entities.Order, repository.IRepoError) {

	if order.OrderId == 0 {
		order.OrderId = entities.GenerateOrderId()
		order.DocVersion = entities.DocumentVersion
		order.Version = 1
		order.CreatedAt = time.Now().UTC()
		order.UpdatedAt = order.CreatedAt

		var insertOneResult, err = repo.mongoAdapter.InsertOne(repo.database, repo.collection, &order)
		if err != nil {
			if repo.mongoAdapter.IsDupError(err) {
				for repo.mongoAdapter.IsDupError(err) {
					order.OrderId = entities.GenerateOrderId()
					insertOneResult, err = repo.mongoAdapter.InsertOne(repo.database, repo.collection, &order)
				}
			}
			if err != nil {
				return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "InsertOne Failed"))
			}
		}
		order.ID = insertOneResult.InsertedID.(primitive.ObjectID)
		return &order, nil
	}

	currentVersion := order.Version
	order.Version += 1
	order.UpdatedAt = time.Now().UTC()

	updateResult, err := repo.mongoAdapter.UpdateOne(repo.database, repo.collection,
		bson.D{{"orderId", order.OrderId}, {"version", currentVersion}},
		bson.D{{"$set", order}})
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "UpdateOne Failed"))
	}

	if updateResult.ModifiedCount != 1 {
		applog.GLog.Logger.FromContext(ctx).Error("order version obsolete",
			"fn", "Save",
			"orderId", order.OrderId,
			"version", currentVersion)
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", repository.ErrorVersionUpdateFailed)
	}

	return &order, nil
}

func (repo iOrderRepositoryImpl) FindById(ctx context.Context, orderId uint64) (*entities.Order, repository.IRepoError) {
	var order entities.Order
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"orderId", orderId}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", err)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}

	if err := singleResult.Decode(&order); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Order Failed"))
	}

	return &order, nil
}

func (repo iOrderRepositoryImpl) FindByBuyerIdWithPage(ctx context.Context, buyerId uint64, page, perPage int64) ([]*entities.Order, int64, repository.IRepoError) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, repository.ErrorFactory(repository.BadRequestErr, "Request Operation Failed", errors.New("neither offset nor start can be zero"))
	}

	filter := bson.D{{"buyerId", buyerId}}
	totalCount, err := repo.mongoAdapter.Count(repo.database, repo.collection, filter)
	if err != nil {
		return nil, 0, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Count Failed"))
	}

	if totalCount == 0 {
		return nil, 0, nil
	}

	var availablePages int64
	if totalCount%perPage != 0 {
		availablePages = (totalCount / perPage) + 1
	} else {
		availablePages = totalCount / perPage
	}

	if totalCount < perPage {
		availablePages = 1
	}

	if availablePages < page {
		return nil, availablePages, repository.ErrorFactory(repository.NotFoundErr, "Page Not Available", repository.ErrorPageNotAvailable)
	}

	var offset = (page - 1) * perPage
	if offset >= totalCount {
		return nil, availablePages, repository.ErrorFactory(repository.NotFoundErr, "Page Not Available", repository.ErrorTotalCountExceeded)
	}

	optionFind := options.Find()
	optionFind.SetLimit(perPage)
	optionFind.SetSkip(offset)
	optionFind.SetSort(bson.D{{"createdAt", -1}})

	cursor, err := repo.mongoAdapter.FindMany(repo.database, repo.collection, filter, optionFind)
	if err != nil {
		return nil, availablePages, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindMany Failed"))
	}

	defer closeCursor(ctx, cursor)
	orders := make([]*entities.Order, 0, perPage)

	for cursor.Next(ctx) {
		var order entities.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, availablePages, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Order Failed"))
		}
		orders = append(orders, &order)
	}

	return orders, availablePages, nil
}

func (repo iOrderRepositoryImpl) ExistsById(ctx context.Context, orderId uint64) (bool, repository.IRepoError) {
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"orderId", orderId}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return false, nil
		}
		return false, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}
	return true, nil
}

func (repo iOrderRepositoryImpl) UpdateStatus(ctx context.Context, orderId uint64, expected, target entities.OrderStatus) (*entities.Order, repository.IRepoError) {
	opt := options.FindOneAndUpdate()
	opt.SetUpsert(false)
	opt.SetReturnDocument(options.After)

	singleResult := repo.mongoAdapter.GetConn().Database(repo.database).Collection(repo.collection).FindOneAndUpdate(ctx,
		bson.D{{"orderId", orderId}, {"status", expected}},
		bson.D{
			{"$set", bson.D{{"status", target}, {"updatedAt", time.Now().UTC()}}},
			{"$inc", bson.D{{"version", 1}}},
		}, opt)

	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", repository.ErrorUpdateFailed)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOneAndUpdate Failed"))
	}

	var order entities.Order
	if err := singleResult.Decode(&order); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Order Failed"))
	}

	return &order, nil
}

func (repo iOrderRepositoryImpl) Count(ctx context.Context) (int64, repository.IRepoError) {
	total, err := repo.mongoAdapter.Count(repo.database, repo.collection, bson.D{})
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
