package bill_repository

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const (
	collectionName string = "bills"

	// orders collection lives in the same database, MarkPaid touches it
	// inside the payment transaction
	orderCollectionName string = "orders"
)

type iBillRepositoryImpl struct {
	mongoAdapter *mongoadapter.Mongo
	database     string
	collection   string
}

func NewBillRepository(mongoDriver *mongoadapter.Mongo, database string) IBillRepository {
	return &iBillRepositoryImpl{mongoDriver, database, collectionName}
}

func (repo iBillRepositoryImpl) InsertUnique(ctx context.Context, bill entities.Bill) (*entities.Bill, repository.IRepoError) {
	if bill.BillId == 0 {
		bill.BillId = entities.GenerateOrderId()
	}
	bill.CreatedAt = time.Now().UTC()
	bill.UpdatedAt = bill.CreatedAt

	insertOneResult, err := repo.mongoAdapter.InsertOne(repo.database, repo.collection, &bill)
	if err != nil {
		if repo.mongoAdapter.IsDupError(err) {
			return nil, repository.ErrorFactory(repository.ConflictErr, "Bill Already Exists For Order", errors.Wrap(err, "InsertOne Failed"))
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "InsertOne Failed"))
	}

	bill.ID = insertOneResult.InsertedID.(primitive.ObjectID)
	return &bill, nil
}

func (repo iBillRepositoryImpl) FindById(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError) {
	return repo.findOne(ctx, bson.D{{"billId", billId}})
}

func (repo iBillRepositoryImpl) FindByOrderId(ctx context.Context, orderId uint64) (*entities.Bill, repository.IRepoError) {
	return repo.findOne(ctx, bson.D{{"orderId", orderId}})
}

func (repo iBillRepositoryImpl) findOne(ctx context.Context, filter bson.D) (*entities.Bill, repository.IRepoError) {
	var bill entities.Bill
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, filter)
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", err)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}

	if err := singleResult.Decode(&bill); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Bill Failed"))
	}

	return &bill, nil
}

func (repo iBillRepositoryImpl) ExistsByOrderId(ctx context.Context, orderId uint64) (bool, repository.IRepoError) {
	singleResult := repo.mongoAdapter.FindOne(repo.database, repo.collection, bson.D{{"orderId", orderId}})
	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return false, nil
		}
		return false, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
	}
	return true, nil
}

func (repo iBillRepositoryImpl) SetCallWaiter(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError) {
	opt := options.FindOneAndUpdate()
	opt.SetUpsert(false)
	opt.SetReturnDocument(options.After)

	singleResult := repo.mongoAdapter.GetConn().Database(repo.database).Collection(repo.collection).FindOneAndUpdate(ctx,
		bson.D{{"billId", billId}},
		bson.D{{"$set", bson.D{{"callWaiter", true}, {"updatedAt", time.Now().UTC()}}}}, opt)

	if err := singleResult.Err(); err != nil {
		if repo.mongoAdapter.NoDocument(err) {
			return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", repository.ErrorUpdateFailed)
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOneAndUpdate Failed"))
	}

	var bill entities.Bill
	if err := singleResult.Decode(&bill); err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Bill Failed"))
	}

	return &bill, nil
}

func (repo iBillRepositoryImpl) MarkPaid(ctx context.Context, billId uint64, method entities.PaymentMethod, paidAt time.Time) (*entities.Bill, repository.IRepoError) {
	client := repo.mongoAdapter.GetConn()
	session, err := client.StartSession()
	if err != nil {
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "StartSession Failed"))
	}
	defer session.EndSession(ctx)

	var repoErr repository.IRepoError
	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		bills := client.Database(repo.database).Collection(repo.collection)
		orders := client.Database(repo.database).Collection(orderCollectionName)

		var bill entities.Bill
		if err := bills.FindOne(sc, bson.D{{"billId", billId}}).Decode(&bill); err != nil {
			if err == mongo.ErrNoDocuments {
				repoErr = repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", err)
			} else {
				repoErr = repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOne Failed"))
			}
			return nil, repoErr
		}

		if bill.IsPaid {
			repoErr = repository.ErrorFactory(repository.NotAcceptedErr, "Bill Already Paid", errors.New("bill already paid"))
			return nil, repoErr
		}

		opt := options.FindOneAndUpdate()
		opt.SetReturnDocument(options.After)
		singleResult := bills.FindOneAndUpdate(sc,
			bson.D{{"billId", billId}, {"isPaid", false}},
			bson.D{{"$set", bson.D{
				{"isPaid", true},
				{"paidAt", paidAt},
				{"status", entities.BillPaid},
				{"paymentMethod", method},
				{"updatedAt", time.Now().UTC()},
			}}}, opt)
		if err := singleResult.Err(); err != nil {
			repoErr = repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOneAndUpdate Failed"))
			return nil, repoErr
		}

		var paidBill entities.Bill
		if err := singleResult.Decode(&paidBill); err != nil {
			repoErr = repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Bill Failed"))
			return nil, repoErr
		}

		updateResult, err := orders.UpdateOne(sc,
			bson.D{{"orderId", bill.OrderId}},
			bson.D{
				{"$set", bson.D{{"isPaid", true}, {"updatedAt", time.Now().UTC()}}},
				{"$inc", bson.D{{"version", 1}}},
			})
		if err != nil {
			repoErr = repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "UpdateOne Failed"))
			return nil, repoErr
		}
		if updateResult.MatchedCount != 1 {
			repoErr = repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", repository.ErrorUpdateFailed)
			return nil, repoErr
		}

		return &paidBill, nil
	})

	if err != nil {
		if repoErr != nil {
			return nil, repoErr
		}
		return nil, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Transaction Failed"))
	}

	return result.(*entities.Bill), nil
}

func (repo iBillRepositoryImpl) Count(ctx context.Context) (int64, repository.IRepoError) {
	total, err := repo.mongoAdapter.Count(repo.database, repo.collection, bson.D{})
	if err != nil {
		return 0, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Count Failed"))
	}
	return total, nil
}
