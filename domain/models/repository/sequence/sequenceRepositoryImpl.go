package sequence_repository

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName string = "counters"

type counterDocument struct {
	Name  string `bson:"name"`
	Value uint64 `bson:"value"`
}

type iSequenceRepositoryImpl struct {
	mongoAdapter *mongoadapter.Mongo
	database     string
	collection   string
}

func NewSequenceRepository(mongoDriver *mongoadapter.Mongo, database string) ISequenceRepository {
	return &iSequenceRepositoryImpl{mongoDriver, database, collectionName}
}

func (repo iSequenceRepositoryImpl) Next(ctx context.Context, name string) (uint64, repository.IRepoError) {
	opt := options.FindOneAndUpdate()
	opt.SetUpsert(true)
	opt.SetReturnDocument(options.After)

	singleResult := repo.mongoAdapter.GetConn().Database(repo.database).Collection(repo.collection).FindOneAndUpdate(ctx,
		bson.D{{"name", name}},
		bson.D{{"$inc", bson.D{{"value", 1}}}}, opt)

	if err := singleResult.Err(); err != nil {
		return 0, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "FindOneAndUpdate Failed"))
	}

	var counter counterDocument
	if err := singleResult.Decode(&counter); err != nil {
		return 0, repository.ErrorFactory(repository.InternalErr, "Request Operation Failed", errors.Wrap(err, "Decode Counter Failed"))
	}

	return counter.Value, nil
}
