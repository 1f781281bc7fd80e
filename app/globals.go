package app

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/logger"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/configs"
	"gitlab.faza.io/order-project/restaurant-service/domain/billing"
	"gitlab.faza.io/order-project/restaurant-service/domain/checkout"
	bill_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/bill"
	order_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/order"
	product_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/product"
	review_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/review"
	sequence_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/sequence"
	"gitlab.faza.io/order-project/restaurant-service/domain/rating"
	"gitlab.faza.io/order-project/restaurant-service/domain/states"
	cart_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/cart"
	pdf_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/pdf"
	user_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"time"
)

var Globals struct {
	MongoDriver        *mongoadapter.Mongo
	Config             *configs.Config
	ZapLogger          *zap.Logger
	Logger             logger.Logger
	ProductRepository  product_repository.IProductRepository
	OrderRepository    order_repository.IOrderRepository
	BillRepository     bill_repository.IBillRepository
	ReviewRepository   review_repository.IReviewRepository
	SequenceRepository sequence_repository.ISequenceRepository
	CartService        cart_service.ICartService
	UserService        user_service.IUserService
	PdfService         pdf_service.IPdfService
	CheckoutService    checkout.ICheckoutService
	OrderStateMachine  states.IOrderStateMachine
	RatingService      rating.IRatingService
	BillingService     billing.IBillingService
}

func SetupMongoDriver(config configs.Config) (*mongoadapter.Mongo, error) {
	mongoConf := &mongoadapter.MongoConfig{
		Host:            config.Mongo.Host,
		Port:            config.Mongo.Port,
		Username:        config.Mongo.User,
		ConnTimeout:     time.Duration(config.Mongo.ConnectionTimeout) * time.Second,
		ReadTimeout:     time.Duration(config.Mongo.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(config.Mongo.WriteTimeout) * time.Second,
		MaxConnIdleTime: time.Duration(config.Mongo.MaxConnIdleTime) * time.Second,
		MaxPoolSize:     uint64(config.Mongo.MaxPoolSize),
		MinPoolSize:     uint64(config.Mongo.MinPoolSize),
		WriteConcernW:   config.Mongo.WriteConcernW,
		WriteConcernJ:   config.Mongo.WriteConcernJ,
		RetryWrites:     config.Mongo.RetryWrite,
	}

	mongoDriver, err := mongoadapter.NewMongo(mongoConf)
	if err != nil {
		Globals.Logger.Error("mongoadapter.NewMongo failed",
			"fn", "SetupMongoDriver",
			"Mongo", err)
		return nil, errors.Wrap(err, "mongoadapter.NewMongo init failed")
	}

	return mongoDriver, nil
}

// RegisterIndexes installs the unique indexes the write paths rely on:
// duplicate key errors are how bill-per-order and review-per-user
// uniqueness are enforced.
func RegisterIndexes(mongoDriver *mongoadapter.Mongo, database string) error {
	singleKeyIndexes := []struct {
		collection string
		key        string
	}{
		{"orders", "orderId"},
		{"products", "productId"},
		{"bills", "billId"},
		{"bills", "orderId"},
		{"bills", "billNumber"},
		{"reviews", "reviewId"},
		{"carts", "userId"},
		{"counters", "name"},
	}
	for _, index := range singleKeyIndexes {
		if _, err := mongoDriver.AddUniqueIndex(database, index.collection, index.key); err != nil {
			return errors.Wrapf(err, "AddUniqueIndex %s.%s failed", index.collection, index.key)
		}
	}

	// one review per (user, product) pair
	_, err := mongoDriver.GetConn().Database(database).Collection("reviews").Indexes().CreateOne(
		context.Background(),
		mongo.IndexModel{
			Keys:    bson.D{{"userId", 1}, {"productId", 1}},
			Options: options.Index().SetUnique(true),
		})
	if err != nil {
		return errors.Wrap(err, "CreateOne reviews (userId, productId) index failed")
	}

	return nil
}

func InitZap() (zapLogger *zap.Logger) {
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	conf.DisableCaller = true
	conf.DisableStacktrace = true
	zapLogger, e := conf.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if e != nil {
		panic(e)
	}
	return
}
