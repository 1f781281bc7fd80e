package cart_service

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/go-framework/mongoadapter"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	product_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/product"
	"gitlab.faza.io/order-project/restaurant-service/domain/pricing"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const collectionName string = "carts"

type cartLine struct {
	ProductId uint64 `bson:"productId"`
	Quantity  int32  `bson:"quantity"`
}

type cartDocument struct {
	UserId    uint64     `bson:"userId"`
	Items     []cartLine `bson:"items"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

type iCartServiceImpl struct {
	mongoAdapter      *mongoadapter.Mongo
	database          string
	collection        string
	productRepository product_repository.IProductRepository
}

func NewCartService(mongoDriver *mongoadapter.Mongo, database string,
	productRepository product_repository.IProductRepository) ICartService {
	return &iCartServiceImpl{mongoDriver, database, collectionName, productRepository}
}

func (cart iCartServiceImpl) GetPopulated(ctx context.Context, userId uint64) future.IFuture {
	var document cartDocument
	singleResult := cart.mongoAdapter.FindOne(cart.database, cart.collection, bson.D{{"userId", userId}})
	if err := singleResult.Err(); err != nil {
		if cart.mongoAdapter.NoDocument(err) {
			return future.Factory().SetCapacity(1).
				SetData(&PopulatedCart{UserId: userId, Items: []PopulatedCartItem{}}).
				BuildAndSend()
		}
		applog.GLog.Logger.FromContext(ctx).Error("cart FindOne failed",
			"fn", "GetPopulated", "uid", userId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "FindOne Failed")).
			BuildAndSend()
	}

	if err := singleResult.Decode(&document); err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cart Decode failed",
			"fn", "GetPopulated", "uid", userId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "Decode Cart Failed")).
			BuildAndSend()
	}

	populated := &PopulatedCart{UserId: userId, Items: make([]PopulatedCartItem, 0, len(document.Items))}
	for _, line := range document.Items {
		product, repoErr := cart.productRepository.FindById(ctx, line.ProductId)
		if repoErr != nil {
			if repoErr.Code() == repository.NotFoundErr {
				// product removed from the catalog after it was carted
				continue
			}
			applog.GLog.Logger.FromContext(ctx).Error("productRepository.FindById failed",
				"fn", "GetPopulated", "uid", userId, "pid", line.ProductId, "error", repoErr)
			return future.Factory().SetCapacity(1).
				SetError(future.InternalError, "Unknown Error", repoErr.Reason()).
				BuildAndSend()
		}

		item := PopulatedCartItem{
			ProductId:    product.ProductId,
			Name:         product.Name,
			Image:        product.Image,
			IsVeg:        product.IsVeg,
			Price:        product.Price,
			FinalPrice:   product.Price,
			DiscountType: entities.DiscountNone,
			Quantity:     line.Quantity,
		}
		if priced, priceErr := pricing.Calc(product); priceErr != nil {
			// a broken promotion config must not break the cart view
			applog.GLog.Logger.FromContext(ctx).Warn("pricing.Calc failed, falling back to list price",
				"fn", "GetPopulated", "uid", userId, "pid", line.ProductId, "error", priceErr)
		} else {
			item.FinalPrice = priced.FinalPrice
			item.DiscountType = priced.DiscountType
		}
		populated.Items = append(populated.Items, item)
	}

	return future.Factory().SetCapacity(1).SetData(populated).BuildAndSend()
}

func (cart iCartServiceImpl) AddItem(ctx context.Context, userId, productId uint64, quantity int32) future.IFuture {
	if quantity < 1 {
		return future.Factory().SetCapacity(1).
			SetError(future.ValidationError, "Quantity Invalid",
				errors.Errorf("quantity %d must be at least 1", quantity)).
			BuildAndSend()
	}

	exists, repoErr := cart.productRepository.ExistsById(ctx, productId)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("productRepository.ExistsById failed",
			"fn", "AddItem", "uid", userId, "pid", productId, "error", repoErr)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", repoErr.Reason()).
			BuildAndSend()
	}
	if !exists {
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "Product Not Found",
				errors.Errorf("product %d not found", productId)).
			BuildAndSend()
	}

	timestamp := time.Now().UTC()

	// merge into an existing line first, push a new line only when no line
	// for this product exists yet
	updateResult, err := cart.mongoAdapter.UpdateOne(cart.database, cart.collection,
		bson.D{{"userId", userId}, {"items.productId", productId}},
		bson.D{
			{"$inc", bson.D{{"items.$.quantity", quantity}}},
			{"$set", bson.D{{"updatedAt", timestamp}}},
		})
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cart UpdateOne failed",
			"fn", "AddItem", "uid", userId, "pid", productId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "UpdateOne Failed")).
			BuildAndSend()
	}

	if updateResult.MatchedCount == 0 {
		if _, err := cart.mongoAdapter.UpdateOne(cart.database, cart.collection,
			bson.D{{"userId", userId}},
			bson.D{
				{"$push", bson.D{{"items", cartLine{ProductId: productId, Quantity: quantity}}}},
				{"$set", bson.D{{"updatedAt", timestamp}}},
			}, options.Update().SetUpsert(true)); err != nil {
			applog.GLog.Logger.FromContext(ctx).Error("cart UpdateOne upsert failed",
				"fn", "AddItem", "uid", userId, "pid", productId, "error", err)
			return future.Factory().SetCapacity(1).
				SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "UpdateOne Upsert Failed")).
				BuildAndSend()
		}
	}

	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}

func (cart iCartServiceImpl) RemoveItem(ctx context.Context, userId, productId uint64) future.IFuture {
	_, err := cart.mongoAdapter.UpdateOne(cart.database, cart.collection,
		bson.D{{"userId", userId}},
		bson.D{
			{"$pull", bson.D{{"items", bson.D{{"productId", productId}}}}},
			{"$set", bson.D{{"updatedAt", time.Now().UTC()}}},
		})
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cart UpdateOne failed",
			"fn", "RemoveItem", "uid", userId, "pid", productId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "UpdateOne Failed")).
			BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}

func (cart iCartServiceImpl) Clear(ctx context.Context, userId uint64) future.IFuture {
	_, err := cart.mongoAdapter.UpdateOne(cart.database, cart.collection,
		bson.D{{"userId", userId}},
		bson.D{{"$set", bson.D{{"items", []cartLine{}}, {"updatedAt", time.Now().UTC()}}}})
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("cart UpdateOne failed",
			"fn", "Clear", "uid", userId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "UpdateOne Failed")).
			BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(struct{}{}).BuildAndSend()
}
