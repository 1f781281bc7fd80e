package entities

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

type DiscountType string

// wire values shared with existing storefront clients, casing must not change
const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountBogo       DiscountType = "bogo"
	DiscountCombo      DiscountType = "combo"
)

func (discountType DiscountType) IsValid() bool {
	switch discountType {
	case DiscountNone, DiscountPercentage, DiscountFixed, DiscountBogo, DiscountCombo:
		return true
	}
	return false
}

type Product struct {
	ID              primitive.ObjectID     `bson:"-"`
	ProductId       uint64                 `bson:"productId"`
	Version         uint64                 `bson:"version"`
	DocVersion      string                 `bson:"docVersion"`
	Name            string                 `bson:"name"`
	Image           string                 `bson:"image"`
	IsVeg           bool                   `bson:"isVeg"`
	Price           Money                  `bson:"price"`
	DiscountType    DiscountType           `bson:"discountType"`
	DiscountValue   string                 `bson:"discountValue"`
	BogoConfig      *BogoConfig            `bson:"bogoConfig"`
	ComboItems      []uint64               `bson:"comboItems"`
	ComboPrice      *Money                 `bson:"comboPrice"`
	OfferValidUntil *time.Time             `bson:"offerValidUntil"`
	Rating          float64                `bson:"rating"`
	NumReviews      int32                  `bson:"numReviews"`
	CreatedAt       time.Time              `bson:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt"`
	DeletedAt       *time.Time             `bson:"deletedAt"`
	Extended        map[string]interface{} `bson:"ext"`
}

// BogoConfig is a quantity promotion, it never changes the unit price.
type BogoConfig struct {
	BuyQuantity int32 `bson:"buyQuantity"`
	GetQuantity int32 `bson:"getQuantity"`
}
