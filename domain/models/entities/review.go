package entities

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

const (
	ReviewMinRating     int32 = 1
	ReviewMaxRating     int32 = 5
	ReviewCommentMaxLen int   = 500
)

// Review is unique per (userId, productId), a second submission by the
// same user updates the existing document.
type Review struct {
	ID        primitive.ObjectID     `bson:"-"`
	ReviewId  uint64                 `bson:"reviewId"`
	ProductId uint64                 `bson:"productId"`
	UserId    uint64                 `bson:"userId"`
	Rating    int32                  `bson:"rating"`
	Comment   string                 `bson:"comment"`
	CreatedAt time.Time              `bson:"createdAt"`
	UpdatedAt time.Time              `bson:"updatedAt"`
	Extended  map[string]interface{} `bson:"ext"`
}
