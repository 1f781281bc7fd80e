package entities

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

const (
	DocumentVersion string = "1.0.0"
)

type OrderStatus string

// wire values shared with existing storefront clients, casing must not change
const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (status OrderStatus) IsValid() bool {
	switch status {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID         primitive.ObjectID     `bson:"-"`
	OrderId    uint64                 `bson:"orderId"`
	Version    uint64                 `bson:"version"`
	DocVersion string                 `bson:"docVersion"`
	BuyerId    uint64                 `bson:"buyerId"`
	Items      []OrderItem            `bson:"items"`
	Status     OrderStatus            `bson:"status"`
	Invoice    Invoice                `bson:"invoice"`
	IsPaid     bool                   `bson:"isPaid"`
	CreatedAt  time.Time              `bson:"createdAt"`
	UpdatedAt  time.Time              `bson:"updatedAt"`
	Extended   map[string]interface{} `bson:"ext"`
}

// OrderItem is captured from the live product at checkout and never
// refreshed, later product edits or deletion leave it untouched.
type OrderItem struct {
	ProductId uint64 `bson:"productId"`
	Name      string `bson:"name"`
	Image     string `bson:"image"`
	Price     Money  `bson:"price"`
	Quantity  int32  `bson:"quantity"`
}

type Invoice struct {
	Subtotal       Money                  `bson:"subtotal"`
	Tax            Money                  `bson:"tax"`
	GrandTotal     Money                  `bson:"grandTotal"`
	TaxRatePercent string                 `bson:"taxRatePercent"`
	Extended       map[string]interface{} `bson:"ext"`
}

func (order Order) IsIdEmpty() bool {
	for _, v := range order.ID {
		if v != 0 {
			return false
		}
	}
	return true
}

func GenerateOrderId() uint64 {
	var err error
	var bytes []byte
	var orderId uint32
	for {
		bytes, err = uuid.New().MarshalBinary()
		if err == nil {
			orderId = byteToHash(bytes)
			break
		}
	}
	return uint64(orderId)
}

func byteToHash(bytes []byte) uint32 {
	var h uint32 = 0
	for _, val := range bytes {
		h = 31*h + uint32(val&0xff)
	}
	return h
}
