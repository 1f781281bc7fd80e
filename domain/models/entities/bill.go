package entities

import (
	"fmt"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

type PaymentMethod string

// wire values shared with existing storefront clients, casing must not change
const (
	PaymentCash   PaymentMethod = "cash"
	PaymentEsewa  PaymentMethod = "esewa"
	PaymentKhalti PaymentMethod = "khalti"
	PaymentBank   PaymentMethod = "bank"
)

func (method PaymentMethod) IsValid() bool {
	switch method {
	case PaymentCash, PaymentEsewa, PaymentKhalti, PaymentBank:
		return true
	}
	return false
}

type BillStatus string

const (
	BillRequested BillStatus = "requested"
	BillGenerated BillStatus = "generated"
	BillPaid      BillStatus = "paid"
)

// Bill is the financial record of exactly one order. Totals are
// snapshotted from the order at generation time.
type Bill struct {
	ID            primitive.ObjectID     `bson:"-"`
	BillId        uint64                 `bson:"billId"`
	BillNumber    string                 `bson:"billNumber"`
	OrderId       uint64                 `bson:"orderId"`
	Subtotal      Money                  `bson:"subtotal"`
	Tax           Money                  `bson:"tax"`
	GrandTotal    Money                  `bson:"grandTotal"`
	PaymentMethod PaymentMethod          `bson:"paymentMethod"`
	Status        BillStatus             `bson:"status"`
	IsPaid        bool                   `bson:"isPaid"`
	PaidAt        *time.Time             `bson:"paidAt"`
	CallWaiter    bool                   `bson:"callWaiter"`
	CreatedAt     time.Time              `bson:"createdAt"`
	UpdatedAt     time.Time              `bson:"updatedAt"`
	Extended      map[string]interface{} `bson:"ext"`
}

func FormatBillNumber(sequence uint64) string {
	return fmt.Sprintf("BILL-%06d", sequence)
}
