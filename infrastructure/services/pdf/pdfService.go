package pdf_service

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
)

// BillDocument is the fully populated record handed to the renderer. The
// renderer owns layout, this service never formats output itself.
type BillDocument struct {
	Bill  entities.Bill
	Order entities.Order
}

type IPdfService interface {
	// RenderBillDocument turns a populated bill document into a binary
	// document. Data of the returned future is []byte.
	RenderBillDocument(ctx context.Context, document BillDocument) future.IFuture
}
