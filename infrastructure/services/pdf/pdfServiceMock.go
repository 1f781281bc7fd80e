package pdf_service

import (
	"bytes"
	"context"
	"fmt"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
)

type iPdfServiceMock struct {
}

func NewPdfServiceMock() IPdfService {
	return &iPdfServiceMock{}
}

// RenderBillDocument emits a plain text rendition carrying the same fields a
// real renderer would lay out.
func (service iPdfServiceMock) RenderBillDocument(ctx context.Context, document BillDocument) future.IFuture {
	if document.Bill.BillNumber == "" {
		return future.Factory().SetCapacity(1).
			SetError(future.ValidationError, "BillNumber Required",
				errors.New("bill document without bill number")).
			BuildAndSend()
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "%s\n", document.Bill.BillNumber)
	fmt.Fprintf(&buffer, "order: %d\n", document.Order.OrderId)
	for _, item := range document.Order.Items {
		fmt.Fprintf(&buffer, "%d x %s %s %s\n", item.Quantity, item.Name, item.Price.Amount, item.Price.Currency)
	}
	fmt.Fprintf(&buffer, "subtotal: %s\n", document.Bill.Subtotal.Amount)
	fmt.Fprintf(&buffer, "tax: %s\n", document.Bill.Tax.Amount)
	fmt.Fprintf(&buffer, "total: %s\n", document.Bill.GrandTotal.Amount)

	return future.Factory().SetCapacity(1).SetData(buffer.Bytes()).BuildAndSend()
}
