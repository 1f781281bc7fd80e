package billing

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	bill_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/bill"
	order_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/order"
	sequence_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/sequence"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	pdf_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/pdf"
	"time"
)

type IBillingService interface {
	// Generate creates the bill of an order, snapshotting the order's
	// totals and assigning the next bill number. At most one bill ever
	// exists per order, a second call fails with Conflict.
	Generate(ctx context.Context, orderId uint64, method entities.PaymentMethod) (*entities.Bill, future.IErrorFuture)

	// RequestBill is the customer-initiated path. When the order already
	// has a bill only the callWaiter flag is raised, otherwise a bill in
	// status requested is created.
	RequestBill(ctx context.Context, orderId uint64) (*entities.Bill, future.IErrorFuture)

	// MarkPaid settles a bill and flips the owning order's isPaid in the
	// same logical operation. Paying an already paid bill fails with
	// NotAccepted.
	MarkPaid(ctx context.Context, billId uint64, method entities.PaymentMethod) (*entities.Bill, future.IErrorFuture)

	FindByOrderId(ctx context.Context, orderId uint64) (*entities.Bill, future.IErrorFuture)

	// BuildDocument hands the populated bill and its order to the
	// document renderer and returns the binary result.
	BuildDocument(ctx context.Context, billId uint64) ([]byte, future.IErrorFuture)
}

type billingService struct {
	billRepository     bill_repository.IBillRepository
	orderRepository    order_repository.IOrderRepository
	sequenceRepository sequence_repository.ISequenceRepository
	pdfService         pdf_service.IPdfService
	sequenceName       string
}

func NewBillingService(billRepository bill_repository.IBillRepository,
	orderRepository order_repository.IOrderRepository,
	sequenceRepository sequence_repository.ISequenceRepository,
	pdfService pdf_service.IPdfService,
	sequenceName string) IBillingService {
	return &billingService{
		billRepository:     billRepository,
		orderRepository:    orderRepository,
		sequenceRepository: sequenceRepository,
		pdfService:         pdfService,
		sequenceName:       sequenceName,
	}
}

func (service billingService) Generate(ctx context.Context, orderId uint64, method entities.PaymentMethod) (*entities.Bill, future.IErrorFuture) {
	if !method.IsValid() {
		return nil, future.NewError(future.ValidationError, "PaymentMethod Invalid",
			errors.Errorf("unknown payment method %q", method))
	}
	return service.createBill(ctx, orderId, method, entities.BillGenerated, false)
}

func (service billingService) RequestBill(ctx context.Context, orderId uint64) (*entities.Bill, future.IErrorFuture) {
	existingBill, repoErr := service.billRepository.FindByOrderId(ctx, orderId)
	if repoErr == nil {
		raisedBill, repoErr := service.billRepository.SetCallWaiter(ctx, existingBill.BillId)
		if repoErr != nil {
			applog.GLog.Logger.FromContext(ctx).Error("billRepository.SetCallWaiter failed",
				"fn", "RequestBill", "oid", orderId, "bid", existingBill.BillId, "error", repoErr)
			return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
		}
		return raisedBill, nil
	}
	if repoErr.Code() != repository.NotFoundErr {
		applog.GLog.Logger.FromContext(ctx).Error("billRepository.FindByOrderId failed",
			"fn", "RequestBill", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	bill, err := service.createBill(ctx, orderId, "", entities.BillRequested, true)
	if err != nil && err.Code() == future.Conflict {
		// another request created the bill in between, raise the flag on it
		if existingBill, repoErr := service.billRepository.FindByOrderId(ctx, orderId); repoErr == nil {
			if raisedBill, repoErr := service.billRepository.SetCallWaiter(ctx, existingBill.BillId); repoErr == nil {
				return raisedBill, nil
			}
		}
	}
	return bill, err
}

func (service billingService) createBill(ctx context.Context, orderId uint64, method entities.PaymentMethod,
	status entities.BillStatus, callWaiter bool) (*entities.Bill, future.IErrorFuture) {
	order, repoErr := service.orderRepository.FindById(ctx, orderId)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return nil, future.NewError(future.NotFound, "Order Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("orderRepository.FindById failed",
			"fn", "createBill", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	sequence, repoErr := service.sequenceRepository.Next(ctx, service.sequenceName)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("sequenceRepository.Next failed",
			"fn", "createBill", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	bill, repoErr := service.billRepository.InsertUnique(ctx, entities.Bill{
		BillNumber:    entities.FormatBillNumber(sequence),
		OrderId:       order.OrderId,
		Subtotal:      order.Invoice.Subtotal,
		Tax:           order.Invoice.Tax,
		GrandTotal:    order.Invoice.GrandTotal,
		PaymentMethod: method,
		Status:        status,
		CallWaiter:    callWaiter,
	})
	if repoErr != nil {
		if repoErr.Code() == repository.ConflictErr {
			return nil, future.NewError(future.Conflict, "Bill Already Exists For Order", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("billRepository.InsertUnique failed",
			"fn", "createBill", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	applog.GLog.Logger.FromContext(ctx).Info("bill created",
		"fn", "createBill", "oid", orderId, "bid", bill.BillId, "billNumber", bill.BillNumber)
	return bill, nil
}

func (service billingService) MarkPaid(ctx context.Context, billId uint64, method entities.PaymentMethod) (*entities.Bill, future.IErrorFuture) {
	if !method.IsValid() {
		return nil, future.NewError(future.ValidationError, "PaymentMethod Invalid",
			errors.Errorf("unknown payment method %q", method))
	}

	bill, repoErr := service.billRepository.MarkPaid(ctx, billId, method, time.Now().UTC())
	if repoErr != nil {
		switch repoErr.Code() {
		case repository.NotFoundErr:
			return nil, future.NewError(future.NotFound, "Bill Not Found", repoErr.Reason())
		case repository.NotAcceptedErr:
			return nil, future.NewError(future.NotAccepted, "Bill Already Paid", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("billRepository.MarkPaid failed",
			"fn", "MarkPaid", "bid", billId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	applog.GLog.Logger.FromContext(ctx).Info("bill paid",
		"fn", "MarkPaid", "bid", billId, "oid", bill.OrderId, "method", method)
	return bill, nil
}

func (service billingService) FindByOrderId(ctx context.Context, orderId uint64) (*entities.Bill, future.IErrorFuture) {
	bill, repoErr := service.billRepository.FindByOrderId(ctx, orderId)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return nil, future.NewError(future.NotFound, "Bill Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("billRepository.FindByOrderId failed",
			"fn", "FindByOrderId", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}
	return bill, nil
}

func (service billingService) BuildDocument(ctx context.Context, billId uint64) ([]byte, future.IErrorFuture) {
	bill, repoErr := service.billRepository.FindById(ctx, billId)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return nil, future.NewError(future.NotFound, "Bill Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("billRepository.FindById failed",
			"fn", "BuildDocument", "bid", billId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	order, repoErr := service.orderRepository.FindById(ctx, bill.OrderId)
	if repoErr != nil {
		applog.GLog.Logger.FromContext(ctx).Error("orderRepository.FindById failed",
			"fn", "BuildDocument", "bid", billId, "oid", bill.OrderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	renderData := service.pdfService.RenderBillDocument(ctx, pdf_service.BillDocument{
		Bill:  *bill,
		Order: *order,
	}).Get()
	if renderData.Error() != nil {
		applog.GLog.Logger.FromContext(ctx).Error("pdfService.RenderBillDocument failed",
			"fn", "BuildDocument", "bid", billId, "error", renderData.Error())
		return nil, renderData.Error()
	}

	return renderData.Data().([]byte), nil
}
