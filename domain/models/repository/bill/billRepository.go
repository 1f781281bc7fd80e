package bill_repository

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	"time"
)

type IBillRepository interface {
	// InsertUnique inserts the bill, relying on the unique orderId index.
	// A second bill for the same order fails with ConflictErr, so two
	// concurrent generations resolve to exactly one winner.
	InsertUnique(ctx context.Context, bill entities.Bill) (*entities.Bill, repository.IRepoError)

	FindById(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError)

	FindByOrderId(ctx context.Context, orderId uint64) (*entities.Bill, repository.IRepoError)

	ExistsByOrderId(ctx context.Context, orderId uint64) (bool, repository.IRepoError)

	// SetCallWaiter flags an existing bill as customer-requested.
	SetCallWaiter(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError)

	// MarkPaid sets Bill.isPaid/paidAt/status/paymentMethod and the owning
	// Order.isPaid inside one multi-document transaction, so no reader can
	// observe the bill paid and the order unpaid.
	MarkPaid(ctx context.Context, billId uint64, method entities.PaymentMethod, paidAt time.Time) (*entities.Bill, repository.IRepoError)

	Count(ctx context.Context) (int64, repository.IRepoError)
}
