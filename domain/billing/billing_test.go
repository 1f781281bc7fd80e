package billing

import (
	"context"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/go-framework/logger"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	pdf_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/pdf"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	applog.GLog.ZapLogger = applog.InitZap()
	applog.GLog.Logger = logger.NewZapLogger(applog.GLog.ZapLogger)
	os.Exit(m.Run())
}

type fakeOrderRepository struct {
	mutex  sync.Mutex
	orders map[uint64]*entities.Order
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uint64]*entities.Order)}
}

func (repo *fakeOrderRepository) Save(ctx context.Context, order entities.Order) (*entities.Order, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	if order.OrderId == 0 {
		order.OrderId = entities.GenerateOrderId()
	}
	repo.orders[order.OrderId] = &order
	copied := order
	return &copied, nil
}

func (repo *fakeOrderRepository) FindById(ctx context.Context, orderId uint64) (*entities.Order, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	order, ok := repo.orders[orderId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", nil)
	}
	copied := *order
	return &copied, nil
}

func (repo *fakeOrderRepository) FindByBuyerIdWithPage(ctx context.Context, buyerId uint64, page, perPage int64) ([]*entities.Order, int64, repository.IRepoError) {
	return nil, 0, nil
}

func (repo *fakeOrderRepository) ExistsById(ctx context.Context, orderId uint64) (bool, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	_, ok := repo.orders[orderId]
	return ok, nil
}

func (repo *fakeOrderRepository) UpdateStatus(ctx context.Context, orderId uint64, expected, target entities.OrderStatus) (*entities.Order, repository.IRepoError) {
	return nil, repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", nil)
}

func (repo *fakeOrderRepository) Count(ctx context.Context) (int64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	return int64(len(repo.orders)), nil
}

func (repo *fakeOrderRepository) setPaid(orderId uint64) repository.IRepoError {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	order, ok := repo.orders[orderId]
	if !ok {
		return repository.ErrorFactory(repository.NotFoundErr, "Order Not Found", nil)
	}
	order.IsPaid = true
	return nil
}

// fakeBillRepository enforces the unique order constraint and couples
// MarkPaid to the order store the way the transactional implementation does.
type fakeBillRepository struct {
	mutex     sync.Mutex
	nextId    uint64
	bills     map[uint64]*entities.Bill
	orderRepo *fakeOrderRepository
}

func newFakeBillRepository(orderRepo *fakeOrderRepository) *fakeBillRepository {
	return &fakeBillRepository{nextId: 1, bills: make(map[uint64]*entities.Bill), orderRepo: orderRepo}
}

func (repo *fakeBillRepository) InsertUnique(ctx context.Context, bill entities.Bill) (*entities.Bill, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, stored := range repo.bills {
		if stored.OrderId == bill.OrderId {
			return nil, repository.ErrorFactory(repository.ConflictErr, "Bill Already Exists For Order",
				errors.New("duplicate order reference"))
		}
	}
	bill.BillId = repo.nextId
	repo.nextId++
	bill.CreatedAt = time.Now().UTC()
	bill.UpdatedAt = bill.CreatedAt
	repo.bills[bill.BillId] = &bill
	copied := bill
	return &copied, nil
}

func (repo *fakeBillRepository) FindById(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	bill, ok := repo.bills[billId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", nil)
	}
	copied := *bill
	return &copied, nil
}

func (repo *fakeBillRepository) FindByOrderId(ctx context.Context, orderId uint64) (*entities.Bill, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, bill := range repo.bills {
		if bill.OrderId == orderId {
			copied := *bill
			return &copied, nil
		}
	}
	return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", nil)
}

func (repo *fakeBillRepository) ExistsByOrderId(ctx context.Context, orderId uint64) (bool, repository.IRepoError) {
	_, err := repo.FindByOrderId(ctx, orderId)
	if err != nil {
		if err.Code() == repository.NotFoundErr {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (repo *fakeBillRepository) SetCallWaiter(ctx context.Context, billId uint64) (*entities.Bill, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	bill, ok := repo.bills[billId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", nil)
	}
	bill.CallWaiter = true
	bill.UpdatedAt = time.Now().UTC()
	copied := *bill
	return &copied, nil
}

func (repo *fakeBillRepository) MarkPaid(ctx context.Context, billId uint64, method entities.PaymentMethod, paidAt time.Time) (*entities.Bill, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	bill, ok := repo.bills[billId]
	if !ok {
		return nil, repository.ErrorFactory(repository.NotFoundErr, "Bill Not Found", nil)
	}
	if bill.IsPaid {
		return nil, repository.ErrorFactory(repository.NotAcceptedErr, "Bill Already Paid",
			errors.New("bill already paid"))
	}
	if err := repo.orderRepo.setPaid(bill.OrderId); err != nil {
		return nil, err
	}
	bill.IsPaid = true
	bill.PaidAt = &paidAt
	bill.Status = entities.BillPaid
	bill.PaymentMethod = method
	bill.UpdatedAt = time.Now().UTC()
	copied := *bill
	return &copied, nil
}

func (repo *fakeBillRepository) Count(ctx context.Context) (int64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	return int64(len(repo.bills)), nil
}

type fakeSequenceRepository struct {
	mutex sync.Mutex
	value uint64
}

func (repo *fakeSequenceRepository) Next(ctx context.Context, name string) (uint64, repository.IRepoError) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.value++
	return repo.value, nil
}

type billingFixture struct {
	service   IBillingService
	orderRepo *fakeOrderRepository
	billRepo  *fakeBillRepository
}

func newBillingFixture() billingFixture {
	orderRepo := newFakeOrderRepository()
	billRepo := newFakeBillRepository(orderRepo)
	return billingFixture{
		service: NewBillingService(billRepo, orderRepo, &fakeSequenceRepository{},
			pdf_service.NewPdfServiceMock(), "billNumber"),
		orderRepo: orderRepo,
		billRepo:  billRepo,
	}
}

func (fixture billingFixture) storeOrder() uint64 {
	order, _ := fixture.orderRepo.Save(context.Background(), entities.Order{
		BuyerId: 900001,
		Status:  entities.OrderServed,
		Invoice: entities.Invoice{
			Subtotal:       entities.Money{Amount: "1150.00", Currency: "NPR"},
			Tax:            entities.Money{Amount: "57.50", Currency: "NPR"},
			GrandTotal:     entities.Money{Amount: "1207.50", Currency: "NPR"},
			TaxRatePercent: "5",
		},
	})
	return order.OrderId
}

func TestGenerateSnapshotsOrderTotals(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)
	require.Equal(t, "BILL-000001", bill.BillNumber)
	require.Equal(t, orderId, bill.OrderId)
	require.Equal(t, "1150.00", bill.Subtotal.Amount)
	require.Equal(t, "57.50", bill.Tax.Amount)
	require.Equal(t, "1207.50", bill.GrandTotal.Amount)
	require.Equal(t, entities.BillGenerated, bill.Status)
	require.False(t, bill.IsPaid)
	require.Nil(t, bill.PaidAt)
}

func TestGenerateSecondBillConflicts(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	_, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)

	_, err = fixture.service.Generate(ctx, orderId, entities.PaymentEsewa)
	require.NotNil(t, err)
	require.Equal(t, future.Conflict, err.Code())
}

func TestGenerateUnknownOrder(t *testing.T) {
	fixture := newBillingFixture()

	_, err := fixture.service.Generate(context.Background(), 424242, entities.PaymentCash)
	require.NotNil(t, err)
	require.Equal(t, future.NotFound, err.Code())
}

func TestGenerateInvalidPaymentMethod(t *testing.T) {
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	_, err := fixture.service.Generate(context.Background(), orderId, entities.PaymentMethod("paypal"))
	require.NotNil(t, err)
	require.Equal(t, future.ValidationError, err.Code())
}

func TestGenerateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	const workers = 16
	var waitGroup sync.WaitGroup
	successes := make(chan *entities.Bill, workers)
	conflicts := make(chan future.IErrorFuture, workers)

	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
			if err == nil {
				successes <- bill
			} else {
				conflicts <- err
			}
		}()
	}

	waitGroup.Wait()
	close(successes)
	close(conflicts)

	require.Len(t, successes, 1)
	for err := range conflicts {
		require.Equal(t, future.Conflict, err.Code())
	}

	count, repoErr := fixture.billRepo.Count(ctx)
	require.Nil(t, repoErr)
	require.Equal(t, int64(1), count)
}

func TestBillNumbersStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()

	previous := ""
	for i := 0; i < 5; i++ {
		orderId := fixture.storeOrder()
		bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
		require.Nil(t, err)
		require.True(t, bill.BillNumber > previous,
			"%s not after %s", bill.BillNumber, previous)
		previous = bill.BillNumber
	}
	require.Equal(t, "BILL-000005", previous)
}

func TestRequestBillCreatesRequestedBill(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	bill, err := fixture.service.RequestBill(ctx, orderId)
	require.Nil(t, err)
	require.Equal(t, entities.BillRequested, bill.Status)
	require.True(t, bill.CallWaiter)
	require.Equal(t, "BILL-000001", bill.BillNumber)
}

func TestRequestBillRaisesFlagOnExistingBill(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	generated, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)
	require.False(t, generated.CallWaiter)

	bill, err := fixture.service.RequestBill(ctx, orderId)
	require.Nil(t, err)
	require.Equal(t, generated.BillId, bill.BillId)
	require.True(t, bill.CallWaiter)

	count, repoErr := fixture.billRepo.Count(ctx)
	require.Nil(t, repoErr)
	require.Equal(t, int64(1), count)
}

func TestMarkPaidSettlesBillAndOrder(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)

	paidBill, err := fixture.service.MarkPaid(ctx, bill.BillId, entities.PaymentKhalti)
	require.Nil(t, err)
	require.True(t, paidBill.IsPaid)
	require.NotNil(t, paidBill.PaidAt)
	require.Equal(t, entities.BillPaid, paidBill.Status)
	require.Equal(t, entities.PaymentKhalti, paidBill.PaymentMethod)

	order, repoErr := fixture.orderRepo.FindById(ctx, orderId)
	require.Nil(t, repoErr)
	require.True(t, order.IsPaid)
}

func TestMarkPaidTwice(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)

	_, err = fixture.service.MarkPaid(ctx, bill.BillId, entities.PaymentCash)
	require.Nil(t, err)

	_, err = fixture.service.MarkPaid(ctx, bill.BillId, entities.PaymentCash)
	require.NotNil(t, err)
	require.Equal(t, future.NotAccepted, err.Code())
}

func TestMarkPaidUnknownBill(t *testing.T) {
	fixture := newBillingFixture()

	_, err := fixture.service.MarkPaid(context.Background(), 424242, entities.PaymentCash)
	require.NotNil(t, err)
	require.Equal(t, future.NotFound, err.Code())
}

func TestMarkPaidInvalidMethod(t *testing.T) {
	fixture := newBillingFixture()

	_, err := fixture.service.MarkPaid(context.Background(), 1, entities.PaymentMethod("iou"))
	require.NotNil(t, err)
	require.Equal(t, future.ValidationError, err.Code())
}

func TestBuildDocument(t *testing.T) {
	ctx := context.Background()
	fixture := newBillingFixture()
	orderId := fixture.storeOrder()

	bill, err := fixture.service.Generate(ctx, orderId, entities.PaymentCash)
	require.Nil(t, err)

	document, err := fixture.service.BuildDocument(ctx, bill.BillId)
	require.Nil(t, err)
	require.True(t, strings.Contains(string(document), bill.BillNumber))
	require.True(t, strings.Contains(string(document), "1207.50"))
}

func TestBuildDocumentUnknownBill(t *testing.T) {
	fixture := newBillingFixture()

	_, err := fixture.service.BuildDocument(context.Background(), 424242)
	require.NotNil(t, err)
	require.Equal(t, future.NotFound, err.Code())
}
