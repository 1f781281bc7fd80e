package states

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/entities"
	"gitlab.faza.io/order-project/restaurant-service/domain/models/repository"
	order_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/order"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
)

// transitions is the only legal forward path an order can take. Cancelled is
// reachable from every non-terminal state and, like completed, has no exits.
var transitions = map[entities.OrderStatus][]entities.OrderStatus{
	entities.OrderPending:   {entities.OrderConfirmed, entities.OrderCancelled},
	entities.OrderConfirmed: {entities.OrderPreparing, entities.OrderCancelled},
	entities.OrderPreparing: {entities.OrderServed, entities.OrderCancelled},
	entities.OrderServed:    {entities.OrderCompleted, entities.OrderCancelled},
	entities.OrderCompleted: {},
	entities.OrderCancelled: {},
}

// CanTransition reports whether target is directly reachable from current.
func CanTransition(current, target entities.OrderStatus) bool {
	for _, status := range transitions[current] {
		if status == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status entities.OrderStatus) bool {
	return len(transitions[status]) == 0
}

type IOrderStateMachine interface {
	// Transition advances the order to target, validating against the
	// persisted status at write time. Concurrent transitions on the same
	// order serialize through the guarded status write.
	Transition(ctx context.Context, orderId uint64, target entities.OrderStatus) (*entities.Order, future.IErrorFuture)
}

type orderStateMachine struct {
	orderRepository order_repository.IOrderRepository
}

func NewOrderStateMachine(orderRepository order_repository.IOrderRepository) IOrderStateMachine {
	return &orderStateMachine{orderRepository: orderRepository}
}

func (machine orderStateMachine) Transition(ctx context.Context, orderId uint64, target entities.OrderStatus) (*entities.Order, future.IErrorFuture) {
	if !target.IsValid() {
		return nil, future.NewError(future.ValidationError, "Order Status Invalid",
			errors.Errorf("unknown order status %q", target))
	}

	order, repoErr := machine.orderRepository.FindById(ctx, orderId)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			return nil, future.NewError(future.NotFound, "Order Not Found", repoErr.Reason())
		}
		applog.GLog.Logger.FromContext(ctx).Error("orderRepository.FindById failed",
			"fn", "Transition", "oid", orderId, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	if !CanTransition(order.Status, target) {
		return nil, future.NewError(future.NotAccepted, "Order Status Transition Invalid",
			errors.Errorf("order %d cannot move from %s to %s", orderId, order.Status, target))
	}

	updatedOrder, repoErr := machine.orderRepository.UpdateStatus(ctx, orderId, order.Status, target)
	if repoErr != nil {
		if repoErr.Code() == repository.NotFoundErr {
			// the persisted status changed after our read, the guarded
			// write refused it
			return nil, future.NewError(future.NotAccepted, "Order Status Transition Invalid",
				errors.Errorf("order %d status changed concurrently, %s is no longer reachable", orderId, target))
		}
		applog.GLog.Logger.FromContext(ctx).Error("orderRepository.UpdateStatus failed",
			"fn", "Transition", "oid", orderId, "status", target, "error", repoErr)
		return nil, future.NewError(future.InternalError, "Unknown Error", repoErr.Reason())
	}

	applog.GLog.Logger.FromContext(ctx).Info("order status updated",
		"fn", "Transition", "oid", orderId, "from", order.Status, "to", target)
	return updatedOrder, nil
}
