package user_service

import (
	"context"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	"sync"
)

type iUserServiceMock struct {
	mutex sync.Mutex
	users map[uint64]UserInfo
}

func NewUserServiceMock() IUserService {
	return &iUserServiceMock{users: make(map[uint64]UserInfo)}
}

// SeedUser registers a user with the mock.
func SeedUser(service IUserService, user UserInfo) {
	mock, ok := service.(*iUserServiceMock)
	if !ok {
		return
	}
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.users[user.UserId] = user
}

func (service *iUserServiceMock) GetUser(ctx context.Context, userId uint64) future.IFuture {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	user, ok := service.users[userId]
	if !ok {
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "User Not Found",
				errors.Errorf("user %d not found", userId)).
			BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(&user).BuildAndSend()
}

func (service *iUserServiceMock) AuthenticateContextToken(ctx context.Context) future.IFuture {
	userId, ok := ctx.Value(CtxUserId).(uint64)
	if !ok {
		return future.Factory().SetCapacity(1).
			SetError(future.Forbidden, "User Not Authorized",
				errors.New("user id missing from context")).
			BuildAndSend()
	}
	return service.GetUser(ctx, userId)
}
