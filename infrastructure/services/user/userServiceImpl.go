package user_service

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	"net/http"
	"time"
)

type iUserServiceImpl struct {
	httpClient    *http.Client
	serverAddress string
	serverPort    int
}

func NewUserService(serverAddress string, serverPort int) IUserService {
	return &iUserServiceImpl{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		serverAddress: serverAddress,
		serverPort:    serverPort,
	}
}

type userResponse struct {
	UserId uint64 `json:"userId"`
	Role   string `json:"role"`
}

func (service iUserServiceImpl) GetUser(ctx context.Context, userId uint64) future.IFuture {
	url := fmt.Sprintf("http://%s:%d/v1/users/%d", service.serverAddress, service.serverPort, userId)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "NewRequest Failed")).
			BuildAndSend()
	}

	response, err := service.httpClient.Do(request)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("user service request failed",
			"fn", "GetUser", "uid", userId, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "UserService Unreachable")).
			BuildAndSend()
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusNotFound {
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "User Not Found",
				errors.Errorf("user %d not found", userId)).
			BuildAndSend()
	}
	if response.StatusCode != http.StatusOK {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error",
				errors.Errorf("user service returned status %d", response.StatusCode)).
			BuildAndSend()
	}

	var payload userResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "Decode Response Failed")).
			BuildAndSend()
	}

	return future.Factory().SetCapacity(1).
		SetData(&UserInfo{UserId: payload.UserId, Role: payload.Role}).
		BuildAndSend()
}

func (service iUserServiceImpl) AuthenticateContextToken(ctx context.Context) future.IFuture {
	userId, ok := ctx.Value(CtxUserId).(uint64)
	if !ok {
		return future.Factory().SetCapacity(1).
			SetError(future.Forbidden, "User Not Authorized",
				errors.New("user id missing from context")).
			BuildAndSend()
	}
	return service.GetUser(ctx, userId)
}
