package user_service

import (
	"context"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
)

type CtxKey string

// CtxUserId carries the authenticated caller's id on a request context.
const CtxUserId CtxKey = "userId"

const (
	RoleCustomer string = "customer"
	RoleStaff    string = "staff"
	RoleAdmin    string = "admin"
)

type UserInfo struct {
	UserId uint64
	Role   string
}

// IUserService supplies the identity behind a request, used for the
// authorization gates around status transitions and bill generation.
type IUserService interface {
	// GetUser resolves a user id. Data of the returned future is *UserInfo.
	GetUser(ctx context.Context, userId uint64) future.IFuture

	// AuthenticateContextToken validates the bearer token carried in ctx
	// and returns the *UserInfo it belongs to.
	AuthenticateContextToken(ctx context.Context) future.IFuture
}
