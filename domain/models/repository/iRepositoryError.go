package repository

import "github.com/pkg/errors"

type ErrorCode int

const (
	BadRequestErr  ErrorCode = 400
	ForbiddenErr   ErrorCode = 403
	NotFoundErr    ErrorCode = 404
	NotAcceptedErr ErrorCode = 406
	ConflictErr    ErrorCode = 409
	ValidationErr  ErrorCode = 422
	InternalErr    ErrorCode = 500
)

var ErrorTotalCountExceeded = errors.New("total count exceeded")
var ErrorPageNotAvailable = errors.New("page not available")
var ErrorUpdateFailed = errors.New("update document failed")
var ErrorVersionUpdateFailed = errors.New("update document version failed")

type IRepoError interface {
	error
	Code() ErrorCode
	Message() string
	Reason() error
}
