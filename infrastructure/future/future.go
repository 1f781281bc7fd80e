package future

import (
	"time"
)

//400 - Bad Request - any request not properly formed for the core to parse it
//403 - Forbidden - requester is not allowed to touch the entity (review delete by stranger)
//404 - Not Found - unknown order/product/bill/review id
//406 - Not Accepted - an attempt on an action the entity no longer accepts, such as a
//      status transition out of completed/cancelled or paying an already paid bill
//409 - Conflict - anything which causes uniqueness conflicts, a second bill for an order,
//      a duplicate bill number on retry
//422 - Validation Errors - bad discount config, out-of-range rating, unknown enum value

type ErrorCode int32

const (
	BadRequest      ErrorCode = 400
	Forbidden       ErrorCode = 403
	NotFound        ErrorCode = 404
	NotAccepted     ErrorCode = 406
	Conflict        ErrorCode = 409
	ValidationError ErrorCode = 422
	InternalError   ErrorCode = 500
)

type IFuture interface {
	Get() IDataFuture
	GetTimeout(duration time.Duration) IDataFuture
	Count() int
	Capacity() int
}

type IDataFuture interface {
	Data() interface{}
	Error() IErrorFuture
}

type IErrorFuture interface {
	error
	Code() ErrorCode
	Message() string
	Reason() error
}

// NewError builds an IErrorFuture usable as a plain error return, so
// synchronous domain services and future-based collaborators share one
// error vocabulary.
func NewError(code ErrorCode, message string, reason error) IErrorFuture {
	return &iErrorFutureImpl{code: code, message: message, reason: reason}
}

// CodeOf extracts the ErrorCode of an error produced by NewError or a
// future pipeline, InternalError for anything else.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	if errFuture, ok := err.(IErrorFuture); ok {
		return errFuture.Code()
	}
	return InternalError
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
