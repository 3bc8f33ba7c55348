// Package apperr builds the status errors returned by the service layer.
//
// Every error is a grpc status carrying an errdetails.ErrorInfo whose Reason
// distinguishes business rules that share a status code (Overpayment and
// HasOutstandingBalance are both FailedPrecondition).
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const errorDomain = "pos.business"

const (
	ReasonValidation            = "VALIDATION"
	ReasonUnauthenticated       = "UNAUTHENTICATED"
	ReasonPermissionDenied      = "PERMISSION_DENIED"
	ReasonNotFound              = "NOT_FOUND"
	ReasonAlreadyExists         = "ALREADY_EXISTS"
	ReasonInvalidState          = "INVALID_STATE"
	ReasonOverpayment           = "OVERPAYMENT"
	ReasonHasOutstandingBalance = "HAS_OUTSTANDING_BALANCE"
	ReasonTimeout               = "TIMEOUT"
	ReasonInternal              = "INTERNAL"
)

// Postgres SQLSTATE codes we translate.
const (
	pgQueryCanceled    = "57014"
	pgUniqueViolation  = "23505"
	pgForeignKeyViolat = "23503"
)

func newError(code codes.Code, reason, format string, args ...interface{}) error {
	st := status.New(code, fmt.Sprintf(format, args...))
	if detailed, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain}); err == nil {
		st = detailed
	}
	return st.Err()
}

func Validation(format string, args ...interface{}) error {
	return newError(codes.InvalidArgument, ReasonValidation, format, args...)
}

func Unauthenticated(format string, args ...interface{}) error {
	return newError(codes.Unauthenticated, ReasonUnauthenticated, format, args...)
}

func PermissionDenied(format string, args ...interface{}) error {
	return newError(codes.PermissionDenied, ReasonPermissionDenied, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(codes.NotFound, ReasonNotFound, format, args...)
}

func AlreadyExists(format string, args ...interface{}) error {
	return newError(codes.AlreadyExists, ReasonAlreadyExists, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return newError(codes.FailedPrecondition, ReasonInvalidState, format, args...)
}

func Overpayment(format string, args ...interface{}) error {
	return newError(codes.FailedPrecondition, ReasonOverpayment, format, args...)
}

func HasOutstandingBalance(format string, args ...interface{}) error {
	return newError(codes.FailedPrecondition, ReasonHasOutstandingBalance, format, args...)
}

func Timeout(format string, args ...interface{}) error {
	return newError(codes.DeadlineExceeded, ReasonTimeout, format, args...)
}

func Internal(format string, args ...interface{}) error {
	return newError(codes.Internal, ReasonInternal, format, args...)
}

// FromDB converts a datastore error into a status error. Errors that already
// carry a status pass through unchanged, so it is safe to call on the result
// of a gorm Transaction whose callback returned apperr values.
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s not found", what)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout("%s: datastore deadline exceeded", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgQueryCanceled:
			return Timeout("%s: query canceled by statement timeout", what)
		case pgUniqueViolation:
			return AlreadyExists("%s already exists", what)
		case pgForeignKeyViolat:
			return InvalidState("%s is still referenced", what)
		}
	}

	return Internal("%s: %v", what, err)
}

// Reason returns the ErrorInfo reason carried by err, or "" when err is not a
// status error built by this package.
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

// Is reports whether err carries the given reason.
func Is(err error, reason string) bool {
	return err != nil && Reason(err) == reason
}

// HTTPStatus maps a status error to the HTTP status code the gateway returns.
func HTTPStatus(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch st.Code() {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded, codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human readable part of a status error.
func Message(err error) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}

// IsInternal reports whether err should be hidden from API callers.
func IsInternal(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	switch st.Code() {
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return true
	}
	return false
}
