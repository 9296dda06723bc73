package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "RESOURCE_NOT_FOUND"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindCartEmpty         Kind = "CART_EMPTY"
	KindConflict          Kind = "CONFLICT"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "ACCESS_DENIED"
	KindInternal          Kind = "INTERNAL_SERVER_ERROR"
)

// Error is the caller-visible failure of a storefront operation.
// Details carries structured diagnostics that are rendered into the error response.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFound(resource, field string, value any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found with %s: '%v'", resource, field, value),
	}
}

func BadRequest(msg string) *Error {
	return New(KindBadRequest, msg)
}

func CartEmpty() *Error {
	return New(KindCartEmpty, "Cart is empty")
}

func Conflict(msg string) *Error {
	return New(KindConflict, msg)
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, msg)
}

func Unauthorized(msg string) *Error {
	return New(KindUnauthorized, msg)
}

// InsufficientStock reports a reservation or availability check that asked
// for more units than the product currently holds.
func InsufficientStock(productID, productName string, requested, available int) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for product '%s'. Requested: %d, Available: %d",
			productName, requested, available),
		Details: map[string]any{
			"productId":   productID,
			"productName": productName,
			"requested":   requested,
			"available":   available,
		},
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
