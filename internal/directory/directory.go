// Package directory resolves user ids to contact details. The wider product
// owns the user table; this service only reads it.
package directory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user exists for the given id.
var ErrNotFound = errors.New("user not found")

type Contact struct {
	Email       string
	DisplayName string
}

type Directory interface {
	GetUserContact(ctx context.Context, userID string) (Contact, error)
}
