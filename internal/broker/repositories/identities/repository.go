// Package identities persists broker identity records: the credential
// verifier, the relay endpoint and the current transaction of each uid.
package identities

import (
	"context"

	"github.com/dmitrijs2005/gophguard/internal/models"
)

// UpdateFunc receives the current record (nil when uid is unknown) and
// returns the record to store. Returning a nil record deletes the identity;
// returning an error aborts the update and leaves storage untouched.
type UpdateFunc func(current *models.Record) (*models.Record, error)

// Repository is the authorization store. Implementations serialize Update
// calls per uid so a read-modify-write never interleaves with another.
type Repository interface {
	// Get returns the record of uid or common.ErrorNotFound.
	Get(ctx context.Context, uid string) (*models.Record, error)
	// Update applies fn to the record of uid atomically.
	Update(ctx context.Context, uid string, fn UpdateFunc) error
}
