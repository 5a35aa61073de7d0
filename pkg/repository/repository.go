// Package repository provides a small generic persistence layer on top of gorm.
package repository

import (
	"context"

	"github.com/smallbiznis/gomart/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic data access contract shared by domain services.
type Repository[T any] interface {
	// WithTrx returns a repository bound to the given transaction handle.
	WithTrx(tx *gorm.DB) Repository[T]

	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)

	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	Update(ctx context.Context, resourceID string, resource any) error
	Delete(ctx context.Context, resourceID string) error
}
