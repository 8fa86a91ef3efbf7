package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	Upsert(ctx context.Context, db *gorm.DB, product *Product) error
}
