package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name, price, images, category, active, created_at, updated_at
		 FROM products WHERE slug = ?`,
		slug,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("active = ?", true)

	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}

	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert inserts a product or refreshes the mutable columns of an existing slug.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, slug, name, price, images, category, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (slug) DO UPDATE
		 SET name = excluded.name, price = excluded.price, images = excluded.images,
		     category = excluded.category, active = excluded.active, updated_at = excluded.updated_at`,
		product.ID,
		product.Slug,
		product.Name,
		product.Price,
		product.Images,
		product.Category,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}
