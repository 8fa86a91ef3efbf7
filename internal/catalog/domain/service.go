package domain

import (
	"context"
	"errors"
)

// Service is the read side of the catalog used by checkout and the storefront API.
type Service interface {
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, error)
}

type ListRequest struct {
	Category string `form:"category"`
}

var (
	ErrProductNotFound = errors.New("product_not_found")
	ErrInvalidSlug     = errors.New("invalid_slug")
)
