package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"gorm.io/gorm"
)

type demoProduct struct {
	Name     string
	Slug     string
	Price    int64
	Category string
	Images   []string
}

var demoCatalog = []demoProduct{
	{
		Name:     "Air Force 1",
		Slug:     "airForce1",
		Price:    800000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/airForce1.webp", "/images/shots/shot2.webp", "/images/shots/shot3.jpeg"},
	},
	{
		Name:     "Lebron Black",
		Slug:     "blackLebron",
		Price:    2450000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/blackLebron.webp", "/images/shots/shotlebron1.avif"},
	},
	{
		Name:     "SB Low Brown",
		Slug:     "brownsb",
		Price:    1650000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/brownsb.webp", "/images/shots/shotlowbron1.webp"},
	},
	{
		Name:     "BRSB",
		Slug:     "brsb",
		Price:    1899000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/brsb.webp", "/images/shots/shotbrsb1.avif"},
	},
	{
		Name:     "Dunk Low",
		Slug:     "dunklow",
		Price:    1000000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/dunklow.webp"},
	},
	{
		Name:     "Jordan 1 Retro High",
		Price:    3500000,
		Category: "Men's shoes",
		Images:   []string{"/images/products/jordan-1-retro-high.webp"},
	},
}

// EnsureDemoCatalog inserts the demo products that are missing. Existing rows are left untouched
// so operator price changes survive a restart.
func EnsureDemoCatalog(ctx context.Context, db *gorm.DB, repo catalogdomain.Repository, node *snowflake.Node, clk clock.Clock) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}

	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoCatalog {
			productSlug := strings.TrimSpace(demo.Slug)
			if productSlug == "" {
				productSlug = slug.Make(demo.Name)
			}

			existing, err := repo.FindBySlug(ctx, tx, productSlug)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			now := clk.Now()
			if err := repo.Upsert(ctx, tx, &catalogdomain.Product{
				ID:        node.Generate().Int64(),
				Slug:      productSlug,
				Name:      demo.Name,
				Price:     demo.Price,
				Images:    demo.Images,
				Category:  demo.Category,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
