package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Product is the authoritative price source for checkout.
type Product struct {
	ID        int64                       `json:"id,string" gorm:"primaryKey"`
	Slug      string                      `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_products_slug"`
	Name      string                      `json:"name" gorm:"type:text;not null"`
	Price     int64                       `json:"price" gorm:"not null"`
	Images    datatypes.JSONSlice[string] `json:"images" gorm:"type:jsonb"`
	Category  string                      `json:"category" gorm:"type:text;not null;default:''"`
	Active    bool                        `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time                   `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time                   `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// PrimaryImage returns the first image reference, or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
