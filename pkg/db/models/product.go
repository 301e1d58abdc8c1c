package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing.
type Product struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	BriefDescription *string         `gorm:"column:brief_description"`
	FullDescription  *string         `gorm:"column:full_description"`
	ImageURL         *string         `gorm:"column:image_url"`
	AdditionalImages []string        `gorm:"column:additional_images;type:jsonb;serializer:json"`
	CategoryID       *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category         *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	InStock          bool            `gorm:"column:in_stock;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.AdditionalImages == nil {
		p.AdditionalImages = []string{}
	}
	return nil
}
