package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a storefront catalog row. ExternalProductID correlates it with the
// POS menu; the POS decides existence, the storefront owns display.
type Product struct {
	ID                 int
	Name               string
	Description        string
	Price              decimal.Decimal
	Category           string
	ExternalProductID  ExternalID
	ExternalCategoryID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProductFields lists the columns the catalog sync is allowed to overwrite.
type ProductFields struct {
	Name               string
	Description        string
	Price              decimal.Decimal
	Category           string
	ExternalProductID  ExternalID
	ExternalCategoryID *string
}
