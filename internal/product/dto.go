package product

import "github.com/shopspring/decimal"

type SearchProductsRequest struct {
	ProductIDs []int `json:"productIds"`
}

type SearchProductsResponse struct {
	Products []ProductDTO `json:"products"`
	NotFound []int        `json:"notFound"`
}

type ListProductsResponse struct {
	Products []ProductDTO `json:"products"`
	Count    int          `json:"count"`
}

// ProductDTO is the storefront view of a catalog row. IikoProductID is empty
// for products the POS does not know yet.
type ProductDTO struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	IikoProductID string          `json:"iikoProductId,omitempty"`
	Available     bool            `json:"availableInPos"`
}
