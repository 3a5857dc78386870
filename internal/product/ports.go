package product

import (
	"context"

	"alsaraya/internal/domain"
)

type CatalogUseCase interface {
	ListProducts(ctx context.Context, category string) (*ListProductsResponse, error)
	SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error)
}

type Service interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int) (found []domain.Product, notFoundIDs []int, err error)
}

type Repository interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
}
