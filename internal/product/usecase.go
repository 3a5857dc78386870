package product

import (
	"context"

	"alsaraya/internal/domain"
)

type catalogUseCase struct {
	service Service
}

func NewCatalogUseCase(service Service) CatalogUseCase {
	return &catalogUseCase{service: service}
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, category string) (*ListProductsResponse, error) {
	found, err := uc.service.ListProducts(ctx, category)
	if err != nil {
		return nil, err
	}

	products := toDTOs(found)
	return &ListProductsResponse{
		Products: products,
		Count:    len(products),
	}, nil
}

func (uc *catalogUseCase) SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error) {
	found, notFoundIDs, err := uc.service.GetProductsByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}

	if notFoundIDs == nil {
		notFoundIDs = []int{}
	}

	return &SearchProductsResponse{
		Products: toDTOs(found),
		NotFound: notFoundIDs,
	}, nil
}

func toDTOs(found []domain.Product) []ProductDTO {
	products := make([]ProductDTO, 0, len(found))
	for _, p := range found {
		products = append(products, ProductDTO{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			Category:      p.Category,
			IikoProductID: p.ExternalProductID.String(),
			Available:     p.ExternalProductID.IsMapped(),
		})
	}
	return products
}
