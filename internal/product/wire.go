package product

import (
	"go.uber.org/zap"
)

func NewModule(repo Repository, logger *zap.Logger) *Controller {
	svc := NewService(repo)
	uc := NewCatalogUseCase(svc)
	return NewController(uc, logger)
}
