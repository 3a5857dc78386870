package order

import (
	"database/sql"

	"go.uber.org/zap"

	"alsaraya/internal/config"
	"alsaraya/internal/order/controller"
	orderrepo "alsaraya/internal/order/repository"
	"alsaraya/internal/order/service"
	"alsaraya/internal/order/usecase"
)

// NewModule assembles the checkout flow on top of MySQL. The submitter, status
// cache and catalog are built by the caller because they are shared.
func NewModule(
	db *sql.DB,
	sub usecase.OrderSubmitter,
	cache usecase.StatusCache,
	catalog usecase.ProductCatalog,
	cfg *config.Config,
	logger *zap.Logger,
) *controller.OrderController {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)

	store := service.NewOrderStore(db, orderRepo, orderItemRepo, cfg.Order.TxTimeout, logger)

	uc := usecase.NewPlaceOrderUseCase(
		store,
		sub,
		cache,
		usecase.Config{
			CountryCode:      cfg.Delivery.CountryCode,
			SubmitTimeout:    cfg.Order.SubmitTimeout,
			MaxRetryAttempts: cfg.Order.MaxRetryAttempts,
		},
		logger,
		usecase.WithCatalog(catalog),
	)

	return controller.NewOrderController(uc, logger)
}
