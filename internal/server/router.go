package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"alsaraya/internal/diagnostics"
	ordercontroller "alsaraya/internal/order/controller"
	"alsaraya/internal/product"
)

func NewRouter(
	productCtrl *product.Controller,
	orderCtrl *ordercontroller.OrderController,
	diagCtrl *diagnostics.Controller,
	timeout time.Duration,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/products", productCtrl.HandleListProducts)
	r.Post("/products/search", productCtrl.HandleSearchProducts)

	r.Post("/orders", orderCtrl.PlaceOrder)
	r.Get("/orders/{id}", orderCtrl.GetOrder)

	diagCtrl.Routes(r)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
