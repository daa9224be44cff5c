package server

import (
	"context"
	"net/http"

	"anime-storefront/internal/handler"
	appmiddleware "anime-storefront/internal/middleware"
	"anime-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Payment  service.PaymentService
	Settings service.PaymentSettingsService
	Order    service.OrderService
	Cart     service.CartService
	Cleanup  service.CleanupService
	Stock    service.StockService
}

type Server struct {
	echo           *echo.Echo
	jwtSecret      string
	paymentHandler *handler.PaymentHandler
	orderHandler   *handler.OrderHandler
	cartHandler    *handler.CartHandler
	adminHandler   *handler.AdminHandler
}

func NewServer(svc Services, scheduler handler.CleanupScheduler, jwtSecret string, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		jwtSecret:      jwtSecret,
		paymentHandler: handler.NewPaymentHandler(svc.Payment, svc.Settings),
		orderHandler:   handler.NewOrderHandler(svc.Order),
		cartHandler:    handler.NewCartHandler(svc.Cart),
		adminHandler:   handler.NewAdminHandler(svc.Cleanup, scheduler, svc.Settings, svc.Stock),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	auth := appmiddleware.AuthMiddleware(s.jwtSecret)
	admin := appmiddleware.AdminOnly()

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- payments --------
	payments := api.Group("/payments")
	payments.GET("/methods", s.paymentHandler.Methods)
	payments.POST("/card", s.paymentHandler.PayWithCard, auth)

	phonepe := payments.Group("/phonepe")
	phonepe.POST("/initiate", s.paymentHandler.Initiate, auth)
	phonepe.GET("/status/:merchantTransactionId", s.paymentHandler.Status, auth)
	phonepe.POST("/refund", s.paymentHandler.Refund, auth, admin)
	phonepe.GET("/refund/:refundId/status", s.paymentHandler.RefundStatus, auth, admin)

	// -------- gateway callbacks, no user session --------
	phonepe.POST("/callback", s.paymentHandler.Callback)
	phonepe.GET("/redirect", s.paymentHandler.Redirect)
	phonepe.POST("/redirect", s.paymentHandler.Redirect)

	// -------- cart --------
	cart := api.Group("/cart", auth)
	cart.GET("", s.cartHandler.Get)
	cart.POST("", s.cartHandler.AddItem)
	cart.DELETE("", s.cartHandler.Clear)
	cart.PATCH("/items/:productId", s.cartHandler.UpdateItem)
	cart.DELETE("/items/:productId", s.cartHandler.RemoveItem)

	// -------- orders --------
	orders := api.Group("/orders", auth)
	orders.POST("", s.orderHandler.Create)
	orders.GET("", s.orderHandler.List)
	orders.GET("/:orderNumber", s.orderHandler.Get)

	// -------- admin --------
	adminGroup := api.Group("/admin", auth, admin)
	adminGroup.PUT("/orders/:orderNumber/status", s.orderHandler.UpdateStatus)
	adminGroup.GET("/orders/pending-stats", s.adminHandler.PendingStats)
	adminGroup.POST("/orders/cleanup", s.adminHandler.Cleanup)
	adminGroup.GET("/scheduler/status", s.adminHandler.SchedulerStatus)
	adminGroup.POST("/scheduler/force-cleanup", s.adminHandler.ForceCleanup)
	adminGroup.PUT("/settings/payment", s.adminHandler.UpdatePaymentSettings)
	adminGroup.GET("/stock", s.adminHandler.ListStock)
	adminGroup.PUT("/stock", s.adminHandler.SetStock)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
