package api

import (
	"github.com/coursebill/coursebill/internal/api/cron"
	v1 "github.com/coursebill/coursebill/internal/api/v1"
	"github.com/coursebill/coursebill/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health      *v1.HealthHandler
	Order       *v1.OrderHandler
	CronPayment *cron.PaymentHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	// cron routes, triggered by the scheduler rather than end users
	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	orders := router.Group("/orders")
	{
		orders.POST("", handlers.Order.CreateOrder)
		orders.GET("/:id", handlers.Order.GetOrder)
		orders.POST("/:id/assign", handlers.Order.AssignOrganization)
		orders.POST("/:id/contract", handlers.Order.SubmitContract)
		orders.POST("/:id/contract/sign", handlers.Order.MarkContractSigned)
		orders.POST("/:id/payment-method", handlers.Order.AttachPaymentMethod)
		orders.POST("/:id/retry-payment", handlers.Order.RetryPayment)
		orders.POST("/:id/cancel", handlers.Order.CancelOrder)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	payments := router.Group("/payments")
	{
		payments.POST("/collect", handlers.CronPayment.ProcessDueInstallments)
		payments.POST("/remind", handlers.CronPayment.SendPaymentReminders)
	}
}
