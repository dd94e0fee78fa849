package server

import "github.com/gin-gonic/gin"

// ApiHandleFunctions groups the handler sets wired into the router.
type ApiHandleFunctions struct {
	OrdersAPI OrdersAPI
	HealthAPI HealthAPI
	// RealtimeConnect upgrades GET /ws to the viewer WebSocket channel.
	RealtimeConnect gin.HandlerFunc
}

// NewRouter registers all routes on a fresh gin engine. Middleware must be
// supplied here so it wraps every route.
func NewRouter(handlers ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(middleware...)

	router.GET("/health", handlers.HealthAPI.Liveness)

	orders := router.Group("/orders")
	{
		orders.GET("", handlers.OrdersAPI.ListOrders)
		orders.POST("", handlers.OrdersAPI.CreateOrder)
		orders.GET("/stats", handlers.OrdersAPI.StatusStats)
		orders.GET("/health", handlers.OrdersAPI.ServiceHealth)
		orders.POST("/bulk", handlers.OrdersAPI.BulkCreate)
		orders.PUT("/bulk", handlers.OrdersAPI.BulkUpdate)
		orders.DELETE("/bulk", handlers.OrdersAPI.BulkDelete)
		orders.GET("/:orderId", handlers.OrdersAPI.GetOrder)
		orders.PUT("/:orderId", handlers.OrdersAPI.UpdateOrder)
		orders.DELETE("/:orderId", handlers.OrdersAPI.DeleteOrder)
	}

	if handlers.RealtimeConnect != nil {
		router.GET("/ws", handlers.RealtimeConnect)
	}

	return router
}
