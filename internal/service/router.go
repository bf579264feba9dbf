package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"splittab/internal/auth"
	"splittab/internal/chat"
	"splittab/internal/middleware"
	"splittab/internal/storage"
)

// NewRouter builds the gin engine with the full API surface wired in.
func NewRouter(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, assistant *chat.Assistant, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(allowedOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Expense Splitter API",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authService := NewAuthService(authenticator, jwtManager)
	groupService := NewGroupService(store)
	expenseService := NewExpenseService(store)
	settlementService := NewSettlementService(store)
	chatService := NewChatService(store, assistant)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authService.Register)
		authRoutes.POST("/login", authService.Login)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(jwtManager))
	{
		groups := authed.Group("/groups")
		{
			groups.GET("", groupService.ListGroups)
			groups.POST("", groupService.CreateGroup)
			groups.GET("/:id", groupService.GetGroup)
			groups.PATCH("/:id", groupService.UpdateGroup)
			groups.DELETE("/:id", groupService.DeleteGroup)
			groups.POST("/:id/members", groupService.AddMember)
			groups.DELETE("/:id/members/:userID", groupService.RemoveMember)
		}

		expenses := authed.Group("/expenses")
		{
			expenses.GET("", expenseService.ListExpenses)
			expenses.POST("", expenseService.CreateExpense)
			expenses.GET("/export", expenseService.ExportExpenses)
			expenses.GET("/:id", expenseService.GetExpense)
			expenses.PATCH("/:id", expenseService.UpdateExpense)
			expenses.DELETE("/:id", expenseService.DeleteExpense)
		}

		settlements := authed.Group("/settlements")
		{
			settlements.GET("/group/:groupID", settlementService.GetSettlements)
			settlements.POST("/pay", settlementService.RecordPayment)
			settlements.GET("/payments/:groupID", settlementService.ListPayments)
			settlements.GET("/dashboard/:groupID", settlementService.GetDashboard)
		}

		authed.POST("/chat", chatService.Chat)
	}

	return r
}
