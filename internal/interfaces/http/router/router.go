package router

import (
	application "github.com/factorpool/backend/internal/application/factoring"
	"github.com/factorpool/backend/internal/infrastructure/auth"
	"github.com/factorpool/backend/internal/infrastructure/config"
	"github.com/factorpool/backend/internal/infrastructure/persistence"
	"github.com/factorpool/backend/internal/interfaces/http/handler"
	"github.com/factorpool/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies bundles everything the router mounts
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Engine     *application.Engine
	Database   *persistence.Database
	Registry   *persistence.GormReceivableRegistry
	Access     *persistence.GormAccessController
	JWTService *auth.JWTService
	Version    string
}

// New builds the HTTP router with all routes and middleware mounted
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	r := gin.New()
	if len(deps.Config.HTTP.TrustedProxies) > 0 {
		_ = r.SetTrustedProxies(deps.Config.HTTP.TrustedProxies)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Logger),
	)
	if deps.Config.Telemetry.TracingEnabled {
		r.Use(middleware.Tracing(deps.Config.Telemetry.ServiceName))
	}
	r.Use(
		middleware.RequestLogger(deps.Logger),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: deps.Config.HTTP.CORSAllowOrigins,
			AllowMethods: deps.Config.HTTP.CORSAllowMethods,
			AllowHeaders: deps.Config.HTTP.CORSAllowHeaders,
		}),
		middleware.BodySizeLimit(deps.Config.HTTP.MaxBodySize),
	)

	systemHandler := handler.NewSystemHandler(deps.Database, deps.Version, deps.Logger)
	factoringHandler := handler.NewFactoringHandler(deps.Engine, deps.Logger)
	poolHandler := handler.NewPoolHandler(deps.Engine, deps.Access, deps.Logger)
	redemptionHandler := handler.NewRedemptionHandler(deps.Engine, deps.Logger)
	registryHandler := handler.NewRegistryHandler(deps.Registry, deps.Logger)

	r.GET("/health", systemHandler.Health)

	api := r.Group("/api/v1")

	// Development token minting stays off in production; identity comes
	// from an external provider there.
	if deps.Config.App.Env != "production" {
		authHandler := handler.NewAuthHandler(deps.JWTService, deps.Logger)
		api.POST("/auth/token", authHandler.Token)
	}

	api.Use(middleware.JWTAuth(deps.JWTService))
	{
		api.GET("/system/stats", systemHandler.Stats)

		factoring := api.Group("/factoring")
		{
			factoring.POST("/approvals", factoringHandler.Approve)
			factoring.GET("/approvals/:id", factoringHandler.GetApproval)
			factoring.GET("/approvals/:id/quote", factoringHandler.QuoteFunding)
			factoring.GET("/approvals/:id/unfactor", factoringHandler.PreviewUnfactor)
			factoring.POST("/approvals/:id/unfactor", factoringHandler.Unfactor)
			factoring.POST("/approvals/:id/impair", factoringHandler.Impair)
			factoring.POST("/fundings", factoringHandler.Fund)
			factoring.POST("/reconcile", factoringHandler.Reconcile)
			factoring.GET("/receivables", factoringHandler.ActiveStatuses)
			factoring.GET("/receivables/paid", factoringHandler.PaidStatuses)
			factoring.GET("/receivables/impaired", factoringHandler.ImpairedStatuses)
		}

		pool := api.Group("/pool")
		{
			pool.POST("/bootstrap", poolHandler.Bootstrap)
			pool.GET("/status", poolHandler.Status)
			pool.PUT("/settings", poolHandler.UpdateSettings)
			pool.POST("/reserve/top-up", poolHandler.TopUpReserve)
			pool.POST("/fees/protocol/withdraw", poolHandler.WithdrawProtocolFees)
			pool.POST("/fees/admin/withdraw", poolHandler.WithdrawAdminFees)
			pool.POST("/roles", poolHandler.GrantRole)
			pool.DELETE("/roles", poolHandler.RevokeRole)

			pool.POST("/deposits", redemptionHandler.Deposit)
			pool.POST("/redemptions", redemptionHandler.Redeem)
			pool.POST("/withdrawals", redemptionHandler.Withdraw)
			pool.GET("/queue", redemptionHandler.ViewQueue)
			pool.POST("/queue/process", redemptionHandler.ProcessQueue)
		}

		registry := api.Group("/registry")
		{
			registry.POST("/receivables", registryHandler.Issue)
			registry.GET("/receivables/:id", registryHandler.Get)
			registry.POST("/receivables/:id/payments", registryHandler.RecordPayment)
			registry.POST("/receivables/:id/cancel", registryHandler.Cancel)
			registry.POST("/receivables/:id/reject", registryHandler.Reject)
		}
	}

	return r
}
