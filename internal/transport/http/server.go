package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "facelyze-api/internal/app"
	"facelyze-api/internal/bootstrap"
	"facelyze-api/internal/cache"
	"facelyze-api/internal/repository"
	"facelyze-api/internal/transport/http/handler"
	"facelyze-api/internal/transport/http/middleware"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestLogger(app.Logger),
		middleware.Recovery(app.Logger),
		middleware.Metrics(app.Metrics),
	)

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	cfg := app.Config
	userRepo := repository.NewUserRepository(app.DB)
	analysisRepo := repository.NewAnalysisRepository(app.DB)
	ledgerRepo := repository.NewTokenLedgerRepository(app.DB)
	productRepo := repository.NewProductRepository(app.DB)

	deps := appsvc.AnalysisDeps{
		Users:     userRepo,
		Analyses:  analysisRepo,
		Ledger:    ledgerRepo,
		Flows:     app.Flows,
		Screener:  app.Screener,
		Publisher: app.Publisher,
		Metrics:   app.Metrics,
		Logger:    app.Logger,
	}
	var contentCache appsvc.ContentCache
	if app.Redis != nil {
		deps.History = cache.NewHistoryCache(app.Redis, seconds(cfg.Redis.HistoryTTLSeconds), seconds(cfg.Redis.HistoryDirtyTTLSeconds))
		deps.Previews = cache.NewPreviewStore(app.Redis, seconds(cfg.Redis.PreviewTTLSeconds))
		contentCache = cache.NewContentCache(app.Redis, seconds(cfg.Redis.ContentTTLSeconds))
	}

	authService := appsvc.NewAuthService(
		userRepo,
		ledgerRepo,
		app.Metrics,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		cfg.Tokens.InitialGrant,
	)
	walletService := appsvc.NewWalletService(userRepo, ledgerRepo, app.Metrics)
	analysisService := appsvc.NewAnalysisService(deps, appsvc.Pricing{
		AnalysisCost:    cfg.Tokens.AnalysisCost,
		QuickCost:       cfg.Tokens.QuickCost,
		PromoMilestones: cfg.Tokens.PromoMilestones,
	}, cfg.LLM.MaxPhotoSide)
	coachingService := appsvc.NewCoachingService(userRepo, analysisRepo, app.Flows, contentCache, app.Metrics, app.Logger)
	storeService := appsvc.NewStoreService(productRepo, ledgerRepo, cfg.Payment, app.Metrics, app.Logger)

	authHandler := handler.NewAuthHandler(authService)
	walletHandler := handler.NewWalletHandler(walletService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	coachingHandler := handler.NewCoachingHandler(coachingService)
	storeHandler := handler.NewStoreHandler(storeService)
	adminHandler := handler.NewAdminHandler(walletService)
	visionHandler := handler.NewVisionHandler(app.Screener)

	requireAuth := middleware.AuthJWT(cfg.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	walletGroup := v1.Group("/wallet", requireAuth)
	walletGroup.GET("", walletHandler.Balance)
	walletGroup.GET("/ledger", walletHandler.Ledger)

	analysisGroup := v1.Group("/analyses")
	analysisGroup.POST("/guest", analysisHandler.Guest)
	analysisGroup.Use(requireAuth)
	analysisGroup.POST("", analysisHandler.Create)
	analysisGroup.GET("", analysisHandler.List)
	analysisGroup.GET("/:id", analysisHandler.Get)
	analysisGroup.POST("/claim", analysisHandler.Claim)
	analysisGroup.POST("/quick-score", analysisHandler.QuickScore)
	analysisGroup.POST("/features", analysisHandler.Features)

	v1.PUT("/profile/goal", requireAuth, coachingHandler.SaveGoal)

	coachingGroup := v1.Group("/coaching", requireAuth)
	coachingGroup.POST("/learning-plan", coachingHandler.LearningPlan)
	coachingGroup.POST("/advisory", coachingHandler.AdvisorySteps)
	coachingGroup.GET("/advisory", coachingHandler.AdvisoryContent)
	coachingGroup.POST("/recommendations", coachingHandler.Recommendations)

	storeGroup := v1.Group("/store")
	storeGroup.GET("/packs", storeHandler.Packs)
	storeGroup.GET("/products", storeHandler.Products)
	storeGroup.POST("/webhook", storeHandler.Webhook)

	adminGroup := v1.Group("/admin", requireAuth, middleware.RequireAdmin(cfg.IsAdmin))
	adminGroup.POST("/grant", adminHandler.Grant)
	adminGroup.GET("/users", adminHandler.Users)
	adminGroup.POST("/screen", visionHandler.Screen)

	return router
}
