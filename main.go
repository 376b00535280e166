package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"webasset/config"
	"webasset/handler"
	"webasset/middleware"
	"webasset/repository"
	"webasset/services"
	"webasset/usecase"
	"webasset/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	utils.InitValidator()

	if err := utils.InitMongoClient(cfg.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := repository.SetupIndexes(utils.MongoClient.Database(cfg.MongoDB)); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	var cache *services.SessionCountCache
	if cfg.RedisURL != "" {
		cache, err = services.NewSessionCountCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, session counts will not be cached: %v", err)
			cache = nil
		}
	}

	automation := services.NewLoginAutomation(cfg.ArtifactDir, cfg.HeadlessBrowser, cfg.SelectorTimeout)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		log.Printf("Caught signal %s, shutting down", sig)
		if err := automation.Shutdown(); err != nil {
			log.Printf("Error shutting down browser automation: %v", err)
		}
		if err := utils.MongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
		os.Exit(0)
	}()

	users := repository.GetUserRepo(utils.MongoClient, cfg.MongoDB)
	sites := repository.GetSiteRepo(utils.MongoClient, cfg.MongoDB)
	kasm := services.NewKasmClient(cfg.Kasm)
	infisical := services.NewInfisicalClient(cfg.Infisical)
	credentials := repository.GetCredentialRepo(utils.MongoClient, cfg.MongoDB)
	svc := &usecase.BankingService{
		Users:       users,
		Sites:       sites,
		Credentials: credentials,
		Sessions:    repository.GetSessionRepo(utils.MongoClient, cfg.MongoDB, cache),
		Audit:       repository.GetAuditRepo(utils.MongoClient, cfg.MongoDB),
		Secrets:     infisical,
		Workspaces:  kasm,
		Automation:  automation,

		Environment:        cfg.Infisical.Environment,
		MaxSessionsPerUser: cfg.MaxSessionsPerUser,
		LoginTimeout:       cfg.LoginTimeout,
	}

	router := setupRouter(cfg, routerDeps{
		svc:         svc,
		users:       users,
		sites:       sites,
		images:      kasm,
		credentials: credentials,
		secrets:     infisical,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// routerDeps carries the collaborators the routes need beyond the
// orchestrator itself.
type routerDeps struct {
	svc         *usecase.BankingService
	users       middleware.UserSyncer
	sites       handler.SiteLister
	images      handler.ImageLister
	credentials handler.CredentialLister
	secrets     handler.SecretLister
}

func setupRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		handler.HealthCheck(c, utils.MongoClient)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecretKey, cfg.JWTIssuer, deps.users))
	{
		api.GET("/banking/sites", func(c *gin.Context) {
			handler.ListBankingSites(c, deps.sites)
		})
		api.GET("/banking/sites/:id", func(c *gin.Context) {
			handler.GetBankingSite(c, deps.sites)
		})
		api.GET("/banking/sites/:id/credentials", func(c *gin.Context) {
			handler.ListSiteCredentials(c, deps.credentials)
		})
		api.GET("/banking/secrets", func(c *gin.Context) {
			handler.ListStoredSecrets(c, deps.secrets, cfg.Infisical.Environment)
		})
		api.GET("/banking/images", func(c *gin.Context) {
			handler.ListWorkspaceImages(c, deps.images)
		})
		api.POST("/banking/launch", func(c *gin.Context) {
			handler.LaunchBankingSession(c, deps.svc)
		})
		api.GET("/banking/sessions", func(c *gin.Context) {
			handler.ListBankingSessions(c, deps.svc)
		})
		api.GET("/banking/sessions/:id", func(c *gin.Context) {
			handler.GetBankingSession(c, deps.svc)
		})
		api.GET("/banking/sessions/:id/audit", func(c *gin.Context) {
			handler.SessionAuditTrail(c, deps.svc)
		})
		api.GET("/banking/sessions/:id/verify", func(c *gin.Context) {
			handler.VerifyBankingSession(c, deps.svc)
		})
		api.DELETE("/banking/sessions/:id", func(c *gin.Context) {
			handler.EndBankingSession(c, deps.svc)
		})
	}

	return router
}
