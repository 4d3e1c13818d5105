// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/dashboard-auth/internal/auth"
	"github.com/yourusername/dashboard-auth/internal/config"
	"github.com/yourusername/dashboard-auth/internal/credentials"
	"github.com/yourusername/dashboard-auth/internal/database"
	"github.com/yourusername/dashboard-auth/internal/logging"
	"github.com/yourusername/dashboard-auth/internal/users"
)

// 開発時に SESSION_SECRET が未設定の場合のみ使う鍵
const devSessionSecret = "dev-only-session-secret-change-me"

func main() {
	ctx := context.Background()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(os.Stderr, "error").Error(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	gin.SetMode(cfg.GinMode)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.Open(openCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	registry, closeRegistry, err := setupSessionRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRegistry()

	authOpts := auth.Options{
		Providers: []auth.Provider{
			credentials.NewAuthorizer(users.NewPostgresRepository(db), logger),
		},
		Logger:             logger,
		MaxSessionLifetime: cfg.SessionMaxAge(),
		IdleTimeout:        cfg.SessionIdleTimeout(),
	}
	if registry != nil {
		authOpts.Registry = registry
	}
	authManager, err := auth.NewManager(authOpts)
	if err != nil {
		return err
	}

	router := newRouter(ctx, cfg, logger, authManager)

	addr := ":" + cfg.Port
	logger.Info(ctx, "starting API server", "addr", addr, "mode", cfg.GinMode)
	return router.Run(addr)
}

func newRouter(ctx context.Context, cfg *config.Config, logger logging.Logger, authManager *auth.Manager) *gin.Engine {
	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn(ctx, "SESSION_SECRET is empty, using development secret")
		secret = devSessionSecret
	}

	// セッションストアの設定
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   authManager.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.SecureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(cfg.SessionCookieName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token",
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, authManager)
	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dashboard-auth",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager) {
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			// ログイン時はセッション未生成なので CSRF 検証は不要
			authRoutes.POST("/login", authManager.SignIn)
			authRoutes.POST("/logout",
				authManager.RequireLogin(),
				authManager.VerifyCSRF(),
				authManager.SignOut,
			)
			authRoutes.GET("/session", authManager.RequireLogin(), authManager.Session)
		}

		protected := api.Group("")
		protected.Use(authManager.RequireLogin(), authManager.VerifyCSRF())
		{
			protected.GET("/dashboard", handleDashboard)
		}
	}
}

// handleDashboard はログイン済みユーザー向けのサンプルエンドポイントです。
func handleDashboard(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"message": "ようこそ",
	})
}
