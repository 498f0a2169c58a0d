package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sapbridge/sapbridge-api/internal/cache"
	"github.com/sapbridge/sapbridge-api/internal/config"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/handlers"
	authmw "github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	if !cfg.IsProduction() {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{})
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	redisCache := cache.New(cfg.RedisURL, log)
	defer redisCache.Close()

	cryptoService, err := services.NewCryptoService(cfg.EncryptionKey, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize crypto service")
	}
	codec := services.NewCredentialCodec(cryptoService)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	accessService := services.NewAccessService(db, redisCache, cfg.MembershipCacheTTL)
	orgService := services.NewOrganizationService(db, accessService)
	grantService := services.NewGrantService(db)
	authConfigService := services.NewAuthConfigService(db, codec, cryptoService, grantService)
	metadataService := services.NewMetadataService(cfg.MetadataTimeout, log)
	serviceService := services.NewServiceService(db, grantService, authConfigService, metadataService)
	apiKeyService := services.NewAPIKeyService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	authHandler := handlers.NewAuthHandler(userService, jwtService, tokenService)
	userHandler := handlers.NewUserHandler(userService)
	orgHandler := handlers.NewOrganizationHandler(orgService, userService, emailService, cfg.BaseURL)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, grantService)
	grantHandler := handlers.NewGrantHandler(grantService, apiKeyService)
	authConfigHandler := handlers.NewAuthConfigHandler(authConfigService)
	serviceHandler := handlers.NewServiceHandler(serviceService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.OrgHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Get("/organizations", orgHandler.List)
	protected.Post("/organizations", orgHandler.Create)

	protected.Get("/invites", orgHandler.ListMyInvites)
	protected.Post("/invites/:inviteId/accept", orgHandler.AcceptInvite)
	protected.Post("/invites/:inviteId/decline", orgHandler.DeclineInvite)

	// Everything below acts on a resolved organization. The X-Organization-Id
	// header selects one when the user belongs to several.
	org := protected.Group("")
	org.Use(authmw.OrgContext(accessService))

	orgRead := org.Group("/organization")
	orgRead.Use(authmw.RequirePermission(accessService, "organization:read"))
	orgRead.Get("", orgHandler.Get)

	orgWrite := org.Group("/organization")
	orgWrite.Use(authmw.RequirePermission(accessService, "organization:write"))
	orgWrite.Patch("", orgHandler.Update)
	orgWrite.Delete("", orgHandler.Delete)

	membersRead := org.Group("/organization/members")
	membersRead.Use(authmw.RequirePermission(accessService, "members:read"))
	membersRead.Get("", orgHandler.GetMembers)

	membersWrite := org.Group("/organization/members")
	membersWrite.Use(authmw.RequirePermission(accessService, "members:write"))
	membersWrite.Patch("/:userId", orgHandler.UpdateMemberRole)
	membersWrite.Delete("/:userId", orgHandler.RemoveMember)

	invitesWrite := org.Group("/organization/invites")
	invitesWrite.Use(authmw.RequirePermission(accessService, "members:write"))
	invitesWrite.Post("", orgHandler.CreateInvite)
	invitesWrite.Delete("/:inviteId", orgHandler.CancelInvite)

	servicesRead := org.Group("/services")
	servicesRead.Use(authmw.RequirePermission(accessService, "services:read"))
	servicesRead.Get("", serviceHandler.List)
	servicesRead.Get("/:serviceId", serviceHandler.Get)

	servicesWrite := org.Group("/services")
	servicesWrite.Use(authmw.RequirePermission(accessService, "services:write"))
	servicesWrite.Post("", serviceHandler.Create)
	servicesWrite.Patch("/:serviceId", serviceHandler.Update)
	servicesWrite.Delete("/:serviceId", serviceHandler.Delete)
	servicesWrite.Post("/:serviceId/refresh-entities", serviceHandler.RefreshEntities)

	authConfigsRead := org.Group("/auth-configs")
	authConfigsRead.Use(authmw.RequirePermission(accessService, "auth_configs:read"))
	authConfigsRead.Get("", authConfigHandler.List)
	authConfigsRead.Get("/:configId", authConfigHandler.Get)

	authConfigsWrite := org.Group("/auth-configs")
	authConfigsWrite.Use(authmw.RequirePermission(accessService, "auth_configs:write"))
	authConfigsWrite.Post("", authConfigHandler.Create)
	authConfigsWrite.Patch("/:configId", authConfigHandler.Update)
	authConfigsWrite.Delete("/:configId", authConfigHandler.Delete)

	keysRead := org.Group("/api-keys")
	keysRead.Use(authmw.RequirePermission(accessService, "api_keys:read"))
	keysRead.Get("", apiKeyHandler.List)
	keysRead.Get("/:keyId", apiKeyHandler.Get)

	keysWrite := org.Group("/api-keys")
	keysWrite.Use(authmw.RequirePermission(accessService, "api_keys:write"))
	keysWrite.Post("", apiKeyHandler.Create)
	keysWrite.Patch("/:keyId", apiKeyHandler.Update)
	keysWrite.Delete("/:keyId", apiKeyHandler.Revoke)

	grantsRead := org.Group("/api-keys/:keyId/grants")
	grantsRead.Use(authmw.RequirePermission(accessService, "grants:read"))
	grantsRead.Get("", grantHandler.List)

	grantsWrite := org.Group("/api-keys/:keyId/grants")
	grantsWrite.Use(authmw.RequirePermission(accessService, "grants:write"))
	grantsWrite.Post("", grantHandler.Create)
	grantsWrite.Patch("/:grantId", grantHandler.Update)
	grantsWrite.Delete("/:grantId", grantHandler.Revoke)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := tokenService.CleanupExpired(context.Background()); err != nil {
				log.WithError(err).Warn("refresh token cleanup failed")
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.WithField("addr", addr).Info("server starting")
		if err := app.Run(addr); err != nil {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
}
