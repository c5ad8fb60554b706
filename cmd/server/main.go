package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"landing-service/internal/app"
	"landing-service/internal/config"
	"landing-service/internal/logging"
	"landing-service/internal/media"
	"landing-service/internal/server"
	"landing-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	var cache media.Cache
	if cfg.RedisAddr != "" {
		rc, err := media.NewRedisCache(ctx, media.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return err
		}
		defer rc.Close()
		cache = rc
	} else {
		mc := media.NewMemoryCache(time.Minute)
		defer mc.Close()
		cache = mc
	}
	resolver := &media.CachedResolver{
		Next:  media.NewHTTPResolver(cfg.ManifestURLTemplate, cfg.ManifestTimeout, logger),
		Cache: cache,
		TTL:   cfg.ManifestCacheTTL,
	}

	var gc *app.GoogleCalendar
	if cfg.GoogleEnabled() {
		// state tokens travel through the browser, so they never share the admin key
		var stateKey []byte
		if cfg.JWTHMACSecret != "" {
			mac := hmac.New(sha256.New, []byte(cfg.JWTHMACSecret))
			mac.Write([]byte("oauth-state"))
			stateKey = mac.Sum(nil)
		} else {
			stateKey = make([]byte, 32)
			if _, err := rand.Read(stateKey); err != nil {
				return err
			}
		}
		gc = app.NewGoogleCalendar(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL,
			cfg.GoogleCalendarID, st, stateKey, logger)
	} else {
		logger.Info("google calendar sync disabled")
	}

	appInstance := app.New(app.Options{
		Store:          st,
		Resolver:       resolver,
		Calendar:       gc,
		Location:       cfg.Location(),
		ResetDelay:     cfg.WizardResetDelay,
		HideDelay:      cfg.ControlsHideDelay,
		SessionTTL:     cfg.SessionTTL,
		DefaultMediaID: cfg.DefaultMediaID,
		Logger:         logger,
	})
	appInstance.StartJanitors(time.Minute)
	defer appInstance.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return err
	}
	limiter := app.NewRateLimiter(cfg.MaxRequestsPerMin, logger)
	limiter.StartJanitor(time.Minute, 10*time.Minute)
	defer limiter.Close()

	router.Use(logging.Recovery(logger), logging.GinLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	router.Use(limiter.Middleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	appInstance.Register(router, app.AdminAuth(cfg.StaticTokens, cfg.JWTHMACSecret))

	return server.Run(":"+cfg.AppPort, router, 10*time.Second, logger)
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}
