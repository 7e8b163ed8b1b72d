package server

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/events"
	"github.com/USA-RedDragon/contract-relay/internal/metrics"
	"github.com/USA-RedDragon/contract-relay/internal/privy"
	"github.com/USA-RedDragon/contract-relay/internal/server/controllers"
	"github.com/USA-RedDragon/contract-relay/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Dependencies are the long-lived clients the handlers use.
// DB, Events and Hub may be nil. Verifier is nil unless access tokens are required.
type Dependencies struct {
	DB       *gorm.DB
	Signer   controllers.TransactionSender
	Reader   controllers.ValueReader
	Metrics  *metrics.Metrics
	Events   *events.EventBus
	Hub      *websocket.Hub
	Verifier *privy.TokenVerifier
}

func applyMiddleware(r *gin.Engine, config *config.Config, otelComponent string, deps Dependencies) {
	r.Use(gin.Recovery())

	r.TrustedPlatform = "X-Real-IP"

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "authorization")
	corsConfig.AllowCredentials = true
	corsConfig.AllowWildcard = true
	if len(config.HTTP.CORSHosts) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowOrigins = config.HTTP.CORSHosts
	r.Use(cors.New(corsConfig))

	err := r.SetTrustedProxies(config.HTTP.TrustedProxies)
	if err != nil {
		slog.Error("Failed to set trusted proxies", "error", err.Error())
	}

	r.Use(dbMiddleware(deps.DB))
	r.Use(signerMiddleware(deps.Signer))
	r.Use(readerMiddleware(deps.Reader))
	r.Use(metricsMiddleware(deps.Metrics))
	r.Use(eventsMiddleware(deps.Events))
	r.Use(configMiddleware(config))

	if config.HTTP.Tracing.Enabled {
		r.Use(otelgin.Middleware(otelComponent))
		r.Use(tracingProvider(config))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithSpanID:        config.HTTP.Tracing.Enabled,
		WithTraceID:       config.HTTP.Tracing.Enabled,
		DefaultLevel:      slog.LevelInfo,
		ClientErrorLevel:  slog.LevelWarn,
		ServerErrorLevel:  slog.LevelError,
		WithRequestHeader: false,
	}))
}

func configMiddleware(config *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", config)
		c.Next()
	}
}

func tracingProvider(config *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.HTTP.Tracing.OTLPEndpoint != "" {
			ctx := c.Request.Context()
			span := trace.SpanFromContext(ctx)
			if span.IsRecording() {
				span.SetAttributes(
					attribute.String("http.method", c.Request.Method),
					attribute.String("http.path", c.Request.URL.Path),
				)
			}
		}
		c.Next()
	}
}

func dbMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

func signerMiddleware(signer controllers.TransactionSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("signer", signer)
		c.Next()
	}
}

func readerMiddleware(reader controllers.ValueReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("reader", reader)
		c.Next()
	}
}

func metricsMiddleware(metrics *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("metrics", metrics)
		c.Next()
	}
}

func eventsMiddleware(bus *events.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("events", bus)
		c.Next()
	}
}

// requireAuth checks the Privy access token when a verifier is configured.
// Without one every request passes.
func requireAuth(verifier *privy.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			slog.Warn("Failed to verify access token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set("user", userID)
		c.Next()
	}
}
