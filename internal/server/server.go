package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/antigravity/internal/checkout"
	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/creem"
	"github.com/smallbiznis/antigravity/internal/identity"
	"github.com/smallbiznis/antigravity/internal/observability"
	obsmiddleware "github.com/smallbiznis/antigravity/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/antigravity/internal/observability/metrics"
	"github.com/smallbiznis/antigravity/internal/store"
	"github.com/smallbiznis/antigravity/internal/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	store.Module,
	identity.Module,
	creem.Module,
	checkout.Module,
	webhook.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	identitySvc identity.Service
	checkoutSvc checkout.Service
	webhookSvc  webhook.Service
	obsMetrics  *obsmetrics.Metrics
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	IdentitySvc identity.Service
	CheckoutSvc checkout.Service
	WebhookSvc  webhook.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		identitySvc: p.IdentitySvc,
		checkoutSvc: p.CheckoutSvc,
		webhookSvc:  p.WebhookSvc,
		obsMetrics:  p.ObsMetrics,
		log:         p.Log.Named("server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/checkout", s.AuthRequired(), s.CreateCheckout)
	api.GET("/me", s.AuthRequired(), s.Me)

	// -------- Payment Webhooks --------
	api.POST("/webhooks/creem", s.HandleCreemWebhook)
}
