package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/kontera/internal/accounts"
	"github.com/smallbiznis/kontera/internal/config"
	"github.com/smallbiznis/kontera/internal/landedcost"
	landedcostdomain "github.com/smallbiznis/kontera/internal/landedcost/domain"
	"github.com/smallbiznis/kontera/internal/ledger"
	obsmetrics "github.com/smallbiznis/kontera/internal/observability/metrics"
	"github.com/smallbiznis/kontera/internal/posting"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	"github.com/smallbiznis/kontera/internal/product"
	"github.com/smallbiznis/kontera/internal/reconciliation"
	recdomain "github.com/smallbiznis/kontera/internal/reconciliation/domain"
	"github.com/smallbiznis/kontera/internal/supplier"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
	"github.com/smallbiznis/kontera/internal/transaction"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	accounts.Module,
	ledger.Module,
	transaction.Module,
	product.Module,
	posting.Module,
	landedcost.Module,
	reconciliation.Module,
	supplier.Module,
	fx.Provide(NewEngine),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, metrics *obsmetrics.Metrics, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

type RouteParams struct {
	fx.In

	Engine      *gin.Engine
	Posting     postingdomain.Service
	Allocator   landedcostdomain.Allocator
	Reconciler  recdomain.Engine
	Evaluator   supplierdomain.Evaluator
}

func RegisterRoutes(p RouteParams) {
	v1 := p.Engine.Group("/v1")

	h := &handlers{
		posting:    p.Posting,
		allocator:  p.Allocator,
		reconciler: p.Reconciler,
		evaluator:  p.Evaluator,
	}

	v1.POST("/transactions/:id/post", h.postTransaction)
	v1.POST("/entry-groups/:id/reverse", h.reverseEntryGroup)
	v1.POST("/landed-costs/:id/allocate", h.allocateLandedCost)
	v1.GET("/reconciliations/:period", h.reconcile)
	v1.POST("/suppliers/:id/evaluate", h.evaluateSupplier)
}

func run(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
