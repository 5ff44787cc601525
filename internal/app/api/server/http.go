package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/rhosegym/gymcore/internal/app/api/handlers"
	mw "github.com/rhosegym/gymcore/internal/app/api/middleware"
	"github.com/rhosegym/gymcore/internal/app/service/attendance"
	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/chatbot"
	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/app/service/payment"
	cfgpkg "github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/metrics"
	"github.com/rhosegym/gymcore/pkg/types"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log attach per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log        *zap.SugaredLogger
	Cfg        *cfgpkg.Config
	Identity   *identity.Service
	Catalog    *catalog.Service
	Membership *membership.Service
	Payment    *payment.Service
	Attendance *attendance.Service
	Audit      *audit.Service
	Chatbot    *chatbot.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Prometheus metrics on a side listener
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger:      d.Log,
			MetricsList: []*metrics.Metric{metrics.MetricsBusinessEvents},
		})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: health, account creation, catalog listings, kiosk terminal
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)

	apiPub := r.Group("/api/v1")
	apiPub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterAuthRoutes(apiPub, d.Identity)
	handlers.RegisterCatalogRoutes(apiPub, d.Catalog)
	handlers.RegisterKioskRoutes(apiPub, d.Identity, d.Attendance)

	// Authenticated members
	member := r.Group("/api/v1")
	member.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(), mw.AuthMiddleware(d.Cfg))
	handlers.RegisterProfileRoutes(member, d.Identity)
	handlers.RegisterMembershipRoutes(member, d.Membership)
	handlers.RegisterPaymentRoutes(member, d.Payment)
	handlers.RegisterAttendanceRoutes(member, d.Attendance)
	handlers.RegisterChatbotRoutes(member, d.Chatbot, d.Identity)

	// Staff desk: payment review, counter sales, floor view, daily report
	staff := r.Group("/api/v1/staff")
	staff.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(),
		mw.AuthMiddleware(d.Cfg), mw.RequireRoles(types.RoleStaff, types.RoleAdmin))
	handlers.RegisterPaymentStaffRoutes(staff, d.Payment)
	handlers.RegisterAttendanceStaffRoutes(staff, d.Attendance)

	// Admin: catalog management, accounts, audit trail, chatbot settings
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(),
		mw.AuthMiddleware(d.Cfg), mw.RequireRoles(types.RoleAdmin))
	handlers.RegisterCatalogAdminRoutes(admin, d.Catalog)
	handlers.RegisterUserAdminRoutes(admin, d.Identity)
	handlers.RegisterMembershipAdminRoutes(admin, d.Membership)
	handlers.RegisterAuditRoutes(admin, d.Audit)
	handlers.RegisterChatbotAdminRoutes(admin, d.Chatbot)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
