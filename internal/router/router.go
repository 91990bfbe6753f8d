package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/health"
	"construyo-opshub/pkg/middleware"
	"construyo-opshub/services/crmsync"
	"construyo-opshub/services/paymentlink"
	"construyo-opshub/services/videogen"
)

var Module = fx.Module("router", fx.Provide(New))

type Params struct {
	fx.In

	Config      *config.Config
	Health      health.HealthService
	PaymentLink *paymentlink.Handler
	CrmSync     *crmsync.Handler
	VideoGen    *videogen.Handler
}

func New(p Params) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(p.Config.Auth.JWTSecret, p.Config.Auth.Issuer))

	p.PaymentLink.Register(api)
	p.CrmSync.Register(api)
	p.VideoGen.Register(api)

	return r
}
