package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/yoypulse/api/controllers"
	"github.com/angelmondragon/yoypulse/api/middleware"
	"github.com/angelmondragon/yoypulse/internal/actions"
	"github.com/angelmondragon/yoypulse/internal/export"
	"github.com/angelmondragon/yoypulse/internal/formulas"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// Deps carries everything the router mounts. Pingers, Limiter and Gatherer
// are optional; a nil Limiter disables narrative throttling.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Pulse    pulse.Service
	Actions  actions.Service
	Board    controllers.BoardViewer
	Formulas *formulas.Registry
	Exporter *export.Exporter
	Limiter  middleware.RateLimiter
	Pingers  map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	exp := d.Exporter
	if exp == nil {
		exp = export.NewExporter()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	narrativePolicy := middleware.NewRateLimitPolicy("narrative", cfg.AI.RateWindow, cfg.AI.RateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rankings/{direction}", controllers.Rankings(d.Pulse, logg))
		r.Get("/dashboard", controllers.Dashboard(d.Board))

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/onepager", controllers.OnePager(d.Pulse, logg))
			r.With(middleware.RateLimit(narrativePolicy, d.Limiter, logg)).
				Post("/narrative", controllers.Narrative(d.Pulse, logg))
		})

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", controllers.ListActions(d.Actions, logg))
			r.Post("/", controllers.CreateActions(d.Actions, logg))
			r.Get("/overdue", controllers.OverdueActions(d.Actions, logg))
			r.Get("/counts", controllers.ActionCounts(d.Actions, logg))
			r.Get("/{actionID}", controllers.GetAction(d.Actions, logg))
			r.Patch("/{actionID}", controllers.UpdateAction(d.Actions, logg))
			r.Delete("/{actionID}", controllers.DeleteAction(d.Actions, logg))
		})

		r.Get("/formulas", controllers.ListFormulas(d.Formulas))
		r.Get("/formulas/{context}", controllers.GetFormula(d.Formulas, logg))

		r.Get("/charts/customers/{customerID}", controllers.CustomerCharts(d.Pulse, cfg.Charts, logg))

		r.Route("/export", func(r chi.Router) {
			r.Get("/rankings.xlsx", controllers.ExportRankings(d.Pulse, exp, logg))
			r.Get("/customers/{customerID}.xlsx", controllers.ExportOnePager(d.Pulse, exp, logg))
		})
	})

	return r
}
