package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/bimflow/engine/internal/api/handlers"
	mw "github.com/bimflow/engine/internal/api/middleware"
)

type Dependencies struct {
	DB              *gorm.DB
	ProjectsHandler *handlers.ProjectsHandler
	TIDPsHandler    *handlers.TIDPsHandler
	MIDPsHandler    *handlers.MIDPsHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.Metrics(func(req *http.Request) string {
		return chi.RouteContext(req.Context()).RoutePattern()
	}))
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health and metrics endpoints
	hh := handlers.NewHealthHandler(dep.DB)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		// Projects
		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/", dep.ProjectsHandler.List)
			pr.Post("/", dep.ProjectsHandler.Create)
			pr.Get("/{id}", dep.ProjectsHandler.Get)
			pr.Delete("/{id}", dep.ProjectsHandler.Delete)
			pr.Get("/{projectID}/midp", dep.MIDPsHandler.GetByProject)
			pr.Get("/{projectID}/dependencies/validate", dep.TIDPsHandler.ValidateDependencies)
		})

		// TIDPs
		api.Route("/tidps", func(tr chi.Router) {
			tr.Get("/", dep.TIDPsHandler.List)
			tr.Post("/", dep.TIDPsHandler.Create)
			tr.Get("/{id}", dep.TIDPsHandler.Get)
			tr.Put("/{id}", dep.TIDPsHandler.Update)
			tr.Delete("/{id}", dep.TIDPsHandler.Delete)
			tr.Get("/{id}/summary", dep.TIDPsHandler.Summary)
		})

		// MIDPs and derived analyses
		api.Route("/midps", func(mr chi.Router) {
			mr.Post("/generate", dep.MIDPsHandler.Generate)
			mr.Get("/{id}", dep.MIDPsHandler.Get)
			mr.Post("/{id}/refresh", dep.MIDPsHandler.Refresh)
			mr.Get("/{id}/dependency-matrix", dep.MIDPsHandler.DependencyMatrix)
			mr.Get("/{id}/cascading-impact", dep.MIDPsHandler.CascadingImpact)
			mr.Get("/{id}/resource-plan", dep.MIDPsHandler.ResourcePlan)
			mr.Get("/{id}/trends", dep.MIDPsHandler.Trends)
			mr.Get("/{id}/compliance", dep.MIDPsHandler.Compliance)
		})
	})

	return r
}
