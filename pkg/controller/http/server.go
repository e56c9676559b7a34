package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", configHandler(uc.RiskConfig()))
		r.Get("/stages/{stage}/tables", stageTablesHandler())

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", listProjectsHandler(uc.Project))
			r.Post("/", createProjectHandler(uc.Project))

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", getProjectHandler(uc.Project))
				r.Put("/", updateProjectHandler(uc.Project))
				r.Delete("/", deleteProjectHandler(uc.Project))

				r.Get("/items", listItemsHandler(uc.Item))
				r.Post("/items", createItemHandler(uc.Item))
				r.Put("/items/{itemID}", updateItemHandler(uc.Item))
				r.Delete("/items/{itemID}", deleteItemHandler(uc.Item))

				r.Get("/links", listLinksHandler(uc.Link))
				r.Post("/links", addLinkHandler(uc.Link))
				r.Delete("/links", clearLinksHandler(uc.Link))
				r.Delete("/links/{linkID}", deleteLinkHandler(uc.Link))

				r.Post("/compose", composeHandler(uc.Threat))

				r.Route("/threats", func(r chi.Router) {
					r.Get("/", listThreatsHandler(uc.Threat))
					r.Post("/", saveThreatHandler(uc.Threat))

					r.Route("/{threatID}", func(r chi.Router) {
						r.Get("/", getThreatHandler(uc.Threat))
						r.Put("/", updateThreatHandler(uc.Threat))
						r.Delete("/", deleteThreatHandler(uc.Threat))
						r.Get("/family", familyHandler(uc.Threat))
						r.Get("/revisions", revisionsHandler(uc.Threat))
						r.Put("/rating", rateThreatHandler(uc.Threat))
						r.Post("/suggestions", suggestTechniquesHandler(uc.Threat))

						r.Get("/controls", listThreatControlsHandler(uc.Control))
						r.Post("/controls", linkControlHandler(uc.Control))
						r.Delete("/controls/{controlID}", unlinkControlHandler(uc.Control))
					})
				})

				r.Get("/controls", listControlsHandler(uc.Control))
				r.Post("/controls", createControlHandler(uc.Control))
				r.Get("/controls/{controlID}", getControlHandler(uc.Control))
				r.Put("/controls/{controlID}", updateControlHandler(uc.Control))
				r.Delete("/controls/{controlID}", deleteControlHandler(uc.Control))

				r.Get("/artefacts", listArtefactsHandler(uc.Artefact))
				r.Post("/artefacts", exportArtefactHandler(uc.Artefact))
				r.Get("/artefacts/{version}", getArtefactHandler(uc.Artefact))
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
