package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the router. Trailing slashes are ignored so that
// /api/auth/admin/{challenge}/{signature}/ resolves like its bare form.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.metrics.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Use(s.authenticate)

		api.Route("/auth", func(a chi.Router) {
			a.Get("/get_challenge/{address}", s.getChallenge)
			a.Get("/admin/{challenge}/{signature}", s.checkAdmin)
			a.Get("/authentication/{challenge}/{signature}", s.issueToken)
		})

		api.Get("/users/{address}", s.getUser)
		api.Post("/users", s.registerUser)

		api.Group(func(g chi.Router) {
			g.Use(requireSession)

			g.Get("/tokens/{id}/files", s.filesForToken)

			g.Route("/files", func(f chi.Router) {
				f.Get("/", s.listFiles)
				f.Get("/category/{id}", s.listFilesByCategory)

				f.Route("/{id}", func(one chi.Router) {
					one.Get("/", s.getFile)
					one.Get("/offer", s.getFileOffers)
					one.Get("/stream", s.streamLink)

					one.Group(func(owner chi.Router) {
						owner.Use(s.requireFileOwner)
						owner.Put("/", s.updateFile)
						owner.Post("/offers", s.linkOffers)
						owner.Delete("/offers", s.unlinkOffer)
					})
				})
			})
		})
	})

	return r
}
