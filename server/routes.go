package server

import "github.com/go-chi/chi/v5"

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/run", s.runSession)
			r.Post("/stream", s.streamSession)
			r.Post("/abort", s.abortSession)

			r.Get("/files", s.listFiles)
			r.Post("/files", s.addFile)
		})
	})
}
