package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.auth.Authenticate(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return s.auth.Authenticate(s.auth.RequireAdmin(h))
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.notFound)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.admin(s.metrics.Handler().ServeHTTP)).Methods(http.MethodGet)
	}

	r.HandleFunc("/", s.health).Methods(http.MethodGet)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	api.Handle("/user/me", s.authed(s.me)).Methods(http.MethodGet)
	api.Handle("/user/github", s.authed(s.saveGitHub)).Methods(http.MethodPost)
	api.Handle("/user/microsoft-learn", s.authed(s.saveMicrosoftLearn)).Methods(http.MethodPost)
	api.Handle("/user/pages/{page}/complete", s.authed(s.completePage)).Methods(http.MethodPost)
	api.Handle("/user/pages/{page}/incomplete", s.authed(s.incompletePage)).Methods(http.MethodPost)
	api.Handle("/user/last-viewed-page", s.authed(s.updateLastViewed)).Methods(http.MethodPut)

	api.Handle("/resources", s.authed(s.listResources)).Methods(http.MethodGet)
	api.Handle("/resources", s.admin(s.createResource)).Methods(http.MethodPost)
	// registered before {id} so it is not captured as an id
	api.Handle("/resources/analytics", s.admin(s.analytics)).Methods(http.MethodGet)
	api.Handle("/resources/{id}", s.admin(s.updateResource)).Methods(http.MethodPut)
	api.Handle("/resources/{id}", s.admin(s.deleteResource)).Methods(http.MethodDelete)
	api.Handle("/resources/{id}/complete", s.authed(s.toggleResource)).Methods(http.MethodPost)
	api.Handle("/resources/{id}/upload-url", s.admin(s.uploadURL)).Methods(http.MethodPost)

	var h http.Handler = r
	h = CORS(s.opts.CORSOrigins)(h)
	h = Logging(s.logger)(h)
	h = Recovery(s.logger, s.opts.DevMode)(h)
	h = RequestID(h)
	return h
}
