package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"circlecalc/internal/handlers"
	"circlecalc/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	pm := middlewares.NewPrometheusMiddleware(s.registry)
	r.Use(pm.Instrument)
	r.Use(s.limiter.Limit)

	ch := handlers.NewCommonHandler(s.sessionService)
	r.HandleFunc("/", ch.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", ch.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.registerAuthRoutes(r)
	s.registerCalculatorRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.otpService, s.sessionService, s.renderer, s.metrics)

	r.HandleFunc("/login", ah.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", ah.Login).Methods(http.MethodPost)
	r.HandleFunc("/verify/{email}", ah.VerifyForm).Methods(http.MethodGet)
	r.HandleFunc("/verify/{email}", ah.Verify).Methods(http.MethodPost)
	r.HandleFunc("/logout", ah.Logout).Methods(http.MethodGet)
}

func (s *Server) registerCalculatorRoutes(r *mux.Router) {
	clh := handlers.NewCalculatorHandler(s.circleService, s.renderer)
	requireLogin := middlewares.RequireLogin(s.sessionService)

	r.Handle("/calculator", requireLogin(http.HandlerFunc(clh.Calculator))).Methods(http.MethodGet)
	r.Handle("/calculate", requireLogin(http.HandlerFunc(clh.Calculate))).Methods(http.MethodPost)
}
