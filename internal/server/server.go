package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"circlecalc/internal/config"
	"circlecalc/internal/handlers"
	"circlecalc/internal/metrics"
	"circlecalc/internal/middlewares"
	"circlecalc/internal/services"
)

type Server struct {
	port       int
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	limiter    *middlewares.RateLimiter
	stop       context.CancelFunc

	otpService     services.OTPService
	emailService   services.EmailService
	circleService  services.CircleService
	sessionService services.SessionService
	renderer       *handlers.Renderer
}

// NewServer wires the services from cfg. Passing a nil notifier uses SMTP delivery built from cfg.
func NewServer(cfg *config.Config, notifier services.Notifier) (*Server, error) {
	secret := []byte(cfg.SecretKey)
	if len(secret) == 0 {
		log.Warn().Msg("SECRET_KEY not set, generating a random session key; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
		if secret == nil {
			return nil, fmt.Errorf("generate session key: random source unavailable")
		}
	}

	registry := prometheus.NewRegistry()
	metrics.RegisterRuntimeCollectors(registry)
	m := metrics.New(registry)

	emailService := services.NewEmailService(services.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPEmail,
		Password: cfg.SMTPPassword,
	})
	if notifier == nil {
		notifier = emailService
	}

	sessionService := services.NewSessionService(secret, cfg.IsProduction())
	renderer, err := handlers.NewRenderer(sessionService)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	limiter := middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.CleanupVisitors(ctx)

	s := &Server{
		port:           cfg.Port,
		registry:       registry,
		metrics:        m,
		limiter:        limiter,
		stop:           stop,
		otpService:     services.NewOTPService(notifier, m),
		emailService:   emailService,
		circleService:  services.NewCircleService(m),
		sessionService: sessionService,
		renderer:       renderer,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.port).Bool("email_enabled", s.emailService.Enabled()).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	s.stop()

	log.Info().Msg("Server exiting")
	done <- true
}
