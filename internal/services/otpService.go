package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"circlecalc/internal/metrics"
	"circlecalc/internal/models"
	"circlecalc/internal/utils"
)

// ChallengeTTL is how long an issued code stays valid.
const ChallengeTTL = 300 * time.Second

var (
	ErrEmptyIdentifier = errors.New("email is required")
	ErrInvalidFormat   = errors.New("invalid email format")
)

// Notifier delivers an issued code to its identifier. A nil error means the code was sent.
type Notifier interface {
	Send(ctx context.Context, identifier, code string) error
}

type OTPService interface {
	IssueChallenge(ctx context.Context, identifier string) (models.Issued, error)
	VerifyChallenge(ctx context.Context, identifier, submittedCode string) models.VerifyOutcome
	SweepExpired()
}

// otpService owns the table of pending challenges, one per identifier.
type otpService struct {
	mu         sync.Mutex
	challenges map[string]models.Challenge

	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(notifier Notifier, m *metrics.Metrics) OTPService {
	return newOTPService(notifier, m)
}

func newOTPService(notifier Notifier, m *metrics.Metrics) *otpService {
	return &otpService{
		challenges: make(map[string]models.Challenge),
		notifier:   notifier,
		metrics:    m,
		now:        time.Now,
		generate:   utils.GenerateSecureOTP,
	}
}

func (s *otpService) IssueChallenge(ctx context.Context, identifier string) (models.Issued, error) {
	if identifier == "" {
		return models.Issued{}, ErrEmptyIdentifier
	}
	if !utils.LooksLikeEmail(identifier) {
		log.Debug().Str("email", identifier).Msg("Rejected identifier with invalid format")
		return models.Issued{}, ErrInvalidFormat
	}

	code, err := s.generate()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OTP")
		return models.Issued{}, fmt.Errorf("generate otp: %w", err)
	}

	s.mu.Lock()
	s.sweepLocked()
	s.challenges[identifier] = models.Challenge{
		Identifier: identifier,
		Code:       code,
		IssuedAt:   s.now(),
	}
	s.pendingLocked()
	s.mu.Unlock()

	s.metrics.OTPIssuedTotal.Inc()
	log.Info().Str("email", identifier).Msg("OTP challenge issued")
	log.Debug().Str("email", identifier).Str("otp", code).Msg("OTP generated")

	// Delivery runs outside the lock; its outcome never affects the stored challenge.
	issued := models.Issued{Code: code}
	if s.notifier == nil {
		s.metrics.EmailDeliveryTotal.WithLabelValues("disabled").Inc()
		return issued, nil
	}
	if err := s.notifier.Send(ctx, identifier, code); err != nil {
		status := "failed"
		if errors.Is(err, ErrEmailNotConfigured) {
			status = "disabled"
		}
		s.metrics.EmailDeliveryTotal.WithLabelValues(status).Inc()
		log.Warn().Err(err).Str("email", identifier).Msg("OTP delivery failed, code remains valid")
		return issued, nil
	}

	s.metrics.EmailDeliveryTotal.WithLabelValues("sent").Inc()
	issued.Delivered = true
	return issued, nil
}

func (s *otpService) VerifyChallenge(ctx context.Context, identifier, submittedCode string) models.VerifyOutcome {
	outcome := s.verify(identifier, submittedCode)
	s.metrics.LoginAttemptsTotal.WithLabelValues(outcome.String()).Inc()
	log.Info().Str("email", identifier).Str("outcome", outcome.String()).Msg("OTP verification")
	return outcome
}

func (s *otpService) verify(identifier, submittedCode string) models.VerifyOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	defer s.pendingLocked()

	c, ok := s.challenges[identifier]
	if !ok {
		return models.VerifyNotFound
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(submittedCode)) != 1 {
		return models.VerifyMismatch
	}

	delete(s.challenges, identifier)
	return models.VerifySuccess
}

// SweepExpired drops every challenge older than ChallengeTTL.
func (s *otpService) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.pendingLocked()
}

func (s *otpService) sweepLocked() {
	now := s.now()
	for id, c := range s.challenges {
		if !c.Live(now, ChallengeTTL) {
			delete(s.challenges, id)
			s.metrics.ChallengesExpired.Inc()
		}
	}
}

func (s *otpService) pendingLocked() {
	s.metrics.ChallengesPending.Set(float64(len(s.challenges)))
}
