package services

import (
	"errors"
	"math"

	"circlecalc/internal/metrics"
	"circlecalc/internal/models"
)

var (
	ErrNonPositiveRadius = errors.New("radius must be greater than 0")
	ErrInvalidRadius     = errors.New("radius must be a finite number")
)

type CircleService interface {
	Calculate(radius float64) (models.Circle, error)
}

type circleService struct {
	metrics *metrics.Metrics
}

func NewCircleService(m *metrics.Metrics) CircleService {
	return &circleService{metrics: m}
}

// Calculate returns the area and circumference of a circle, rounded to two decimals.
func (s *circleService) Calculate(radius float64) (models.Circle, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		s.metrics.CalculationsTotal.WithLabelValues("invalid").Inc()
		return models.Circle{}, ErrInvalidRadius
	}
	if radius <= 0 {
		s.metrics.CalculationsTotal.WithLabelValues("invalid").Inc()
		return models.Circle{}, ErrNonPositiveRadius
	}

	s.metrics.CalculationsTotal.WithLabelValues("ok").Inc()
	return models.Circle{
		Radius:        radius,
		Area:          round2(math.Pi * radius * radius),
		Circumference: round2(2 * math.Pi * radius),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
