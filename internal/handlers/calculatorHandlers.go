package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"circlecalc/internal/middlewares"
	"circlecalc/internal/models"
	"circlecalc/internal/services"
	"circlecalc/internal/utils"
)

type CalculatorHandler struct {
	circleService services.CircleService
	renderer      *Renderer
}

func NewCalculatorHandler(circleService services.CircleService, renderer *Renderer) *CalculatorHandler {
	return &CalculatorHandler{circleService: circleService, renderer: renderer}
}

func (c *CalculatorHandler) Calculator(w http.ResponseWriter, r *http.Request) {
	c.renderer.Render(w, r, http.StatusOK, "calculator", PageData{UserEmail: middlewares.UserEmail(r.Context())})
}

func (c *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	raw := utils.FormValue(r, "radius")
	if raw == "" {
		raw = "0"
	}

	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.renderer.redirect(w, r, "/calculator", models.ErrorFlash("Invalid input! Please enter a valid number."))
		return
	}

	circle, err := c.circleService.Calculate(radius)
	switch {
	case errors.Is(err, services.ErrNonPositiveRadius):
		c.renderer.redirect(w, r, "/calculator", models.ErrorFlash("Radius must be greater than 0!"))
		return
	case err != nil:
		c.renderer.redirect(w, r, "/calculator", models.ErrorFlash("Invalid input! Please enter a valid number."))
		return
	}

	c.renderer.Render(w, r, http.StatusOK, "calculator", PageData{
		UserEmail: middlewares.UserEmail(r.Context()),
		Circle:    &circle,
	})
}
