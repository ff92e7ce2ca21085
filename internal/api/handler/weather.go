package handler

import (
	"context"
	"net/http"

	"github.com/demskies/demskies/internal/api/models"
	"github.com/demskies/demskies/internal/api/response"
	"github.com/demskies/demskies/internal/skies"
)

// WeatherService performs weather lookups.
type WeatherService interface {
	FetchWeather(ctx context.Context, rawInput string) (*skies.ViewModel, error)
}

// WeatherHandler handles weather lookups.
type WeatherHandler struct {
	service WeatherService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// GetWeather handles GET /v1/weather?q= - look up a city name or ZIP code.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	vm, err := h.service.FetchWeather(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.LookupFailure(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewWeatherResponse(vm))
}
