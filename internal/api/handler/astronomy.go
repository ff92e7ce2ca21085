package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/demskies/demskies/internal/api/models"
	"github.com/demskies/demskies/internal/api/response"
	"github.com/demskies/demskies/internal/astronomy"
)

const defaultEventsLimit = 10

var validate = validator.New()

// AstronomyHandler handles moon phase and celestial event endpoints.
type AstronomyHandler struct {
	catalog *astronomy.Catalog
	now     func() time.Time
}

// NewAstronomyHandler creates a new AstronomyHandler. now defaults to time.Now.
func NewAstronomyHandler(catalog *astronomy.Catalog, now func() time.Time) *AstronomyHandler {
	if now == nil {
		now = time.Now
	}
	return &AstronomyHandler{catalog: catalog, now: now}
}

// GetMoonPhase handles GET /v1/astronomy/moon?date=YYYY-MM-DD. The date
// defaults to today.
func (h *AstronomyHandler) GetMoonPhase(w http.ResponseWriter, r *http.Request) {
	day := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			response.BadRequest(w, r, "date must be a calendar date", []models.FieldError{
				{Field: "date", Message: "must be formatted YYYY-MM-DD", Code: "INVALID_FORMAT"},
			})
			return
		}
		day = parsed
	}

	response.JSON(w, r, http.StatusOK, models.NewMoonPhaseResponse(day))
}

// ListEvents handles GET /v1/astronomy/events?asOf=YYYY-MM-DD&limit=N.
// Events on or after asOf (default today) are returned soonest first.
func (h *AstronomyHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := models.EventsQuery{
		AsOf:  r.URL.Query().Get("asOf"),
		Limit: defaultEventsLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "limit must be an integer", []models.FieldError{
				{Field: "limit", Message: "must be an integer", Code: "INVALID_FORMAT"},
			})
			return
		}
		q.Limit = limit
	}

	if err := validate.Struct(q); err != nil {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors(err))
		return
	}

	asOf := h.now()
	if q.AsOf != "" {
		asOf, _ = time.Parse(time.DateOnly, q.AsOf) // format checked by validate
	}

	upcoming := h.catalog.Upcoming(asOf)
	total := len(upcoming)
	if len(upcoming) > q.Limit {
		upcoming = upcoming[:q.Limit]
	}

	response.JSON(w, r, http.StatusOK, models.EventsResponse{
		AsOf:           models.Date(time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)),
		CatalogVersion: h.catalog.Version(),
		Items:          models.NewAstronomyEvents(upcoming),
		Meta:           models.PagedResponseMeta{Limit: q.Limit, Total: total},
	})
}

var queryFieldNames = map[string]string{
	"AsOf":  "asOf",
	"Limit": "limit",
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := queryFieldNames[fe.Field()]
		switch fe.Tag() {
		case "datetime":
			out = append(out, models.FieldError{Field: field, Message: "must be formatted YYYY-MM-DD", Code: "INVALID_FORMAT"})
		default:
			out = append(out, models.FieldError{Field: field, Message: "must be between 1 and 50", Code: "OUT_OF_RANGE"})
		}
	}
	return out
}
