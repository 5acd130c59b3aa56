package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"trip-planner-rag/internal/currency"
	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/planner"
)

// PlanTripRequest is the body of POST /api/plan-full-trip
type PlanTripRequest struct {
	Destination string `json:"destination" validate:"required"`
	FromDate    string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate      string `json:"to_date" validate:"required,datetime=2006-01-02"`
	Preferences string `json:"preferences"`
}

// ConvertCurrencyRequest is the body of POST /api/convert-currency
type ConvertCurrencyRequest struct {
	Amount       float64 `json:"amount" validate:"gt=0"`
	FromCurrency string  `json:"from_currency" validate:"required,len=3"`
	ToCurrency   string  `json:"to_currency" validate:"required,len=3"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthHandler reports liveness
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PlanTripHandler runs the trip planning pipeline
func (s *Server) PlanTripHandler(w http.ResponseWriter, r *http.Request) {
	var req PlanTripRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.renderError(w, err, http.StatusBadRequest)
		return
	}

	plan, err := s.Planner.PlanTrip(r.Context(), models.TripRequest{
		Destination: strings.TrimSpace(req.Destination),
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		Preferences: req.Preferences,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, planner.ErrInvalidInput) || errors.Is(err, planner.ErrTripTooLong) {
			status = http.StatusBadRequest
		}
		s.renderError(w, err, status)
		return
	}

	s.encodeJSON(w, http.StatusOK, dataResponse{Data: plan})
}

// ConvertCurrencyHandler converts an amount between two currencies
func (s *Server) ConvertCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	var req ConvertCurrencyRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.renderError(w, err, http.StatusBadRequest)
		return
	}

	conv, err := s.Converter.Convert(r.Context(), req.Amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, currency.ErrInvalidInput) || errors.Is(err, currency.ErrUnknownCurrency) {
			status = http.StatusBadRequest
		}
		s.renderError(w, err, status)
		return
	}

	s.encodeJSON(w, http.StatusOK, dataResponse{Data: conv})
}

func (s *Server) decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("invalid request: %s", strings.Join(fields, ", "))
		}
		return err
	}

	return nil
}

func (s *Server) renderError(w http.ResponseWriter, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("Request failed")
	}
	s.encodeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) encodeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Failed to encode response")
	}
}
