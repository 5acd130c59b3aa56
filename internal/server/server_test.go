package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner-rag/internal/currency"
	"trip-planner-rag/internal/llm"
	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/planner"
)

type stubPlanner struct {
	plan *models.TripPlan
	err  error
	req  models.TripRequest
}

func (s *stubPlanner) PlanTrip(_ context.Context, req models.TripRequest) (*models.TripPlan, error) {
	s.req = req
	return s.plan, s.err
}

type stubConverter struct{ err error }

func (s stubConverter) Convert(_ context.Context, amount float64, from, to string) (*currency.Conversion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &currency.Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Rate:      0.92,
		Converted: amount * 0.92,
		Summary:   fmt.Sprintf("%.2f %s is approximately %.2f %s.", amount, from, amount*0.92, to),
	}, nil
}

func newTestServer(p TripPlanner, c CurrencyConverter) *httptest.Server {
	log, _ := test.NewNullLogger()
	return httptest.NewServer(New(p, c, log).Router())
}

func post(t *testing.T, url, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubPlanner{}, stubConverter{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestPlanTrip(t *testing.T) {
	p := &stubPlanner{plan: &models.TripPlan{
		Hotels:      []models.Hotel{},
		Restaurants: []models.Restaurant{},
		Itinerary:   []models.DayPlan{{Day: 1, Date: "October 10, 2025", Activities: []models.Activity{}}},
		Sources:     []string{"kyoto.pdf"},
	}}
	srv := newTestServer(p, stubConverter{})
	defer srv.Close()

	status, body := post(t, srv.URL+"/api/plan-full-trip",
		`{"destination":" Kyoto, Japan ","from_date":"2025-10-10","to_date":"2025-10-10","preferences":"temples"}`)
	require.Equal(t, http.StatusOK, status)

	var plan models.TripPlan
	require.NoError(t, json.Unmarshal(body["data"], &plan))
	assert.Equal(t, []string{"kyoto.pdf"}, plan.Sources)
	assert.Equal(t, "October 10, 2025", plan.Itinerary[0].Date)

	assert.Equal(t, "Kyoto, Japan", p.req.Destination)
	assert.Equal(t, "temples", p.req.Preferences)
}

func TestPlanTrip_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"destination":`, nil, http.StatusBadRequest},
		{"missing destination", `{"from_date":"2025-10-10","to_date":"2025-10-12"}`, nil, http.StatusBadRequest},
		{"bad date", `{"destination":"Kyoto","from_date":"10/10/2025","to_date":"2025-10-12"}`, nil, http.StatusBadRequest},
		{"inverted range", `{"destination":"Kyoto","from_date":"2025-10-12","to_date":"2025-10-10"}`,
			&planner.StageError{Stage: planner.StageValidate, Err: planner.ErrInvalidInput}, http.StatusBadRequest},
		{"trip too long", `{"destination":"Kyoto","from_date":"2025-10-01","to_date":"2025-12-31"}`,
			&planner.StageError{Stage: planner.StageValidate, Err: planner.ErrTripTooLong}, http.StatusBadRequest},
		{"generation failure", `{"destination":"Kyoto","from_date":"2025-10-10","to_date":"2025-10-12"}`,
			&planner.StageError{Stage: planner.StageGenerate, Err: &llm.Error{Kind: llm.KindTransport, Err: errors.New("refused")}}, http.StatusInternalServerError},
		{"unusable plan", `{"destination":"Kyoto","from_date":"2025-10-10","to_date":"2025-10-12"}`,
			&planner.StageError{Stage: planner.StageReconcile, Err: fmt.Errorf("%w for Kyoto", planner.ErrUnusablePlan)}, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&stubPlanner{err: tc.err}, stubConverter{})
			defer srv.Close()

			status, body := post(t, srv.URL+"/api/plan-full-trip", tc.body)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestConvertCurrency(t *testing.T) {
	srv := newTestServer(&stubPlanner{}, stubConverter{})
	defer srv.Close()

	status, body := post(t, srv.URL+"/api/convert-currency", `{"amount":100,"from_currency":"USD","to_currency":"EUR"}`)
	require.Equal(t, http.StatusOK, status)

	var conv currency.Conversion
	require.NoError(t, json.Unmarshal(body["data"], &conv))
	assert.Equal(t, "100.00 USD is approximately 92.00 EUR.", conv.Summary)

	status, _ = post(t, srv.URL+"/api/convert-currency", `{"amount":-5,"from_currency":"USD","to_currency":"EUR"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, srv.URL+"/api/convert-currency", `{"amount":5,"from_currency":"US","to_currency":"EUR"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConvertCurrency_UnknownCode(t *testing.T) {
	srv := newTestServer(&stubPlanner{}, stubConverter{err: fmt.Errorf("%w: XYZ", currency.ErrUnknownCurrency)})
	defer srv.Close()

	status, body := post(t, srv.URL+"/api/convert-currency", `{"amount":5,"from_currency":"USD","to_currency":"XYZ"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body["error"]), "XYZ")
}
