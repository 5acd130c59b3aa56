package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trip-planner-rag/internal/llm"
	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/retrieval"
)

// DefaultMaxDays caps the length of a single trip
const DefaultMaxDays = 30

var (
	// ErrInvalidInput is returned for a bad destination or date range
	ErrInvalidInput = errors.New("invalid date format/range")

	// ErrTripTooLong is returned when a valid range exceeds MaxDays
	ErrTripTooLong = errors.New("trip exceeds the maximum number of days")

	// ErrUnusablePlan is returned when the model produced no itinerary
	ErrUnusablePlan = errors.New("generated plan has no itinerary")
)

// Stage names the pipeline step that failed
type Stage string

const (
	StageValidate  Stage = "validate"
	StageGenerate  Stage = "generate"
	StageReconcile Stage = "reconcile"
)

// StageError tags a failure with the stage it came from
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Retriever finds knowledge base context for a query
type Retriever interface {
	Retrieve(ctx context.Context, query string) retrieval.Result
}

// Planner runs the retrieve, compose, generate and reconcile pipeline
type Planner struct {
	Retriever Retriever
	Generator llm.Generator
	MaxDays   int
	log       logrus.FieldLogger
}

// New creates a planner
func New(retriever Retriever, generator llm.Generator, log logrus.FieldLogger) *Planner {
	return &Planner{
		Retriever: retriever,
		Generator: generator,
		MaxDays:   DefaultMaxDays,
		log:       log,
	}
}

// PlanTrip produces a finalized plan or a *StageError
func (p *Planner) PlanTrip(ctx context.Context, req models.TripRequest) (*models.TripPlan, error) {
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		return nil, &StageError{Stage: StageValidate, Err: fmt.Errorf("%w: destination is required", ErrInvalidInput)}
	}

	start, numDays, err := ParseRange(req.FromDate, req.ToDate)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	if p.MaxDays > 0 && numDays > p.MaxDays {
		return nil, &StageError{Stage: StageValidate, Err: fmt.Errorf("%w: %d days requested, limit is %d", ErrTripTooLong, numDays, p.MaxDays)}
	}

	dates := DateList(start, numDays)

	log := p.log.WithFields(logrus.Fields{
		"destination": req.Destination,
		"days":        numDays,
	})

	query := req.Destination
	if prefs := strings.TrimSpace(req.Preferences); prefs != "" {
		query += " " + prefs
	}

	var result retrieval.Result
	if p.Retriever != nil {
		result = p.Retriever.Retrieve(ctx, query)
	}

	prompt := llm.Compose(req, dates, result)
	switch prompt.(type) {
	case llm.ContextAugmented:
		log.WithField("sources", prompt.AllowedSources()).Info("Planning trip with knowledge base context")
	default:
		log.Info("No relevant context found, planning trip from general knowledge")
	}

	startTime := time.Now()
	raw, err := p.Generator.Generate(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("Trip generation failed")
		return nil, &StageError{Stage: StageGenerate, Err: err}
	}
	log.Infof("Trip generated in %v", time.Since(startTime).Round(time.Millisecond))

	plan, err := Reconcile(raw, req, numDays, dates)
	if err != nil {
		log.WithError(err).Warn("Generated plan rejected")
		return nil, &StageError{Stage: StageReconcile, Err: err}
	}

	return plan, nil
}
