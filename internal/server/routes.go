package server

import (
	"context"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"trip-planner-rag/internal/currency"
	"trip-planner-rag/internal/models"
)

const (
	ReadHeaderTimeout = 5 * time.Second
	MaxRequestSize    = 1 << 20
)

// TripPlanner is the core trip planning pipeline
type TripPlanner interface {
	PlanTrip(ctx context.Context, req models.TripRequest) (*models.TripPlan, error)
}

// CurrencyConverter converts amounts between currencies
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (*currency.Conversion, error)
}

// Server holds the collaborators behind the HTTP routes
type Server struct {
	Planner   TripPlanner
	Converter CurrencyConverter
	log       logrus.FieldLogger
	validate  *validator.Validate
}

// New creates a server
func New(planner TripPlanner, converter CurrencyConverter, log logrus.FieldLogger) *Server {
	return &Server{
		Planner:   planner,
		Converter: converter,
		log:       log,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create creates a new HTTP server listening on addr
func (s *Server) Create(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

// Router builds the chi router
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", s.log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestSize(MaxRequestSize))
	router.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, _ string) bool { return true },
		AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:  []string{"*"},
	}))

	router.Get("/health", s.HealthHandler)
	router.Route("/api", func(r chi.Router) {
		r.Post("/plan-full-trip", s.PlanTripHandler)
		r.Post("/convert-currency", s.ConvertCurrencyHandler)
	})

	return router
}
