package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trip-planner-rag/internal/app"
	"trip-planner-rag/internal/config"
	"trip-planner-rag/internal/embedding"
	"trip-planner-rag/internal/index"
	"trip-planner-rag/internal/llm"
	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/planner"
)

var (
	fromDate    string
	toDate      string
	preferences string
	jsonOutput  bool
)

var planCmd = &cobra.Command{
	Use:     "plan <destination>",
	Short:   "Plan a trip and print it",
	Example: `tripplan plan "Kyoto, Japan" --from 2025-10-10 --to 2025-10-15 --prefs "historical, nature"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p, closeFn, err := newPlanner(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer closeFn()

		startTime := time.Now()
		plan, err := p.PlanTrip(cmd.Context(), models.TripRequest{
			Destination: args[0],
			FromDate:    fromDate,
			ToDate:      toDate,
			Preferences: preferences,
		})
		if err != nil {
			return err
		}
		log.Infof("Trip planned in %v", time.Since(startTime).Round(time.Millisecond))

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}

		fmt.Print(formatPlan(args[0], plan))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&fromDate, "from", "", "first day of the trip (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&toDate, "to", "", "last day of the trip (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&preferences, "prefs", "", "travel preferences")
	planCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the plan as JSON")
	_ = planCmd.MarkFlagRequired("from")
	_ = planCmd.MarkFlagRequired("to")
}

// newPlanner opens the index and wires the pipeline. When the index has not
// been built it is built from the knowledge base if build is set, otherwise
// planning continues without retrieval. A corrupt index is fatal.
func newPlanner(ctx context.Context, cfg *config.Config, build bool) (*planner.Planner, func(), error) {
	embedder, err := app.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	generator, err := app.NewGenerator(cfg)
	if err != nil {
		return nil, nil, err
	}

	idx, closeFn, err := openIndex(ctx, cfg, embedder, build)
	if err != nil {
		return nil, nil, err
	}

	return app.NewPlanner(cfg, idx, embedder, generator, log), closeFn, nil
}

func openIndex(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, build bool) (index.Index, func(), error) {
	builder, closeStore, err := app.NewBuilder(ctx, cfg, embedder, log)
	if err != nil {
		return nil, nil, err
	}

	idx, err := builder.Load(ctx)
	switch {
	case err == nil:
		log.Infof("Loaded vector index with %d chunks from %s", idx.Len(), cfg.Index.Location)
		return idx, closeStore, nil
	case !errors.Is(err, index.ErrNotBuilt):
		closeStore()
		return nil, nil, fmt.Errorf("failed to load vector index: %w", err)
	case build:
		log.Warnf("Vector index not found at %s, building it", cfg.Index.Location)
		idx, _, err = app.BuildFromFolder(ctx, cfg, builder, log)
		if errors.Is(err, index.ErrNoChunks) {
			log.Warn("Knowledge base is empty, continuing without retrieval")
			return nil, closeStore, nil
		}
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		return idx, closeStore, nil
	default:
		log.Warnf("Vector index not found at %s, continuing without retrieval", cfg.Index.Location)
		return nil, closeStore, nil
	}
}

// formatPlan renders a plan for the terminal
func formatPlan(destination string, plan *models.TripPlan) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Trip to %s\n\n", destination))

	if len(plan.Hotels) > 0 {
		sb.WriteString("Hotels:\n")
		for i, h := range plan.Hotels {
			sb.WriteString(fmt.Sprintf("  %d. %s", i+1, h.Name))
			if h.PriceRange != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", h.PriceRange))
			}
			sb.WriteString(fmt.Sprintf("\n     %s\n     %s\n", h.Description, h.MapLink))
		}
		sb.WriteString("\n")
	}

	if len(plan.Restaurants) > 0 {
		sb.WriteString("Restaurants:\n")
		for i, r := range plan.Restaurants {
			sb.WriteString(fmt.Sprintf("  %d. %s - %s\n     %s\n     %s\n", i+1, r.Name, r.Cuisine, r.Reason, r.MapLink))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Itinerary:\n")
	for _, day := range plan.Itinerary {
		sb.WriteString(fmt.Sprintf("  Day %d - %s\n", day.Day, day.Date))
		for _, a := range day.Activities {
			sb.WriteString("    - ")
			if a.Time != "" {
				sb.WriteString(a.Time + " ")
			}
			sb.WriteString(fmt.Sprintf("%s: %s\n      %s\n", a.Name, a.Description, a.MapLink))
		}
	}

	if len(plan.Sources) > 0 {
		sb.WriteString(fmt.Sprintf("\nSources: %s\n", strings.Join(plan.Sources, " | ")))
	}

	return sb.String()
}

var jsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Print the JSON Schema generated plans must satisfy",
	Example: "tripplan json-schema > trip_plan_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := llm.PlanSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}
