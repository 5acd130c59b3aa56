package planner

import (
	"fmt"
	"regexp"
	"strings"

	"trip-planner-rag/internal/models"
)

var markdownLinkRe = regexp.MustCompile(`^\[[^\]]*\]\(\s*(\S+?)\s*\)$`)

// SanitizeLink unwraps a markdown link "[label](URL)" to its bare URL.
// Anything else is returned unchanged.
func SanitizeLink(link string) string {
	m := markdownLinkRe.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return link
	}
	return m[1]
}

// Reconcile cleans a generated plan: map links are unwrapped, the itinerary is
// truncated to numDays and every day is renumbered and re-dated from dates.
// A plan without itinerary entries is rejected with ErrUnusablePlan.
func Reconcile(raw *models.TripPlan, req models.TripRequest, numDays int, dates []string) (*models.TripPlan, error) {
	if raw == nil || len(raw.Itinerary) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrUnusablePlan, req.Destination)
	}

	plan := &models.TripPlan{
		Hotels:      make([]models.Hotel, len(raw.Hotels)),
		Restaurants: make([]models.Restaurant, len(raw.Restaurants)),
		Sources:     make([]string, len(raw.Sources)),
	}
	copy(plan.Sources, raw.Sources)

	for i, h := range raw.Hotels {
		h.MapLink = SanitizeLink(h.MapLink)
		plan.Hotels[i] = h
	}
	for i, r := range raw.Restaurants {
		r.MapLink = SanitizeLink(r.MapLink)
		plan.Restaurants[i] = r
	}

	n := min(len(raw.Itinerary), numDays, len(dates))
	plan.Itinerary = make([]models.DayPlan, n)
	for i := 0; i < n; i++ {
		day := raw.Itinerary[i]
		activities := make([]models.Activity, len(day.Activities))
		for j, a := range day.Activities {
			a.MapLink = SanitizeLink(a.MapLink)
			activities[j] = a
		}

		plan.Itinerary[i] = models.DayPlan{
			Day:        i + 1,
			Date:       dates[i],
			Activities: activities,
		}
	}

	return plan, nil
}
