package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trip-planner-rag/internal/models"
)

func TestFormatPlan(t *testing.T) {
	out := formatPlan("Kyoto, Japan", &models.TripPlan{
		Hotels:      []models.Hotel{{Name: "Hoshinoya", Description: "Riverside ryokan", PriceRange: "$$$$", MapLink: "https://maps.example/h"}},
		Restaurants: []models.Restaurant{{Name: "Okutan", Cuisine: "Tofu", Reason: "Since 1635", MapLink: "https://maps.example/r"}},
		Itinerary: []models.DayPlan{{Day: 1, Date: "October 10, 2025", Activities: []models.Activity{
			{Time: "09:00", Name: "Kinkaku-ji", Description: "Golden pavilion", MapLink: "https://maps.example/k"},
		}}},
		Sources: []string{"kyoto.pdf", "food.txt"},
	})

	assert.Contains(t, out, "Trip to Kyoto, Japan")
	assert.Contains(t, out, "1. Hoshinoya ($$$$)")
	assert.Contains(t, out, "1. Okutan - Tofu")
	assert.Contains(t, out, "Day 1 - October 10, 2025")
	assert.Contains(t, out, "- 09:00 Kinkaku-ji: Golden pavilion")
	assert.Contains(t, out, "Sources: kyoto.pdf | food.txt")
}
