package model

import "time"

// Closed classification sets for the exercise catalog. Validation happens
// in the service layer against these maps — an unknown value is a 400,
// never silently stored.

var Muscles = stringSet(
	"abdominals", "hamstrings", "calves", "shoulders", "adductors",
	"glutes", "quadriceps", "biceps", "forearms", "abductors",
	"triceps", "chest", "lower_back", "traps", "middle_back", "lats", "neck",
)

var Forces = stringSet("pull", "push", "static")

var Levels = stringSet("beginner", "intermediate", "expert")

var Mechanics = stringSet("compound", "isolation")

var Equipment = stringSet(
	"body only", "machine", "kettlebells", "dumbbell", "cable", "barbell",
	"bands", "medicine ball", "exercise ball", "e-z curl bar", "foam roll",
)

var Categories = stringSet(
	"strength", "stretching", "plyometrics", "strongman", "powerlifting",
	"cardio", "olympic weightlifting", "crossfit", "weighted bodyweight",
	"assisted bodyweight",
)

var WeightUnits = stringSet("lbs", "kgs")

func stringSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Exercise is a catalog entry. Name, category, and at least one
// instruction step are required at creation; everything else is optional
// or defaulted. OwnerUserID is empty for seeded catalog rows — those can
// only be mutated by an admin.
type Exercise struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Aliases          []string  `json:"aliases,omitempty"`
	PrimaryMuscles   []string  `json:"primaryMuscles"`
	SecondaryMuscles []string  `json:"secondaryMuscles,omitempty"`
	Force            string    `json:"force,omitempty"`
	Level            string    `json:"level,omitempty"`
	Mechanic         string    `json:"mechanic,omitempty"`
	Equipment        string    `json:"equipment,omitempty"`
	Category         string    `json:"category"`
	Instructions     []string  `json:"instructions"`
	Description      string    `json:"description,omitempty"`
	Tips             []string  `json:"tips,omitempty"`
	Sets             int       `json:"sets"`
	RepsPerSet       int       `json:"repsPerSet"`
	Weighted         bool      `json:"weight"`
	WeightPerRep     float64   `json:"weightPerRep"`
	WeightUnits      string    `json:"weightUnits"`
	OwnerUserID      string    `json:"createdBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
