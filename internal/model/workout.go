package model

import "time"

// Privacy of a workout. Public workouts show up in the shared listing;
// private ones are visible only through the owner's own list.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

func ValidPrivacy(p Privacy) bool {
	return p == PrivacyPublic || p == PrivacyPrivate
}

// Workout is a named, ordered collection of exercise references owned by
// exactly one user. The order of ExerciseIDs is significant for display
// and duplicates are allowed (the same movement can appear twice in a
// session). OwnerUserID never changes after creation.
type Workout struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"user"`
	Title       string    `json:"title"`
	Privacy     Privacy   `json:"privacy"`
	ExerciseIDs []string  `json:"exercises"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
