package enums

import "fmt"

// Rating is the audience classification of a video.
type Rating string

const (
	RatingER    Rating = "ER"
	RatingFree  Rating = "L"
	RatingAge10 Rating = "10"
	RatingAge12 Rating = "12"
	RatingAge14 Rating = "14"
	RatingAge16 Rating = "16"
	RatingAge18 Rating = "18"
)

var validRatings = []Rating{
	RatingER,
	RatingFree,
	RatingAge10,
	RatingAge12,
	RatingAge14,
	RatingAge16,
	RatingAge18,
}

// IsValid checks whether the given rating matches the canonical enum.
func (r Rating) IsValid() bool {
	for _, candidate := range validRatings {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRating converts raw strings into Rating.
func ParseRating(value string) (Rating, error) {
	for _, candidate := range validRatings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rating %q", value)
}
