package registry

import (
	"strings"

	"github.com/ppiankov/checkmate/internal/model"
)

// ratingTable maps publisher-specific scales onto the plain verdict
// vocabulary used by the other resolvers. Keys are lowercase.
var ratingTable = map[string]string{
	"four pinocchios":    "False",
	"4 pinocchios":       "False",
	"three pinocchios":   "Mostly false",
	"3 pinocchios":       "Mostly false",
	"two pinocchios":     "Half true",
	"2 pinocchios":       "Half true",
	"one pinocchio":      "Mostly true",
	"1 pinocchio":        "Mostly true",
	"geppetto checkmark": "True",
	"geppetto":           "True",
	"verdict pending":    "Verdict pending",
}

// NormalizeRating maps a registry textual rating to the common vocabulary.
// Unknown ratings pass through trimmed; blank ratings become None.
func NormalizeRating(rating string) string {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return model.None
	}

	key := strings.ToLower(strings.TrimRight(rating, ".!"))
	key = strings.Join(strings.Fields(key), " ")
	if mapped, ok := ratingTable[key]; ok {
		return mapped
	}
	return rating
}
