package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReviewTarget is what a review rates.
type ReviewTarget string

const (
	ReviewTargetBusiness ReviewTarget = "business"
	ReviewTargetProduct  ReviewTarget = "product"
)

const (
	MinRating = 1
	MaxRating = 5

	maxCommentLength = 2000
)

// Review is one reviewer's rating of a business or product. A reviewer holds
// at most one review per target; rating again replaces it.
type Review struct {
	ID           string
	ReviewerID   string
	ReviewerName string
	Target       ReviewTarget
	TargetID     string
	Rating       int
	Comment      string
	Likes        int
	Dislikes     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeReview trims the comment and checks the rating bounds.
func NormalizeReview(rating int, comment string) (string, error) {
	if rating < MinRating || rating > MaxRating {
		return "", Invalid("rating must be between %d and %d", MinRating, MaxRating)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return "", Invalid("comment must be at most %d characters", maxCommentLength)
	}
	return comment, nil
}

// RatingSummary aggregates the reviews of one target.
type RatingSummary struct {
	Count   int
	Average decimal.Decimal
}

// Reaction is a like or dislike on a review.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

func ParseReaction(raw string) (Reaction, error) {
	r := Reaction(strings.ToLower(strings.TrimSpace(raw)))
	if r != ReactionLike && r != ReactionDislike {
		return "", Invalid("action must be like or dislike")
	}
	return r, nil
}

// ReactionOutcome reports what a toggle did and the review's new counts.
// Outcome is one of liked, disliked, removed_like, removed_dislike,
// switched_to_like and switched_to_dislike.
type ReactionOutcome struct {
	Outcome  string
	Likes    int
	Dislikes int
}

// ToggleReaction decides the effect of pressing r when the user's stored
// reaction is prev (nil for none). It returns the reaction to store, nil to
// remove it, and the outcome label.
func ToggleReaction(prev *Reaction, r Reaction) (*Reaction, string) {
	switch {
	case prev == nil:
		return &r, string(r) + "d"
	case *prev == r:
		return nil, "removed_" + string(r)
	default:
		return &r, "switched_to_" + string(r)
	}
}
