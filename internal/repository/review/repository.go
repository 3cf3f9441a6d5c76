package review

import (
	"context"

	"marketplace/internal/domain"
)

type Repository interface {
	// Upsert stores the reviewer's review of the target, replacing rating
	// and comment of an earlier one.
	Upsert(ctx context.Context, r domain.Review) (*domain.Review, error)
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	// ListForTarget returns reviews newest first with like counts.
	ListForTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	Summary(ctx context.Context, target domain.ReviewTarget, targetID string) (domain.RatingSummary, error)
	// React toggles the user's like or dislike on a review.
	React(ctx context.Context, reviewID, userID string, r domain.Reaction) (domain.ReactionOutcome, error)
	Delete(ctx context.Context, id string) error
}
