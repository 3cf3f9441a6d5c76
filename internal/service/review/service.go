package review

import (
	"context"
	"io"
	"log"

	"marketplace/internal/domain"
)

type reviewRepo interface {
	Upsert(ctx context.Context, r domain.Review) (*domain.Review, error)
	ListForTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.Review, error)
	ListAll(ctx context.Context) ([]domain.Review, error)
	Summary(ctx context.Context, target domain.ReviewTarget, targetID string) (domain.RatingSummary, error)
	React(ctx context.Context, reviewID, userID string, r domain.Reaction) (domain.ReactionOutcome, error)
	Delete(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type businessRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Business, error)
}

type Service struct {
	reviews    reviewRepo
	products   productRepo
	businesses businessRepo
	logger     *log.Logger
}

func New(reviews reviewRepo, products productRepo, businesses businessRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{reviews: reviews, products: products, businesses: businesses, logger: logger}
}

type RateInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Listing is a target's reviews, newest first, with their summary.
type Listing struct {
	Summary domain.RatingSummary
	Reviews []domain.Review
}

// RateProduct stores the reviewer's review of a product. Owners cannot rate
// products of their own business.
func (s *Service) RateProduct(ctx context.Context, reviewer domain.User, productID string, in RateInput) (*domain.Review, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	b, err := s.businesses.GetByID(ctx, p.BusinessID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID == reviewer.ID {
		return nil, domain.ErrPermissionDenied
	}
	return s.rate(ctx, reviewer, domain.ReviewTargetProduct, p.ID, in)
}

func (s *Service) RateBusiness(ctx context.Context, reviewer domain.User, businessID string, in RateInput) (*domain.Review, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID == reviewer.ID {
		return nil, domain.ErrPermissionDenied
	}
	return s.rate(ctx, reviewer, domain.ReviewTargetBusiness, b.ID, in)
}

func (s *Service) rate(ctx context.Context, reviewer domain.User, target domain.ReviewTarget, targetID string, in RateInput) (*domain.Review, error) {
	comment, err := domain.NormalizeReview(in.Rating, in.Comment)
	if err != nil {
		return nil, err
	}
	r, err := s.reviews.Upsert(ctx, domain.Review{
		ReviewerID: reviewer.ID,
		Target:     target,
		TargetID:   targetID,
		Rating:     in.Rating,
		Comment:    comment,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("review service: rated %s=%s reviewer_id=%s rating=%d", target, targetID, reviewer.ID, in.Rating)
	return r, nil
}

func (s *Service) ForProduct(ctx context.Context, productID string) (*Listing, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.listing(ctx, domain.ReviewTargetProduct, productID)
}

func (s *Service) ForBusiness(ctx context.Context, businessID string) (*Listing, error) {
	if _, err := s.businesses.GetByID(ctx, businessID); err != nil {
		return nil, err
	}
	return s.listing(ctx, domain.ReviewTargetBusiness, businessID)
}

func (s *Service) listing(ctx context.Context, target domain.ReviewTarget, targetID string) (*Listing, error) {
	reviews, err := s.reviews.ListForTarget(ctx, target, targetID)
	if err != nil {
		return nil, err
	}
	summary, err := s.reviews.Summary(ctx, target, targetID)
	if err != nil {
		return nil, err
	}
	return &Listing{Summary: summary, Reviews: reviews}, nil
}

// React toggles user's like or dislike on a review.
func (s *Service) React(ctx context.Context, user domain.User, reviewID, rawAction string) (domain.ReactionOutcome, error) {
	reaction, err := domain.ParseReaction(rawAction)
	if err != nil {
		return domain.ReactionOutcome{}, err
	}
	return s.reviews.React(ctx, reviewID, user.ID, reaction)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Review, error) {
	return s.reviews.ListAll(ctx)
}

func (s *Service) Delete(ctx context.Context, reviewID string) error {
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	s.logger.Printf("review service: deleted id=%s", reviewID)
	return nil
}
