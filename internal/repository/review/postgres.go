package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const reviewSelect = `
SELECT r.id::text, r.reviewer_id::text, u.username, r.business_id::text, r.product_id::text,
       r.rating, r.comment,
       COUNT(l.user_id) FILTER (WHERE l.is_like),
       COUNT(l.user_id) FILTER (WHERE NOT l.is_like),
       r.created_at, r.updated_at
FROM reviews r
JOIN users u ON u.id = r.reviewer_id
LEFT JOIN review_likes l ON l.review_id = r.id`

const reviewGroup = `
GROUP BY r.id, u.username`

func targetColumn(target domain.ReviewTarget) (string, error) {
	switch target {
	case domain.ReviewTargetBusiness:
		return "business_id", nil
	case domain.ReviewTargetProduct:
		return "product_id", nil
	}
	return "", fmt.Errorf("unknown review target %q", target)
}

func (r *postgresRepo) Upsert(ctx context.Context, rv domain.Review) (*domain.Review, error) {
	col, err := targetColumn(rv.Target)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO reviews (reviewer_id, ` + col + `, rating, comment)
VALUES ($1, $2, $3, $4)
ON CONFLICT (reviewer_id, ` + col + `) WHERE ` + col + ` IS NOT NULL
DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = now()
RETURNING id::text`
	var id string
	if err := r.pool.QueryRow(ctx, q, rv.ReviewerID, rv.TargetID, rv.Rating, rv.Comment).Scan(&id); err != nil {
		r.logger.Printf("review repo: upsert reviewer_id=%s %s=%s error=%v", rv.ReviewerID, col, rv.TargetID, err)
		return nil, err
	}
	r.logger.Printf("review repo: upsert id=%s reviewer_id=%s %s=%s rating=%d", id, rv.ReviewerID, col, rv.TargetID, rv.Rating)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	return scanReview(r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`+reviewGroup, id))
}

func (r *postgresRepo) ListForTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.Review, error) {
	col, err := targetColumn(target)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, reviewSelect+` WHERE r.`+col+` = $1`+reviewGroup+` ORDER BY r.created_at DESC`, targetID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Review, error) {
	return r.list(ctx, reviewSelect+reviewGroup+` ORDER BY r.created_at DESC`)
}

func (r *postgresRepo) Summary(ctx context.Context, target domain.ReviewTarget, targetID string) (domain.RatingSummary, error) {
	var s domain.RatingSummary
	col, err := targetColumn(target)
	if err != nil {
		return s, err
	}
	q := `SELECT COUNT(*), COALESCE(ROUND(AVG(rating), 2), 0)::text FROM reviews WHERE ` + col + ` = $1`
	if err := r.pool.QueryRow(ctx, q, targetID).Scan(&s.Count, &s.Average); err != nil {
		return s, err
	}
	return s, nil
}

func (r *postgresRepo) React(ctx context.Context, reviewID, userID string, reaction domain.Reaction) (domain.ReactionOutcome, error) {
	var out domain.ReactionOutcome
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	// Serialises concurrent toggles on the same review.
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT TRUE FROM reviews WHERE id = $1 FOR UPDATE`, reviewID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, domain.ErrNotFound
		}
		return out, err
	}

	var prev *domain.Reaction
	var isLike bool
	err = tx.QueryRow(ctx, `SELECT is_like FROM review_likes WHERE review_id = $1 AND user_id = $2`, reviewID, userID).Scan(&isLike)
	switch {
	case err == nil:
		p := domain.ReactionDislike
		if isLike {
			p = domain.ReactionLike
		}
		prev = &p
	case !errors.Is(err, pgx.ErrNoRows):
		return out, err
	}

	next, outcome := domain.ToggleReaction(prev, reaction)
	if next == nil {
		_, err = tx.Exec(ctx, `DELETE FROM review_likes WHERE review_id = $1 AND user_id = $2`, reviewID, userID)
	} else {
		_, err = tx.Exec(ctx, `
INSERT INTO review_likes (review_id, user_id, is_like)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, review_id) DO UPDATE SET is_like = EXCLUDED.is_like
`, reviewID, userID, *next == domain.ReactionLike)
	}
	if err != nil {
		r.logger.Printf("review repo: react id=%s user_id=%s error=%v", reviewID, userID, err)
		return out, err
	}

	err = tx.QueryRow(ctx, `
SELECT COUNT(*) FILTER (WHERE is_like), COUNT(*) FILTER (WHERE NOT is_like)
FROM review_likes
WHERE review_id = $1
`, reviewID).Scan(&out.Likes, &out.Dislikes)
	if err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}
	out.Outcome = outcome
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("review repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("review repo: delete id=%s", id)
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("review repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rv)
	}
	return result, rows.Err()
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv         domain.Review
		businessID *string
		productID  *string
	)
	err := row.Scan(
		&rv.ID,
		&rv.ReviewerID,
		&rv.ReviewerName,
		&businessID,
		&productID,
		&rv.Rating,
		&rv.Comment,
		&rv.Likes,
		&rv.Dislikes,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	switch {
	case businessID != nil:
		rv.Target, rv.TargetID = domain.ReviewTargetBusiness, *businessID
	case productID != nil:
		rv.Target, rv.TargetID = domain.ReviewTargetProduct, *productID
	}
	return &rv, nil
}
