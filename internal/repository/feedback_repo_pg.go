package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/internal/domain"
)

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	List(ctx context.Context) ([]domain.Feedback, error)
}

type PGFeedbackRepository struct {
	db *pgxpool.Pool
}

func NewFeedbackRepository(db *pgxpool.Pool) FeedbackRepository {
	return &PGFeedbackRepository{db: db}
}

func (r *PGFeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	err := r.db.QueryRow(ctx, `INSERT INTO feedback (user_id, comment) VALUES ($1, $2) RETURNING id, created_at`,
		feedback.UserID, feedback.Comment).
		Scan(&feedback.ID, &feedback.CreatedAt)
	if err != nil {
		return storageErr("insert feedback", err)
	}
	return nil
}

func (r *PGFeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, comment, created_at FROM feedback ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr("list feedback", err)
	}
	defer rows.Close()

	items := make([]domain.Feedback, 0)
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Comment, &f.CreatedAt); err != nil {
			return nil, storageErr("scan feedback", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate feedback", err)
	}
	return items, nil
}

var _ FeedbackRepository = (*PGFeedbackRepository)(nil)
