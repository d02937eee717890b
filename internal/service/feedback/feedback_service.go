package feedback

import (
	"context"

	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/repository"
)

type FeedbackUseCase interface {
	Submit(ctx context.Context, userID int64, comment string) (*domain.Feedback, error)
	List(ctx context.Context) ([]domain.Feedback, error)
}

type FeedbackService struct {
	repo  repository.FeedbackRepository
	users repository.UserRepository
}

func NewFeedbackService(repo repository.FeedbackRepository, users repository.UserRepository) *FeedbackService {
	return &FeedbackService{repo: repo, users: users}
}

func (s *FeedbackService) Submit(ctx context.Context, userID int64, comment string) (*domain.Feedback, error) {
	if comment == "" {
		return nil, &domain.ValidationError{Msg: "comment is required"}
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	fb := &domain.Feedback{UserID: userID, Comment: comment}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	return s.repo.List(ctx)
}

var _ FeedbackUseCase = (*FeedbackService)(nil)
