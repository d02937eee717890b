package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tverdin/carrental/internal/cache"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, actorID, userID int64) error
}

// Sessions stores opaque login tokens. Tokens expire on their own; every
// request resolves its user from the token instead of ambient state.
type Sessions interface {
	SaveSession(ctx context.Context, token string, userID int64, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (int64, error)
	DeleteSession(ctx context.Context, token string) error
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

type UserService struct {
	repo       repository.UserRepository
	sessions   Sessions
	sessionTTL time.Duration
}

func NewUserService(repo repository.UserRepository, sessions Sessions, sessionTTL time.Duration) *UserService {
	return &UserService{repo: repo, sessions: sessions, sessionTTL: sessionTTL}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	switch {
	case input.Name == "":
		return nil, &domain.ValidationError{Msg: "name is required"}
	case input.Email == "":
		return nil, &domain.ValidationError{Msg: "email is required"}
	case input.Password == "":
		return nil, &domain.ValidationError{Msg: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Phone:        input.Phone,
		Address:      input.Address,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", &domain.ValidationError{Msg: "email and password are required"}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.SaveSession(ctx, token, user.ID, s.sessionTTL); err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// Delete removes a user. An admin cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return &domain.ValidationError{Msg: "cannot delete your own account"}
	}
	return s.repo.Delete(ctx, userID)
}

var _ UserUseCase = (*UserService)(nil)
