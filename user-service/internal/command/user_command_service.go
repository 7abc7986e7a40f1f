package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/shared/utils"
	"github.com/rs/zerolog/log"
)

type UserWriter interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type UserViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo UserWriter
	readRepo  UserViewCache
	publisher EventPublisher
	now       func() time.Time
}

func NewUserCommandService(writeRepo UserWriter, readRepo UserViewCache, publisher EventPublisher) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserCommandService) RegisterUser(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.UserView, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", errs.ErrInvalidInput)
	}
	if cmd.MonthlyBudget.IsNegative() {
		return nil, fmt.Errorf("%w: monthly budget must not be negative", errs.ErrInvalidInput)
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now()
	user := &models.User{
		ID:            utils.GenerateID(utils.UserIDPrefix),
		Username:      username,
		Email:         utils.NormalizeEmail(cmd.Email),
		PasswordHash:  passwordHash,
		MonthlyBudget: cmd.MonthlyBudget,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	view := userToView(user)
	s.readRepo.CacheUserView(ctx, view)
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID:        user.ID,
		Email:         user.Email,
		Username:      user.Username,
		MonthlyBudget: user.MonthlyBudget,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("userId", user.ID).Msg("Failed to publish user.created event")
	}
	return view, nil
}

// UpdateProfile applies the non-nil fields of cmd.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.Username != nil {
		username := strings.TrimSpace(*cmd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", errs.ErrInvalidInput)
		}
		user.Username = username
	}
	if cmd.MonthlyBudget != nil {
		if cmd.MonthlyBudget.IsNegative() {
			return nil, fmt.Errorf("%w: monthly budget must not be negative", errs.ErrInvalidInput)
		}
		user.MonthlyBudget = *cmd.MonthlyBudget
	}
	user.UpdatedAt = s.now()
	if err := s.writeRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	view := userToView(user)
	s.readRepo.CacheUserView(ctx, view)
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID:        user.ID,
		Username:      user.Username,
		MonthlyBudget: user.MonthlyBudget,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("userId", user.ID).Msg("Failed to publish user.updated event")
	}
	return view, nil
}

func userToView(u *models.User) *models.UserView {
	return &models.UserView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		MonthlyBudget: u.MonthlyBudget,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
