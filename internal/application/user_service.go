package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// UserService handles sign-in and account administration
type UserService struct {
	userRepo  domain.UserRepository
	orderRepo domain.OrderRepository
	ids       *IDGenerator
	logger    *logging.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo domain.UserRepository,
	orderRepo domain.OrderRepository,
	ids *IDGenerator,
	logger *logging.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		ids:       ids,
		logger:    logger,
	}
}

// Authenticate returns the active account behind an email
func (s *UserService) Authenticate(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, email)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserInactive, user.Email)
	}
	return user, nil
}

// Login signs in an existing account. The requested role must match the
// stored one, so a customer cannot enter the admin panel.
func (s *UserService) Login(ctx context.Context, cmd LoginCommand) (*UserDTO, error) {
	user, err := s.Authenticate(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.UserRole(cmd.Role) {
		return nil, errors.ErrUnauthorized("email is not registered for this role")
	}

	s.logger.Info("User logged in", "userId", user.UserID, "role", user.Role)
	return ToUserDTO(user), nil
}

// Register creates a customer account
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*UserDTO, error) {
	return s.create(ctx, cmd.Name, cmd.Email, domain.UserRoleUser)
}

// CreateUser creates an account from the admin panel. Role defaults to admin.
func (s *UserService) CreateUser(ctx context.Context, cmd CreateUserCommand) (*UserDTO, error) {
	role := domain.UserRoleAdmin
	if cmd.Role != "" {
		role = domain.UserRole(cmd.Role)
	}
	dto, err := s.create(ctx, cmd.Name, cmd.Email, role)
	if err != nil {
		return nil, err
	}
	s.logger.Audit(ctx, "create", "user", dto.UserID, actor(ctx), map[string]any{"role": role})
	return dto, nil
}

func (s *UserService) create(ctx context.Context, name, email string, role domain.UserRole) (*UserDTO, error) {
	existing, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, existing.Email)
	}

	user, err := domain.NewUser(s.ids.Next(UserIDPrefix), name, email, role, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.WithError(err).Error("Failed to save user", "userId", user.UserID)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("User created", "userId", user.UserID, "role", user.Role)
	return ToUserDTO(user), nil
}

// ListUsers lists accounts, optionally for one role
func (s *UserService) ListUsers(ctx context.Context, role *string) ([]UserDTO, error) {
	filter := domain.UserFilter{}
	if role != nil && *role != "" {
		r := domain.UserRole(*role)
		if !r.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("unknown role: %s", *role))
		}
		filter.Role = &r
	}

	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = *ToUserDTO(u)
	}
	return dtos, nil
}

// ToggleActive activates or deactivates an account
func (s *UserService) ToggleActive(ctx context.Context, userID string) (*UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Email == domain.NormalizeEmail(actor(ctx)) && user.IsActive {
		return nil, errors.ErrConflict("cannot deactivate your own account")
	}

	active := user.ToggleActive()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.WithError(err).Error("Failed to save user", "userId", userID)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Audit(ctx, "toggle_active", "user", userID, actor(ctx), map[string]any{"isActive": active})
	return ToUserDTO(user), nil
}

// Profile returns an account by ID
func (s *UserService) Profile(ctx context.Context, userID string) (*UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserDTO(user), nil
}

// UserOrders lists the orders placed by an account
func (s *UserService) UserOrders(ctx context.Context, userID string) ([]OrderDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindAll(ctx, domain.OrderFilter{CustomerEmail: &user.Email}, domain.Unpaginated())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return ToOrderDTOs(orders), nil
}

func (s *UserService) findUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return user, nil
}
