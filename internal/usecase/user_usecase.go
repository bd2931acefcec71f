package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/cardledger/internal/domain"
)

// DefaultTierID is assigned to new users until an admin moves them.
const DefaultTierID = "standard"

// SessionTTL bounds how long a login session stays valid.
const SessionTTL = 24 * time.Hour

// UserUseCase handles user management and authentication.
type UserUseCase struct {
	userRepo UserRepository
	sessions SessionStore
	idGen    IDGenerator
}

// NewUserUseCase creates a new UserUseCase. sessions may be nil.
func NewUserUseCase(userRepo UserRepository, sessions SessionStore, idGen IDGenerator) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		sessions: sessions,
		idGen:    idGen,
	}
}

// CreateUserInput represents input for creating a user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
	TierID   string
}

// CreateUser creates a new user with a hashed password and a zero balance on
// the default tier.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = domain.RoleUser
	}

	if !input.Role.IsValid() {
		return nil, errors.New("invalid role")
	}

	if input.TierID == "" {
		input.TierID = DefaultTierID
	}

	existing, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, errors.New("user with this email already exists")
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uc.idGen.Generate(),
		Email:          input.Email,
		Name:           input.Name,
		HashedPassword: hashedPassword,
		Role:           input.Role,
		TierID:         input.TierID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitize(user), nil
}

// AuthenticateInput represents authentication input.
type AuthenticateInput struct {
	Email    string
	Password string
}

// Session is an authenticated login session.
type Session struct {
	ID        string
	User      *domain.User
	ExpiresAt time.Time
}

// Authenticate verifies credentials and opens a session.
func (uc *UserUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*Session, error) {
	user, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	if err := verifyPassword(user.HashedPassword, input.Password); err != nil {
		return nil, domain.ErrUnauthorized
	}

	session := &Session{
		ID:        uc.idGen.Generate(),
		User:      user,
		ExpiresAt: time.Now().UTC().Add(SessionTTL),
	}

	if uc.sessions != nil {
		if err := uc.sessions.Save(ctx, session.ID, user.ID, SessionTTL); err != nil {
			return nil, err
		}
	}

	session.User = sanitize(user)
	return session, nil
}

// Logout closes a session.
func (uc *UserUseCase) Logout(ctx context.Context, sessionID string) error {
	if uc.sessions == nil {
		return nil
	}

	return uc.sessions.Delete(ctx, sessionID)
}

// GetUser retrieves a user by ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return sanitize(user), nil
}

// UpdateUserInput represents input for updating a user.
type UpdateUserInput struct {
	ID       string
	Name     *string
	Role     *domain.Role
	TierID   *string
	Active   *bool
	Password *string
}

// UpdateUser updates user information. Balance is deliberately not updatable
// here; it only moves through the ledgered flows.
func (uc *UserUseCase) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}

	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, errors.New("invalid role")
		}
		user.Role = *input.Role
	}

	if input.TierID != nil {
		user.TierID = *input.TierID
	}

	if input.Active != nil {
		user.Active = *input.Active
	}

	if input.Password != nil {
		if err := domain.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hashedPassword
	}

	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return sanitize(user), nil
}

// ListUsers lists all users with pagination.
func (uc *UserUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	users, err := uc.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	sanitized := make([]*domain.User, len(users))
	for i, user := range users {
		sanitized[i] = sanitize(user)
	}

	return sanitized, nil
}

// sanitize copies the user with the password hash stripped, so callers never
// mutate a repository-owned struct.
func sanitize(user *domain.User) *domain.User {
	copied := *user
	copied.HashedPassword = ""
	return &copied
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
