package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/auth"
	"github.com/organizagabinete/gabinete/internal/util"
)

type repository interface {
	Create(ctx context.Context, input CreateInput) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter Filter) ([]User, error)
	Update(ctx context.Context, input UpdateInput) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service reúne regras de negócio de usuários.
type Service struct {
	repo repository
}

// NewService cria uma nova instância do serviço.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// CreateParams são os campos crus vindos do handler.
type CreateParams struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Create valida e cadastra um novo usuário com senha Argon2id.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if err := util.RequireString(params.Name, "name"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(params.Password); err != nil {
		return nil, err
	}
	role, err := ParseRole(params.Role)
	if err != nil {
		return nil, err
	}

	hash, err := auth.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, CreateInput{
		Name:         strings.TrimSpace(params.Name),
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
	})
}

// UpdateParams permite atualização parcial de perfil, papel e senha.
type UpdateParams struct {
	ID       uuid.UUID
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Active   *bool
}

// Update aplica somente os campos presentes, revalidando cada um.
func (s *Service) Update(ctx context.Context, params UpdateParams) (*User, error) {
	input := UpdateInput{ID: params.ID, Name: params.Name, Active: params.Active}

	if params.Name != nil {
		if err := util.RequireString(*params.Name, "name"); err != nil {
			return nil, err
		}
	}

	if params.Email != nil {
		if err := util.ValidateEmail(*params.Email); err != nil {
			return nil, err
		}
		input.Email = params.Email
	}

	if params.Password != nil {
		if err := util.ValidatePassword(*params.Password); err != nil {
			return nil, err
		}
		hash, err := auth.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		input.PasswordHash = &hash
	}

	if params.Role != nil {
		role, err := ParseRole(*params.Role)
		if err != nil {
			return nil, err
		}
		input.Role = &role
	}

	return s.repo.Update(ctx, input)
}

// Get recupera um usuário pelo id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List lista usuários com filtros de nome/email.
func (s *Service) List(ctx context.Context, filter Filter) ([]User, error) {
	return s.repo.List(ctx, filter)
}

// Delete remove um usuário.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
