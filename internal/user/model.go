package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("usuário não encontrado")
	ErrEmailTaken  = errors.New("email já cadastrado")
	ErrInvalidRole = errors.New("papel inválido")
)

// Role é o papel fechado de um usuário do gabinete.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSecretario Role = "secretario"
	RoleVisitante  Role = "visitante"
)

var validRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleSecretario: {},
	RoleVisitante:  {},
}

// ParseRole normaliza e valida o papel informado.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validRoles[role]; !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Valid indica se o papel pertence ao enum.
func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// User representa um usuário do sistema (admin, secretário ou visitante).
// O hash de senha nunca é serializado em respostas.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateInput encapsula os campos para criação de usuário.
type CreateInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// UpdateInput permite atualização parcial; campos nil são preservados.
type UpdateInput struct {
	ID           uuid.UUID
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
	Active       *bool
}

// Filter restringe a listagem de usuários.
type Filter struct {
	Name   string
	Email  string
	Role   *Role
	Limit  int
	Offset int
}
