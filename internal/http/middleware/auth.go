package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/organizagabinete/gabinete/internal/auth"
	"github.com/organizagabinete/gabinete/internal/user"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyEmail   contextKey = "email"
	ContextKeyRole    contextKey = "role"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "token inválido")
				return
			}

			role, err := user.ParseRole(claims.Role)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "papel inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyEmail, claims.Email)
			ctx = context.WithValue(ctx, ContextKeyRole, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetEmail recupera email do contexto.
func GetEmail(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyEmail).(string)
	return val
}

// GetRole recupera o papel do contexto.
func GetRole(ctx context.Context) user.Role {
	val, _ := ctx.Value(ContextKeyRole).(user.Role)
	return val
}

// RequireRoles garante que o papel autenticado está no conjunto exigido.
// Conjunto vazio libera qualquer usuário autenticado.
func RequireRoles(required ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]struct{}, len(required))
	for _, role := range required {
		if role.Valid() {
			allowed[role] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if !role.Valid() {
				writeError(w, http.StatusUnauthorized, "não autenticado")
				return
			}
			if len(allowed) > 0 {
				if _, ok := allowed[role]; !ok {
					writeError(w, http.StatusForbidden, "acesso negado para este papel")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin garante papel de administrador.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(user.RoleAdmin)(next)
}

// RequireStaff garante admin ou secretário.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRoles(user.RoleAdmin, user.RoleSecretario)(next)
}
