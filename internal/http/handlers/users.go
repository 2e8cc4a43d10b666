package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coursebank/courseapi/internal/config"
	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/coursebank/courseapi/internal/http/middlewares"
	"github.com/coursebank/courseapi/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error)
}

type UsersHandler struct {
	users UsersStore
}

func NewUsersHandler(users UsersStore) *UsersHandler {
	return &UsersHandler{users: users}
}

// GetCurrentUser returns the principal's own record. The hash and audit
// columns never marshal (json:"-"), so the plain struct is safe to return.
func (h *UsersHandler) GetCurrentUser(ctx *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	ctx.JSON(http.StatusOK, principal)
}

// CreateUser is the open registration endpoint.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// binding guarantees a non-empty password, so there is always something
	// real to hash
	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	_, err = h.users.Create(cctx, req.FirstName, req.LastName, req.EmailAddress, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondValidationFailed(ctx, []string{"Email address is taken."})
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.Header("Location", "/")
	ctx.Status(http.StatusCreated)
}
