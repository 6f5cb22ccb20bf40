package api

import (
	"errors"
	"net/http"
	"time"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/repository"
	"alcyxob/jogging-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler holds the user service dependency.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// --- DTOs ---

type UserRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	IsStaff     bool   `json:"isStaff"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// UserResponse excludes the password hash and exposes the derived role.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	IsStaff     bool        `json:"isStaff"`
	IsSuperuser bool        `json:"isSuperuser"`
	Role        domain.Role `json:"role"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:          user.ID.Hex(),
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		Role:        user.Role(),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func MapUsersToResponse(users []domain.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = MapUserToResponse(&users[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateUser handles POST /users. The route runs behind optional
// authentication: anonymous callers and strictly-staff users may create
// jogger accounts, superusers may create anything.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	caller := currentUser(c)
	if !domain.CanCreateUser(caller, req.IsStaff, req.IsSuperuser) {
		abortWithError(c, http.StatusForbidden, "Not allowed to create this user")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.UserInput{
		Username:    req.Username,
		Password:    req.Password,
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case service.IsValidation(err):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during user creation")
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// ListUsers handles GET /users, ordered by username and optionally
// narrowed by a ?filter= expression over username and role.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context(), c.Query("filter"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// target loads the addressed user and runs the object-level policy.
func (h *UserHandler) target(c *gin.Context) (*domain.User, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return nil, false
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "User not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load user")
		}
		return nil, false
	}

	if !domain.CanModifyUser(currentUser(c), user) {
		abortWithError(c, http.StatusForbidden, "Not allowed to access this user")
		return nil, false
	}
	return user, true
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := h.target(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateUser handles PUT /users/:id with full field replacement.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Granting flags the caller does not hold is a creation-style decision.
	if !domain.CanCreateUser(currentUser(c), req.IsStaff, req.IsSuperuser) && (req.IsStaff || req.IsSuperuser) {
		abortWithError(c, http.StatusForbidden, "Not allowed to grant these permissions")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), target.ID, service.UserInput{
		Username:    req.Username,
		Password:    req.Password,
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case service.IsValidation(err):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during user update")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser handles DELETE /users/:id. Deleting a user cascades to all
// of the user's sessions.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), target.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "User not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
