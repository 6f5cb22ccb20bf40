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

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
	userService    service.UserService
}

func NewSessionHandler(sessionService service.SessionService, userService service.UserService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		userService:    userService,
	}
}

// --- DTOs ---

// SessionRequest is the write payload. Distance, duration and start use
// pointers so missing fields are reported by the validation rules rather
// than silently zeroed.
type SessionRequest struct {
	User            string     `json:"user"`
	Distance        *int       `json:"distance"`
	Duration        *int       `json:"duration"`
	Start           *time.Time `json:"start"`
	LocalTimezone   string     `json:"localTimezone"`
	WeatherLocation string     `json:"weatherLocation"`
}

type SessionResponse struct {
	ID              string    `json:"id"`
	User            string    `json:"user"`
	Distance        int       `json:"distance"`
	Duration        int       `json:"duration"`
	Start           time.Time `json:"start"`
	LocalTimezone   string    `json:"localTimezone"`
	WeatherLocation string    `json:"weatherLocation"`
	Weather         string    `json:"weather"`
	Speed           float64   `json:"speed"`
	Week            int       `json:"week"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func MapSessionToResponse(session *domain.Session) SessionResponse {
	if session == nil {
		return SessionResponse{}
	}
	return SessionResponse{
		ID:              session.ID.Hex(),
		User:            session.UserID.Hex(),
		Distance:        session.Distance,
		Duration:        session.Duration,
		Start:           session.Start,
		LocalTimezone:   session.LocalTimezone,
		WeatherLocation: session.WeatherLocation,
		Weather:         session.Weather,
		Speed:           session.Speed,
		Week:            session.Week,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}

func MapSessionsToResponse(sessions []domain.Session) []SessionResponse {
	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapSessionToResponse(&sessions[i])
	}
	return responses
}

// sessionCaller rejects callers the session endpoints are closed to:
// anonymous requests never get here, strictly-staff accounts are turned
// away. Staff manage users, they do not jog.
func sessionCaller(c *gin.Context) (*domain.User, bool) {
	caller := currentUser(c)
	if !domain.CanAccessSessions(caller) {
		abortWithError(c, http.StatusForbidden, "Session access denied for this role")
		return nil, false
	}
	return caller, true
}

// --- Handler Methods ---

// CreateSession handles POST /sessions. The payload must name the owning
// user; only superusers may create sessions for other users.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	caller, ok := sessionCaller(c)
	if !ok {
		return
	}

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.User == "" {
		abortWithError(c, http.StatusBadRequest, "Session user is required")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.User)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	if !caller.IsSuperuser && caller.ID != userID {
		abortWithError(c, http.StatusUnauthorized, "Cannot create sessions for another user")
		return
	}

	if _, err := h.userService.Get(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusBadRequest, "Unknown session user")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load session user")
		}
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), service.SessionInput{
		UserID:          userID,
		Distance:        req.Distance,
		Duration:        req.Duration,
		Start:           req.Start,
		LocalTimezone:   req.LocalTimezone,
		WeatherLocation: req.WeatherLocation,
	})
	if err != nil {
		if service.IsValidation(err) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during session creation")
		}
		return
	}

	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// ListSessions handles GET /sessions: all sessions for superusers, the
// caller's own otherwise, optionally narrowed by a ?filter= expression.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	caller, ok := sessionCaller(c)
	if !ok {
		return
	}

	sessions, err := h.sessionService.List(c.Request.Context(), caller, c.Query("filter"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}

func sessionID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *SessionHandler) respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "Only owners and superusers can access this session")
	case service.IsValidation(err):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// GetSession handles GET /sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	caller, ok := sessionCaller(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// UpdateSession handles PUT /sessions/:id. The full field validation and
// recomputation rerun; the owning user cannot be changed.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	caller, ok := sessionCaller(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.sessionService.Update(c.Request.Context(), caller, id, service.SessionInput{
		Distance:        req.Distance,
		Duration:        req.Duration,
		Start:           req.Start,
		LocalTimezone:   req.LocalTimezone,
		WeatherLocation: req.WeatherLocation,
	})
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// DeleteSession handles DELETE /sessions/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	caller, ok := sessionCaller(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), caller, id); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
