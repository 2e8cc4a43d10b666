package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coursebank/courseapi/internal/auth"
	"github.com/coursebank/courseapi/internal/cache"
	"github.com/coursebank/courseapi/internal/config"
	"github.com/coursebank/courseapi/internal/domain/course"
	"github.com/coursebank/courseapi/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CoursesStore interface {
	Create(ctx context.Context, ownerID int64, req course.CreateCourseRequest) (course.Course, error)
	List(ctx context.Context) ([]course.Course, error)
	GetByID(ctx context.Context, id int64) (course.Course, error)
	UpdateOwned(ctx context.Context, id, ownerID int64, req course.UpdateCourseRequest) error
	DeleteOwned(ctx context.Context, id, ownerID int64) error
}

const coursesListCacheKey = "courses:list"

type CoursesHandler struct {
	repo  CoursesStore
	cache cache.Store
}

func NewCoursesHandler(repo CoursesStore) *CoursesHandler {
	return &CoursesHandler{repo: repo}
}

func NewCoursesHandlerWithCache(repo CoursesStore, c cache.Store) *CoursesHandler {
	return &CoursesHandler{repo: repo, cache: c}
}

// ListCourses is public: no gate, audit columns stay out of the payload and
// the owner summary carries no password hash (both enforced by json tags).
func (h *CoursesHandler) ListCourses(ctx *gin.Context) {
	if h.cache != nil {
		if raw, ok := h.cache.Get(ctx.Request.Context(), coursesListCacheKey); ok {
			RespondRawJSONWithETag(ctx, http.StatusOK, raw)
			return
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	courses, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list courses")
		return
	}

	if h.cache != nil {
		if raw, err := json.Marshal(courses); err == nil {
			h.cache.Set(ctx.Request.Context(), coursesListCacheKey, raw)
			RespondRawJSONWithETag(ctx, http.StatusOK, raw)
			return
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, courses)
}

func (h *CoursesHandler) GetCourseByID(ctx *gin.Context) {
	id, ok := courseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	c, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondNotFound(ctx, "Course not found")
			return
		}
		RespondInternal(ctx, "Could not fetch course")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

// CreateCourse runs behind the auth gate. The owner is always the principal;
// nothing in the request body can claim the course for someone else.
func (h *CoursesHandler) CreateCourse(ctx *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	var req course.CreateCourseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if msgs := requiredCourseFields(req.Title, req.Description); len(msgs) > 0 {
		RespondValidationFailed(ctx, msgs)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	c, err := h.repo.Create(cctx, principal.ID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create course")
		return
	}

	h.invalidate(ctx)

	ctx.Header("Location", fmt.Sprintf("/courses/%d", c.ID))
	ctx.Status(http.StatusCreated)
}

func (h *CoursesHandler) UpdateCourse(ctx *gin.Context) {
	id, ok := courseID(ctx)

	if !ok {
		return
	}

	principal, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	var req course.UpdateCourseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// binding catches absent fields; whitespace-only ones are rejected here
	if msgs := requiredCourseFields(req.Title, req.Description); len(msgs) > 0 {
		RespondValidationFailed(ctx, msgs)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondNotFound(ctx, "Course not found")
			return
		}
		RespondInternal(ctx, "Could not fetch course")
		return
	}

	// the guard runs before any write; the conditional update below re-checks
	// ownership atomically in case the row changed hands in between
	if auth.Authorize(principal, existing) == auth.Deny {
		RespondForbidden(ctx, "You can't change someone else's course")
		return
	}

	err = h.repo.UpdateOwned(cctx, id, principal.ID, req)

	if err != nil {
		switch {
		case errors.Is(err, course.ErrNotOwner):
			RespondForbidden(ctx, "You can't change someone else's course")
		case errors.Is(err, course.ErrNotFound):
			RespondNotFound(ctx, "Course not found")
		default:
			RespondInternal(ctx, "Could not update course")
		}
		return
	}

	h.invalidate(ctx)

	ctx.Status(http.StatusNoContent)
}

func (h *CoursesHandler) DeleteCourse(ctx *gin.Context) {
	id, ok := courseID(ctx)

	if !ok {
		return
	}

	principal, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondNotFound(ctx, "Course not found")
			return
		}
		RespondInternal(ctx, "Could not fetch course")
		return
	}

	if auth.Authorize(principal, existing) == auth.Deny {
		RespondForbidden(ctx, "You can't delete someone else's course")
		return
	}

	err = h.repo.DeleteOwned(cctx, id, principal.ID)

	if err != nil {
		switch {
		case errors.Is(err, course.ErrNotOwner):
			RespondForbidden(ctx, "You can't delete someone else's course")
		case errors.Is(err, course.ErrNotFound):
			RespondNotFound(ctx, "Course not found")
		default:
			RespondInternal(ctx, "Could not delete course")
		}
		return
	}

	h.invalidate(ctx)

	ctx.Status(http.StatusNoContent)
}

func (h *CoursesHandler) invalidate(ctx *gin.Context) {
	if h.cache != nil {
		h.cache.Delete(ctx.Request.Context(), coursesListCacheKey)
	}
}

func courseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id < 1 {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "course id must be a positive number")
		return 0, false
	}

	return id, true
}

func requiredCourseFields(title, description string) []string {
	var msgs []string

	if strings.TrimSpace(title) == "" {
		msgs = append(msgs, "Title is required.")
	}

	if strings.TrimSpace(description) == "" {
		msgs = append(msgs, "Description is required.")
	}

	return msgs
}
