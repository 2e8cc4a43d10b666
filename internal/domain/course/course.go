package course

import (
	"errors"
	"time"

	"github.com/coursebank/courseapi/internal/domain/user"
)

type Course struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	EstimatedTime   string        `json:"estimatedTime,omitempty"`
	MaterialsNeeded string        `json:"materialsNeeded,omitempty"`
	OwnerID         int64         `json:"ownerId"`
	Owner           *user.Summary `json:"owner,omitempty"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}

var (
	ErrNotFound = errors.New("course not found")
	// ErrNotOwner means the row exists but belongs to someone else.
	ErrNotOwner = errors.New("course owned by another user")
)

type CreateCourseRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description" binding:"required"`
	EstimatedTime   string `json:"estimatedTime" binding:"omitempty,max=255"`
	MaterialsNeeded string `json:"materialsNeeded" binding:"omitempty,max=255"`
}

// full update payload, same required fields as create
type UpdateCourseRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description" binding:"required"`
	EstimatedTime   string `json:"estimatedTime" binding:"omitempty,max=255"`
	MaterialsNeeded string `json:"materialsNeeded" binding:"omitempty,max=255"`
}
