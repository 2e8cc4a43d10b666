package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coursebank/courseapi/internal/domain/course"
)

// CoursesRepo mirrors the postgres repo's contract, including the atomic
// owned-write semantics, so handler and router tests exercise the same
// branches.
type CoursesRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]course.Course
	users  *UsersRepo
}

func NewCoursesRepo(users *UsersRepo) *CoursesRepo {
	return &CoursesRepo{
		nextID: 1,
		items:  make(map[int64]course.Course),
		users:  users,
	}
}

func (r *CoursesRepo) Create(_ context.Context, ownerID int64, req course.CreateCourseRequest) (course.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	c := course.Course{
		ID:              r.nextID,
		Title:           req.Title,
		Description:     req.Description,
		EstimatedTime:   req.EstimatedTime,
		MaterialsNeeded: req.MaterialsNeeded,
		OwnerID:         ownerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.nextID++
	r.items[c.ID] = c

	return c, nil
}

func (r *CoursesRepo) List(ctx context.Context) ([]course.Course, error) {
	r.mu.RLock()
	out := make([]course.Course, 0, len(r.items))

	for _, c := range r.items {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	for i := range out {
		r.attachOwner(ctx, &out[i])
	}

	return out, nil
}

func (r *CoursesRepo) GetByID(ctx context.Context, id int64) (course.Course, error) {
	r.mu.RLock()
	c, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	r.attachOwner(ctx, &c)

	return c, nil
}

func (r *CoursesRepo) UpdateOwned(_ context.Context, id, ownerID int64, req course.UpdateCourseRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]

	if !ok {
		return course.ErrNotFound
	}

	if c.OwnerID != ownerID {
		return course.ErrNotOwner
	}

	c.Title = req.Title
	c.Description = req.Description
	c.EstimatedTime = req.EstimatedTime
	c.MaterialsNeeded = req.MaterialsNeeded
	c.UpdatedAt = time.Now()
	r.items[id] = c

	return nil
}

func (r *CoursesRepo) DeleteOwned(_ context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]

	if !ok {
		return course.ErrNotFound
	}

	if c.OwnerID != ownerID {
		return course.ErrNotOwner
	}

	delete(r.items, id)

	return nil
}

func (r *CoursesRepo) attachOwner(ctx context.Context, c *course.Course) {
	if r.users == nil {
		return
	}

	u, err := r.users.GetByID(ctx, c.OwnerID)

	if err != nil {
		return
	}

	s := u.Summary()
	c.Owner = &s
}
