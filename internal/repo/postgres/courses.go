package postgres

import (
	"context"
	"errors"

	"github.com/coursebank/courseapi/internal/domain/course"
	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/coursebank/courseapi/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoursesRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

// NewCoursesRepo builds the repo; metrics may be nil in tests.
func NewCoursesRepo(pool *pgxpool.Pool, metrics *observability.Prom) *CoursesRepo {
	return &CoursesRepo{pool: pool, metrics: metrics}
}

func (r *CoursesRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

func (r *CoursesRepo) Create(ctx context.Context, ownerID int64, req course.CreateCourseRequest) (course.Course, error) {
	var c course.Course

	err := r.observe("courses_create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO courses (title, description, estimated_time, materials_needed, owner_id)
             VALUES ($1, $2, $3, $4, $5)
             RETURNING id, title, description, estimated_time, materials_needed, owner_id, created_at, updated_at`,
			req.Title,
			req.Description,
			req.EstimatedTime,
			req.MaterialsNeeded,
			ownerID,
		).Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.EstimatedTime,
			&c.MaterialsNeeded,
			&c.OwnerID,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
	})

	if err != nil {
		return course.Course{}, err
	}

	return c, nil
}

func (r *CoursesRepo) List(ctx context.Context) ([]course.Course, error) {
	output := make([]course.Course, 0)

	err := r.observe("courses_list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT c.id,
			       c.title,
			       c.description,
			       c.estimated_time,
			       c.materials_needed,
			       c.owner_id,
			       c.created_at,
			       c.updated_at,
			       u.first_name,
			       u.last_name,
			       u.email_address
			FROM courses c
			JOIN users u ON u.id = c.owner_id
			ORDER BY c.id ASC
		`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var c course.Course
			var owner user.Summary

			err = rows.Scan(
				&c.ID,
				&c.Title,
				&c.Description,
				&c.EstimatedTime,
				&c.MaterialsNeeded,
				&c.OwnerID,
				&c.CreatedAt,
				&c.UpdatedAt,
				&owner.FirstName,
				&owner.LastName,
				&owner.EmailAddress,
			)

			if err != nil {
				return err
			}

			owner.ID = c.OwnerID
			c.Owner = &owner
			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *CoursesRepo) GetByID(ctx context.Context, id int64) (course.Course, error) {
	var c course.Course
	var owner user.Summary

	err := r.observe("courses_get_by_id", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT c.id,
			       c.title,
			       c.description,
			       c.estimated_time,
			       c.materials_needed,
			       c.owner_id,
			       c.created_at,
			       c.updated_at,
			       u.first_name,
			       u.last_name,
			       u.email_address
			FROM courses c
			JOIN users u ON u.id = c.owner_id
			WHERE c.id = $1
		`, id).Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.EstimatedTime,
			&c.MaterialsNeeded,
			&c.OwnerID,
			&c.CreatedAt,
			&c.UpdatedAt,
			&owner.FirstName,
			&owner.LastName,
			&owner.EmailAddress,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}

		return course.Course{}, err
	}

	owner.ID = c.OwnerID
	c.Owner = &owner

	return c, nil
}

// UpdateOwned writes the new fields only when the row still belongs to
// ownerID. Keying the UPDATE on id AND owner_id makes the ownership check and
// the write a single atomic statement, so a concurrent owner change or delete
// cannot slip between them.
func (r *CoursesRepo) UpdateOwned(ctx context.Context, id, ownerID int64, req course.UpdateCourseRequest) error {
	var affected int64

	err := r.observe("courses_update", func() error {
		tag, err := r.pool.Exec(
			ctx,
			`UPDATE courses
				SET title = $3,
						description = $4,
						estimated_time = $5,
						materials_needed = $6,
						updated_at = NOW()
			WHERE id = $1 AND owner_id = $2`,
			id,
			ownerID,
			req.Title,
			req.Description,
			req.EstimatedTime,
			req.MaterialsNeeded,
		)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return r.classifyZeroRows(ctx, id)
	}

	return nil
}

// DeleteOwned removes the row only when ownerID still owns it.
func (r *CoursesRepo) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	var affected int64

	err := r.observe("courses_delete", func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM courses WHERE id = $1 AND owner_id = $2
		`, id, ownerID)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return r.classifyZeroRows(ctx, id)
	}

	return nil
}

// classifyZeroRows decides why a conditional write matched nothing: the id is
// gone (not found) or it exists under a different owner (deny).
func (r *CoursesRepo) classifyZeroRows(ctx context.Context, id int64) error {
	var exists bool

	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists)

	if err != nil {
		return err
	}

	if exists {
		return course.ErrNotOwner
	}

	return course.ErrNotFound
}
