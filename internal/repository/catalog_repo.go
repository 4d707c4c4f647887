package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"
)

// CatalogRepository reads the course catalog the selection chain is built
// from. All methods return empty slices, not nil, when nothing matches.
type CatalogRepository interface {
	ListSpecializations(ctx context.Context) ([]model.Specialization, error)
	ListCoursesBySpecialization(ctx context.Context, specializationID string) ([]model.Course, error)
	ListInstructorsByCourse(ctx context.Context, courseID string) ([]model.Instructor, error)
	ListLevelsByCourse(ctx context.Context, courseID string) ([]model.Level, error)
	// ListAllLevels is a display-only read path (e.g. list-screen filters);
	// it is deliberately separate from ListLevelsByCourse so neither cache
	// can be reused for the other's purpose.
	ListAllLevels(ctx context.Context) ([]model.Level, error)
	GetLevelByID(ctx context.Context, levelID string) (*model.Level, error)
}

type catalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo creates a new CatalogRepository
func NewCatalogRepo(db *sql.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListSpecializations(ctx context.Context) ([]model.Specialization, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM specializations
		WHERE is_active = TRUE
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	specializations := []model.Specialization{}
	for rows.Next() {
		var s model.Specialization
		if err := rows.Scan(&s.SpecializationID, &s.Name, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		specializations = append(specializations, s)
	}
	return specializations, rows.Err()
}

func (r *catalogRepo) ListCoursesBySpecialization(ctx context.Context, specializationID string) ([]model.Course, error) {
	query := `
		SELECT id, specialization_id, title, is_active, created_at
		FROM courses
		WHERE specialization_id = $1 AND is_active = TRUE
		ORDER BY title ASC
	`
	rows, err := r.db.QueryContext(ctx, query, specializationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.CourseID, &c.SpecializationID, &c.Title, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ListInstructorsByCourse loads the instructors plus the level-id
// cross-reference used to narrow the level dropdown.
func (r *catalogRepo) ListInstructorsByCourse(ctx context.Context, courseID string) ([]model.Instructor, error) {
	query := `
		SELECT id, course_id, name
		FROM instructors
		WHERE course_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instructors := []model.Instructor{}
	index := map[string]int{}
	for rows.Next() {
		var i model.Instructor
		if err := rows.Scan(&i.InstructorID, &i.CourseID, &i.Name); err != nil {
			return nil, err
		}
		i.LevelIDs = []string{}
		index[i.InstructorID] = len(instructors)
		instructors = append(instructors, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkQuery := `
		SELECT il.instructor_id, il.level_id
		FROM instructor_levels il
		JOIN instructors i ON i.id = il.instructor_id
		WHERE i.course_id = $1
	`
	linkRows, err := r.db.QueryContext(ctx, linkQuery, courseID)
	if err != nil {
		return nil, err
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var instructorID, levelID string
		if err := linkRows.Scan(&instructorID, &levelID); err != nil {
			return nil, err
		}
		if pos, ok := index[instructorID]; ok {
			instructors[pos].LevelIDs = append(instructors[pos].LevelIDs, levelID)
		}
	}
	return instructors, linkRows.Err()
}

func (r *catalogRepo) ListLevelsByCourse(ctx context.Context, courseID string) ([]model.Level, error) {
	query := `
		SELECT id, course_id, name, price_syp, price_usd, is_active
		FROM levels
		WHERE course_id = $1 AND is_active = TRUE
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLevels(rows)
}

func (r *catalogRepo) ListAllLevels(ctx context.Context) ([]model.Level, error) {
	query := `
		SELECT id, course_id, name, price_syp, price_usd, is_active
		FROM levels
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLevels(rows)
}

func (r *catalogRepo) GetLevelByID(ctx context.Context, levelID string) (*model.Level, error) {
	query := `
		SELECT id, course_id, name, price_syp, price_usd, is_active
		FROM levels
		WHERE id = $1
	`
	var l model.Level
	err := r.db.QueryRowContext(ctx, query, levelID).
		Scan(&l.LevelID, &l.CourseID, &l.Name, &l.PriceSYP, &l.PriceUSD, &l.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get level %s: %w", levelID, err)
	}
	return &l, nil
}

func scanLevels(rows *sql.Rows) ([]model.Level, error) {
	levels := []model.Level{}
	for rows.Next() {
		var l model.Level
		if err := rows.Scan(&l.LevelID, &l.CourseID, &l.Name, &l.PriceSYP, &l.PriceUSD, &l.IsActive); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}
