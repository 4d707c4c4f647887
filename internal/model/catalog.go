package model

import "time"

// Specialization is the top of the selection chain (e.g. "Mathematics")
type Specialization struct {
	SpecializationID string    `db:"specialization_id" json:"specialization_id"`
	Name             string    `db:"name" json:"name"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Course belongs to exactly one specialization
type Course struct {
	CourseID         string    `db:"course_id" json:"course_id"`
	SpecializationID string    `db:"specialization_id" json:"specialization_id"`
	Title            string    `db:"title" json:"title"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Instructor teaches one or more levels of a course. LevelIDs is the
// cross-reference used to narrow the level dropdown once an instructor
// is chosen.
type Instructor struct {
	InstructorID string   `db:"instructor_id" json:"instructor_id"`
	CourseID     string   `db:"course_id" json:"course_id"`
	Name         string   `db:"name" json:"name"`
	LevelIDs     []string `db:"-" json:"level_ids"`
}

// Level is the terminal stage of the chain and carries the base price in
// both currencies the dashboard displays.
type Level struct {
	LevelID  string `db:"level_id" json:"level_id"`
	CourseID string `db:"course_id" json:"course_id"`
	Name     string `db:"name" json:"name"`
	// Base prices in minor units
	PriceSYP int64 `db:"price_syp" json:"price_syp"`
	PriceUSD int64 `db:"price_usd" json:"price_usd"`
	IsActive bool  `db:"is_active" json:"is_active"`
}

// Option is one dropdown entry as the selection engine stores it. Only the
// fields relevant to the option's stage are populated: LevelIDs for
// instructors, the price fields for levels.
type Option struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	LevelIDs []string `json:"level_ids,omitempty"`
	PriceSYP int64    `json:"price_syp,omitempty"`
	PriceUSD int64    `json:"price_usd,omitempty"`
}

// SpecializationOption converts a catalog row to a dropdown option.
func SpecializationOption(s Specialization) Option {
	return Option{ID: s.SpecializationID, Label: s.Name}
}

func CourseOption(c Course) Option {
	return Option{ID: c.CourseID, Label: c.Title}
}

func InstructorOption(i Instructor) Option {
	return Option{ID: i.InstructorID, Label: i.Name, LevelIDs: i.LevelIDs}
}

func LevelOption(l Level) Option {
	return Option{ID: l.LevelID, Label: l.Name, PriceSYP: l.PriceSYP, PriceUSD: l.PriceUSD}
}
