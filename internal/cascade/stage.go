// Package cascade implements the dependent selection and pricing engine
// behind the access-code form: a four-stage chain (specialization, course,
// instructor, level) where each stage's option list is fetched from the
// parent selection, plus the coupon/price state derived from the level.
package cascade

import (
	"fmt"

	"app/internal/model"
)

// Stage is one position in the selection chain, ordered top-down.
type Stage int

const (
	StageSpecialization Stage = iota
	StageCourse
	StageInstructor
	StageLevel

	numStages
)

func (s Stage) String() string {
	switch s {
	case StageSpecialization:
		return "specialization"
	case StageCourse:
		return "course"
	case StageInstructor:
		return "instructor"
	case StageLevel:
		return "level"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage maps the wire name of a stage back to its position.
func ParseStage(name string) (Stage, error) {
	for s := StageSpecialization; s < numStages; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// StageState is the engine's view of one dropdown: the current selection,
// the option list produced by the most recently completed non-stale fetch,
// and the loading/error flags for that fetch.
type StageState struct {
	SelectedID string         `json:"selected_id"`
	Options    []model.Option `json:"options"`
	Loading    bool           `json:"loading"`
	Err        string         `json:"error,omitempty"`
}

// CouponState mirrors StageState for the coupon dropdown, whose candidate
// list is keyed by the selected level.
type CouponState struct {
	SelectedID string         `json:"selected_id"`
	Options    []model.Coupon `json:"options"`
	Loading    bool           `json:"loading"`
	Err        string         `json:"error,omitempty"`
}
