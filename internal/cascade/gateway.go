package cascade

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
)

// Gateway is the engine's only door to the catalog backend. Every call is
// read-only and idempotent; the engine owns all sequencing and staleness
// decisions. Implementations must be safe for concurrent use by unrelated
// sessions.
type Gateway interface {
	Specializations(ctx context.Context) ([]model.Option, error)
	CoursesBySpecialization(ctx context.Context, specializationID string) ([]model.Option, error)
	InstructorsByCourse(ctx context.Context, courseID string) ([]model.Option, error)
	LevelsByCourse(ctx context.Context, courseID string) ([]model.Option, error)
	CouponsByLevel(ctx context.Context, levelID string) ([]model.Coupon, error)
	// Quote is the authoritative price computation for a coupon applied to a
	// level. The engine only computes prices locally while no coupon is
	// selected; once a coupon is chosen the server result wins.
	Quote(ctx context.Context, couponID, levelID string) (model.PriceQuote, error)
}

var (
	ErrSessionClosed = errors.New("draft session closed")
	ErrUnknownStage  = errors.New("unknown stage")
	// ErrStageOrder is returned when a stage is selected while an upstream
	// stage has no selection.
	ErrStageOrder = errors.New("upstream stage not selected")
	// ErrUnknownOption is returned when the requested id is not in the
	// stage's loaded option list.
	ErrUnknownOption = errors.New("id not among loaded options")
	ErrNoLevel        = errors.New("no level selected")
	ErrUnknownCoupon  = errors.New("coupon not among candidates for level")
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrReplaySuperseded is returned when a replay is overtaken by a newer
	// replay, a user selection, or the session closing.
	ErrReplaySuperseded = errors.New("replay superseded")
)

// FetchError marks a gateway failure at one stage boundary. It is rendered
// inline on that stage and never tears down upstream selections.
type FetchError struct {
	Stage Stage
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s options: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
