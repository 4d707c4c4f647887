package cascade

import (
	"context"
	"fmt"

	"app/internal/model"
)

// Replay rebuilds the full chain from an existing access-code record when
// the dialog opens in edit mode. Each step is awaited before the next: the
// selection is written first, then its dependent option list is fetched and
// populated without the clear-downstream behavior a user selection would
// trigger; the terminal values must survive until the chain catches up.
// The coupon is selected only after its candidate list exists, so the
// original coupon ends up selected instead of being wiped.
//
// A failed step aborts the remaining ones and leaves the chain populated up
// to the last success, so the operator can finish the rest by hand.
func (s *Session) Replay(ctx context.Context, rec *model.AccessCodeRecord) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.replayGen++
	gen := s.replayGen
	s.store.Reset()
	s.mu.Unlock()

	// Root options, then the specialization selection itself.
	opts, err := s.gw.Specializations(ctx)
	if aerr := s.applyReplayStep(gen, StageSpecialization, rec.SpecializationID, opts, err); aerr != nil {
		return aerr
	}

	opts, err = s.gw.CoursesBySpecialization(ctx, rec.SpecializationID)
	if aerr := s.applyReplayStep(gen, StageCourse, rec.CourseID, opts, err); aerr != nil {
		return aerr
	}

	opts, err = s.gw.InstructorsByCourse(ctx, rec.CourseID)
	if aerr := s.applyReplayStep(gen, StageInstructor, rec.InstructorID, opts, err); aerr != nil {
		return aerr
	}

	// The level list is keyed by course; narrow it to the restored
	// instructor's levels, as a live instructor selection would.
	allowed := instructorLevels(opts, rec.InstructorID)
	opts, err = s.gw.LevelsByCourse(ctx, rec.CourseID)
	if err == nil && allowed != nil {
		opts = intersectLevels(opts, allowed)
	}
	if aerr := s.applyReplayStep(gen, StageLevel, rec.LevelID, opts, err); aerr != nil {
		return aerr
	}

	coupons, err := s.gw.CouponsByLevel(ctx, rec.LevelID)
	if aerr := s.applyReplayCoupons(gen, coupons, err); aerr != nil {
		return aerr
	}

	if rec.CouponID == nil || *rec.CouponID == "" {
		return nil
	}
	quote, err := s.gw.Quote(ctx, *rec.CouponID, rec.LevelID)
	return s.applyReplayQuote(gen, *rec.CouponID, quote, err)
}

// instructorLevels extracts the allowed-level set of the restored
// instructor from the freshly fetched instructor options. The instructor's
// membership was already enforced one step earlier.
func instructorLevels(instructors []model.Option, instructorID string) []string {
	for _, o := range instructors {
		if o.ID == instructorID {
			return o.LevelIDs
		}
	}
	return nil
}

// applyReplayStep writes one stage's options and selection, guarded against
// the replay having been superseded while its fetch was in flight.
func (s *Session) applyReplayStep(gen uint64, stage Stage, selectedID string, opts []model.Option, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.replayGen != gen {
		s.staleDrops++
		return ErrReplaySuperseded
	}
	if err != nil {
		ferr := &FetchError{Stage: stage, Err: err}
		s.store.setError(stage, ferr.Error())
		return ferr
	}
	s.store.setOptions(stage, opts)
	if _, ok := s.store.option(stage, selectedID); !ok {
		// The restored id is no longer offered (deactivated or re-linked
		// since issuance). Leave the stage unselected so the operator can
		// pick a replacement; the chain stays populated up to here.
		s.log.Warn().
			Str("stage", stage.String()).
			Str("id", selectedID).
			Msg("restored selection no longer available")
		s.store.setError(stage, fmt.Sprintf("%s %q is no longer available", stage, selectedID))
		return fmt.Errorf("restore %s %q: %w", stage, selectedID, ErrUnknownOption)
	}
	s.store.setSelected(stage, selectedID)
	if stage == StageLevel {
		level, _ := s.store.option(StageLevel, selectedID)
		s.store.quote = Resolve(level.PriceSYP, nil)
	}
	return nil
}

func (s *Session) applyReplayCoupons(gen uint64, coupons []model.Coupon, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.replayGen != gen {
		s.staleDrops++
		return ErrReplaySuperseded
	}
	if err != nil {
		ferr := &FetchError{Stage: StageLevel, Err: err}
		s.store.coupon.Err = "failed to load coupons: " + err.Error()
		return ferr
	}
	s.store.coupon.Options = coupons
	s.store.coupon.Loading = false
	s.store.coupon.Err = ""
	return nil
}

// applyReplayQuote selects the restored coupon (its candidate list is in
// place by now) and installs the confirmed quote. A coupon that is no
// longer a candidate (expired or deactivated since issuance) is left
// unselected with the base-price quote.
func (s *Session) applyReplayQuote(gen uint64, couponID string, quote model.PriceQuote, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.replayGen != gen {
		s.staleDrops++
		return ErrReplaySuperseded
	}
	if _, ok := s.store.couponOption(couponID); !ok {
		s.log.Warn().Str("coupon_id", couponID).Msg("restored coupon no longer valid for level")
		return nil
	}
	s.store.coupon.SelectedID = couponID
	if err != nil {
		level, _ := s.store.option(StageLevel, s.store.Stage(StageLevel).SelectedID)
		coupon, _ := s.store.couponOption(couponID)
		s.store.quote = Resolve(level.PriceSYP, &coupon)
		s.store.coupon.Err = "failed to confirm discount: " + err.Error()
		return &FetchError{Stage: StageLevel, Err: err}
	}
	s.store.quote = quote
	return nil
}
