package cascade

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"app/internal/model"
)

// Session is the engine instance behind one open access-code dialog. It
// owns a Store exclusively and drives it from selection events: selecting
// stage K clears stages K+1..Level plus coupon/price and dispatches the
// fetch for stage K+1's options, tagged with the id that triggered it. A
// completed fetch mutates the store only if its tag still matches the
// current selection; anything else is a stale result and is dropped.
//
// A Session is safe for concurrent use. Fetches for different stages may be
// in flight at once and may complete in any order.
type Session struct {
	mu     sync.Mutex
	store  *Store
	gw     Gateway
	log    zerolog.Logger
	closed bool

	// replayGen invalidates an in-flight replay when a newer replay or a
	// user selection supersedes it.
	replayGen uint64

	// staleDrops counts discarded fetch results. Diagnostic only.
	staleDrops uint64

	wg sync.WaitGroup
}

// NewSession creates an empty session over the given gateway and starts
// loading the root (specialization) options.
func NewSession(ctx context.Context, gw Gateway, log zerolog.Logger) *Session {
	s := &Session{store: NewStore(), gw: gw, log: log}
	s.mu.Lock()
	s.dispatchRootLoad(ctx)
	s.mu.Unlock()
	return s
}

// fetchRequest carries everything a stage fetch needs, captured at dispatch
// time so the goroutine never reads session state.
type fetchRequest struct {
	parentID string
	// Level fetches are keyed by course, not by the instructor that
	// triggered them; the instructor contributes its allowed level ids.
	courseID      string
	allowedLevels []string
}

// stageFetch loads the option list for child stage s.
func stageFetch(ctx context.Context, gw Gateway, s Stage, req fetchRequest) ([]model.Option, error) {
	switch s {
	case StageSpecialization:
		return gw.Specializations(ctx)
	case StageCourse:
		return gw.CoursesBySpecialization(ctx, req.parentID)
	case StageInstructor:
		return gw.InstructorsByCourse(ctx, req.parentID)
	case StageLevel:
		opts, err := gw.LevelsByCourse(ctx, req.courseID)
		if err != nil {
			return nil, err
		}
		return intersectLevels(opts, req.allowedLevels), nil
	}
	return nil, ErrUnknownStage
}

// intersectLevels keeps only the levels the instructor actually teaches.
func intersectLevels(levels []model.Option, allowed []string) []model.Option {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	out := make([]model.Option, 0, len(levels))
	for _, l := range levels {
		if _, ok := set[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Select applies a user selection at the given stage. An empty id clears
// the stage. The downstream stages are cleared synchronously, before any
// new fetch can resolve.
func (s *Session) Select(ctx context.Context, stage Stage, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if stage < StageSpecialization || stage >= numStages {
		return ErrUnknownStage
	}

	var opt model.Option
	if id != "" {
		for prev := StageSpecialization; prev < stage; prev++ {
			if s.store.Stage(prev).SelectedID == "" {
				return ErrStageOrder
			}
		}
		var ok bool
		if opt, ok = s.store.option(stage, id); !ok {
			return ErrUnknownOption
		}
	}

	// A user selection supersedes any replay still in flight.
	s.replayGen++

	s.store.setSelected(stage, id)
	s.store.ClearFrom(stage + 1)

	if id == "" {
		return nil
	}

	if stage == StageLevel {
		s.store.quote = Resolve(opt.PriceSYP, nil)
		s.dispatchCouponLoad(ctx, id)
		return nil
	}

	next := stage + 1
	req := fetchRequest{parentID: id}
	if next == StageLevel {
		req.courseID = s.store.Stage(StageCourse).SelectedID
		req.allowedLevels = opt.LevelIDs
	}
	s.dispatchStageLoad(ctx, stage, next, id, req)
	return nil
}

// dispatchStageLoad starts the fetch for child's options, tagged with the
// parent selection that triggered it. Caller holds the lock.
func (s *Session) dispatchStageLoad(ctx context.Context, parent, child Stage, tag string, req fetchRequest) {
	s.store.setLoading(child)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		opts, err := stageFetch(ctx, s.gw, child, req)
		s.applyStageResult(parent, child, tag, opts, err)
	}()
}

// applyStageResult applies a completed fetch, or drops it when stale.
func (s *Session) applyStageResult(parent, child Stage, tag string, opts []model.Option, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.store.Stage(parent).SelectedID != tag {
		s.staleDrops++
		s.log.Debug().
			Str("stage", child.String()).
			Str("tag", tag).
			Msg("discarding stale option fetch")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("stage", child.String()).Msg("option fetch failed")
		s.store.setError(child, (&FetchError{Stage: child, Err: err}).Error())
		return
	}
	s.store.setOptions(child, opts)
}

// dispatchRootLoad loads the specialization options. The root has no parent
// selection, so only session liveness gates the result. Caller holds the
// lock.
func (s *Session) dispatchRootLoad(ctx context.Context) {
	s.store.setLoading(StageSpecialization)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		opts, err := stageFetch(ctx, s.gw, StageSpecialization, fetchRequest{})

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if err != nil {
			s.store.setError(StageSpecialization, (&FetchError{Stage: StageSpecialization, Err: err}).Error())
			return
		}
		s.store.setOptions(StageSpecialization, opts)
	}()
}

// dispatchCouponLoad loads the coupon candidates for a level. Caller holds
// the lock.
func (s *Session) dispatchCouponLoad(ctx context.Context, levelID string) {
	s.store.coupon.Loading = true
	s.store.coupon.Err = ""
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		coupons, err := s.gw.CouponsByLevel(ctx, levelID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.store.Stage(StageLevel).SelectedID != levelID {
			s.staleDrops++
			s.log.Debug().Str("level_id", levelID).Msg("discarding stale coupon fetch")
			return
		}
		s.store.coupon.Loading = false
		if err != nil {
			s.log.Warn().Err(err).Str("level_id", levelID).Msg("coupon fetch failed")
			s.store.coupon.Err = "failed to load coupons: " + err.Error()
			return
		}
		s.store.coupon.Options = coupons
		s.store.coupon.Err = ""
	}()
}

// SelectCoupon applies a coupon selection. An empty id clears the coupon
// and reverts the quote to the base price. A non-empty id must be among the
// loaded candidates; the local formula fills the quote immediately and the
// server quote replaces it when it lands.
func (s *Session) SelectCoupon(ctx context.Context, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	levelID := s.store.Stage(StageLevel).SelectedID
	if levelID == "" {
		return ErrNoLevel
	}
	level, _ := s.store.option(StageLevel, levelID)

	if couponID == "" {
		s.store.coupon.SelectedID = ""
		s.store.quote = Resolve(level.PriceSYP, nil)
		return nil
	}

	coupon, ok := s.store.couponOption(couponID)
	if !ok {
		return ErrUnknownCoupon
	}
	s.store.coupon.SelectedID = couponID
	// Local fallback until the authoritative quote arrives.
	s.store.quote = Resolve(level.PriceSYP, &coupon)
	s.dispatchQuoteLoad(ctx, couponID, levelID)
	return nil
}

// dispatchQuoteLoad fetches the server-side quote for (coupon, level). The
// server owns discount math; the local formula only bridges the gap. Caller
// holds the lock.
func (s *Session) dispatchQuoteLoad(ctx context.Context, couponID, levelID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		quote, err := s.gw.Quote(ctx, couponID, levelID)

		s.mu.Lock()
		defer s.mu.Unlock()
		// An operator override pins the quote until the next level or coupon
		// change, so a quote dispatched before the override is stale too.
		if s.closed ||
			s.store.Stage(StageLevel).SelectedID != levelID ||
			s.store.coupon.SelectedID != couponID ||
			s.store.quote.Overridden {
			s.staleDrops++
			s.log.Debug().Str("coupon_id", couponID).Msg("discarding stale quote")
			return
		}
		if err != nil {
			// Keep the local fallback quote; surface the failure on the
			// coupon control.
			s.log.Warn().Err(err).Str("coupon_id", couponID).Msg("quote fetch failed")
			s.store.coupon.Err = "failed to confirm discount: " + err.Error()
			return
		}
		s.store.quote = quote
	}()
}

// OverrideFinalPrice is the operator correction path: it pins the final
// price until the next level or coupon change recomputes it.
func (s *Session) OverrideFinalPrice(amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.store.Stage(StageLevel).SelectedID == "" {
		return ErrNoLevel
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	s.store.quote.FinalPrice = amount
	s.store.quote.Overridden = true
	return nil
}

// Draft assembles the submission aggregate from the current chain state.
// AmountPaid defaults to the quoted (or overridden) final price; user
// identity and validity fields are supplied by the caller at submit time.
func (s *Session) Draft() model.AccessCodeDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.AccessCodeDraft{
		SpecializationID: s.store.Stage(StageSpecialization).SelectedID,
		CourseID:         s.store.Stage(StageCourse).SelectedID,
		InstructorID:     s.store.Stage(StageInstructor).SelectedID,
		LevelID:          s.store.Stage(StageLevel).SelectedID,
		CouponID:         s.store.coupon.SelectedID,
		AmountPaid:       s.store.quote.FinalPrice,
	}
}

// Snapshot returns a deep copy of the store for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.snapshot()
}

// Reset tears the dialog state back to empty, e.g. after a successful
// submission, and reloads the root options.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.replayGen++
	s.store.Reset()
	s.dispatchRootLoad(ctx)
	return nil
}

// Close invalidates the session. In-flight fetch completions observe the
// flag and drop their results instead of mutating a dead dialog's state.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.replayGen++
	s.mu.Unlock()
}

// Wait blocks until every fetch dispatched so far has completed (applied or
// discarded).
func (s *Session) Wait() {
	s.wg.Wait()
}

// StaleDrops reports how many fetch results were discarded as stale.
func (s *Session) StaleDrops() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleDrops
}
