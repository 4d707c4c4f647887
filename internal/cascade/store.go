package cascade

import "app/internal/model"

// Store holds the full state of one open draft dialog: the four chain
// stages, the coupon stage and the derived price quote. It is a plain state
// container: every method is synchronous, total and side-effect free. The
// owning Session serializes access; Store itself does no locking.
type Store struct {
	stages [numStages]StageState
	coupon CouponState
	quote  model.PriceQuote
}

func NewStore() *Store {
	return &Store{}
}

// Stage returns a copy of the state at position s.
func (st *Store) Stage(s Stage) StageState {
	return st.stages[s]
}

func (st *Store) Coupon() CouponState {
	return st.coupon
}

func (st *Store) Quote() model.PriceQuote {
	return st.quote
}

func (st *Store) setSelected(s Stage, id string) {
	st.stages[s].SelectedID = id
}

func (st *Store) setOptions(s Stage, opts []model.Option) {
	st.stages[s].Options = opts
	st.stages[s].Loading = false
	st.stages[s].Err = ""
}

func (st *Store) setLoading(s Stage) {
	st.stages[s].Loading = true
	st.stages[s].Err = ""
}

func (st *Store) setError(s Stage, msg string) {
	st.stages[s].Loading = false
	st.stages[s].Err = msg
}

// ClearFrom empties stage s and everything after it. The coupon and price
// state always depend on the level, so any clear inside the chain also
// clears them.
func (st *Store) ClearFrom(s Stage) {
	for i := s; i < numStages; i++ {
		st.stages[i] = StageState{}
	}
	st.clearCoupon()
}

func (st *Store) clearCoupon() {
	st.coupon = CouponState{}
	st.quote = model.PriceQuote{}
}

// Reset returns the store to its mount state.
func (st *Store) Reset() {
	st.ClearFrom(StageSpecialization)
}

// option looks up an id in the loaded options of stage s.
func (st *Store) option(s Stage, id string) (model.Option, bool) {
	for _, o := range st.stages[s].Options {
		if o.ID == id {
			return o, true
		}
	}
	return model.Option{}, false
}

func (st *Store) couponOption(id string) (model.Coupon, bool) {
	for _, c := range st.coupon.Options {
		if c.CouponID == id {
			return c, true
		}
	}
	return model.Coupon{}, false
}

// Snapshot is a deep copy of the store, safe to hand to rendering code
// while the session keeps mutating.
type Snapshot struct {
	Stages [4]StageState    `json:"stages"`
	Coupon CouponState      `json:"coupon"`
	Quote  model.PriceQuote `json:"quote"`
}

func (st *Store) snapshot() Snapshot {
	var snap Snapshot
	for i := StageSpecialization; i < numStages; i++ {
		s := st.stages[i]
		s.Options = append([]model.Option(nil), s.Options...)
		snap.Stages[i] = s
	}
	c := st.coupon
	c.Options = append([]model.Coupon(nil), c.Options...)
	snap.Coupon = c
	snap.Quote = st.quote
	return snap
}
