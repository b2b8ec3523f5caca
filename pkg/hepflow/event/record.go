package event

// Record is a map-backed View. It is the concrete event type produced by
// SliceSource and JSONLSource and is convenient for tests.
//
// Record is built once and then only read; the With* helpers are meant for
// construction and must not be called while the record is being processed.
type Record struct {
	EventID     ID                  `json:"id"`
	Collections map[string][]Object `json:"collections,omitempty"`
	Gen         []GenParticle       `json:"gen,omitempty"`
	Triggers    map[string]bool     `json:"triggers,omitempty"`
	MissingEt   MET                 `json:"met"`
	Vars        map[string]float64  `json:"vars,omitempty"`
}

// Compile-time interface check.
var _ View = (*Record)(nil)

// NewRecord creates an empty record with the given identifier.
func NewRecord(id ID) *Record {
	return &Record{EventID: id}
}

// ID implements View.
func (r *Record) ID() ID {
	return r.EventID
}

// Collection implements View.
func (r *Record) Collection(name string) []Object {
	return r.Collections[name]
}

// GenParticles implements View.
func (r *Record) GenParticles() []GenParticle {
	return r.Gen
}

// Trigger implements View.
func (r *Record) Trigger(name string) (bool, bool) {
	fired, known := r.Triggers[name]
	return fired, known
}

// MET implements View.
func (r *Record) MET() MET {
	return r.MissingEt
}

// Var implements View.
func (r *Record) Var(name string) (float64, bool) {
	v, ok := r.Vars[name]
	return v, ok
}

// WithVar sets a scalar event variable.
func (r *Record) WithVar(name string, value float64) *Record {
	if r.Vars == nil {
		r.Vars = make(map[string]float64)
	}
	r.Vars[name] = value
	return r
}

// WithTrigger records a trigger decision.
func (r *Record) WithTrigger(name string, fired bool) *Record {
	if r.Triggers == nil {
		r.Triggers = make(map[string]bool)
	}
	r.Triggers[name] = fired
	return r
}

// WithCollection appends objects to a named collection.
func (r *Record) WithCollection(name string, objs ...Object) *Record {
	if r.Collections == nil {
		r.Collections = make(map[string][]Object)
	}
	r.Collections[name] = append(r.Collections[name], objs...)
	return r
}

// WithGen appends generator-level particles.
func (r *Record) WithGen(parts ...GenParticle) *Record {
	r.Gen = append(r.Gen, parts...)
	return r
}

// WithMET sets the missing transverse energy summary.
func (r *Record) WithMET(met MET) *Record {
	r.MissingEt = met
	return r
}

// pairedView is a reconstructed view carrying its truth companion.
type pairedView struct {
	View
	truth View
}

// Truth implements Paired.
func (p pairedView) Truth() View {
	return p.truth
}

// WithTruth returns a view that behaves like reco and carries truth as its
// truth-level companion. A nil truth yields reco unchanged.
func WithTruth(reco, truth View) View {
	if truth == nil {
		return reco
	}
	return pairedView{View: reco, truth: truth}
}
