package event

import (
	"fmt"
	"strings"
)

// ID identifies one underlying physics event.
type ID struct {
	Run   uint32 `json:"run" yaml:"run"`
	Lumi  uint32 `json:"lumi" yaml:"lumi"`
	Event uint64 `json:"event" yaml:"event"`
}

// String returns run:lumi:event.
func (id ID) String() string {
	return fmt.Sprintf("%d:%d:%d", id.Run, id.Lumi, id.Event)
}

// Object is a reconstructed physics object (lepton, jet, photon, ...).
// Attrs carries collection-specific quantities such as isolation or b-tag score.
type Object struct {
	Pt     float64            `json:"pt"`
	Eta    float64            `json:"eta"`
	Phi    float64            `json:"phi"`
	Mass   float64            `json:"mass"`
	Charge int                `json:"charge"`
	Attrs  map[string]float64 `json:"attrs,omitempty"`
}

// Attr returns a named attribute of the object.
func (o Object) Attr(name string) (float64, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

// GenParticle is a generator-level truth record.
type GenParticle struct {
	PdgID  int     `json:"pdg_id"`
	Status int     `json:"status"`
	Pt     float64 `json:"pt"`
	Eta    float64 `json:"eta"`
	Phi    float64 `json:"phi"`
	Mass   float64 `json:"mass"`
	Mother int     `json:"mother"`
}

// MET is the missing transverse energy summary.
type MET struct {
	Pt    float64 `json:"pt"`
	Phi   float64 `json:"phi"`
	SumEt float64 `json:"sum_et"`
}

// View is the read-only accessor to one event.
//
// Implementations must be immutable for the duration of one event and must
// return the same answers for repeated calls.
type View interface {
	// ID returns the event identifier.
	ID() ID

	// Collection returns the named object collection, or nil if absent.
	Collection(name string) []Object

	// GenParticles returns the generator-level truth records.
	GenParticles() []GenParticle

	// Trigger reports whether the named trigger fired.
	// known is false if the trigger is not present in the event.
	Trigger(name string) (fired, known bool)

	// MET returns the missing transverse energy summary.
	MET() MET

	// Var returns a named scalar event variable.
	Var(name string) (float64, bool)
}

// Paired is implemented by views that carry a truth-level companion for
// the same underlying event.
type Paired interface {
	View
	Truth() View
}

// TruthOf returns the truth companion of v, or nil if v carries none.
func TruthOf(v View) View {
	if p, ok := v.(Paired); ok {
		return p.Truth()
	}
	return nil
}

// Lookup resolves names against a view for expression evaluation.
//
// Resolution order: event variables, then "met", "met_phi" and "met_sumet",
// then "n_<collection>" multiplicities, then trigger names.
type Lookup struct {
	View View
}

// Lookup implements name-based variable resolution.
func (l Lookup) Lookup(name string) (any, bool) {
	if v, ok := l.View.Var(name); ok {
		return v, true
	}
	switch name {
	case "met":
		return l.View.MET().Pt, true
	case "met_phi":
		return l.View.MET().Phi, true
	case "met_sumet":
		return l.View.MET().SumEt, true
	}
	if coll, ok := strings.CutPrefix(name, "n_"); ok {
		return int64(len(l.View.Collection(coll))), true
	}
	if fired, known := l.View.Trigger(name); known {
		return fired, true
	}
	return nil, false
}
