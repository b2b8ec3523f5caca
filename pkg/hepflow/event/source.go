package event

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Source produces the ordered sequence of events for one job.
type Source interface {
	// Next returns the next view. ok is false once the sequence is exhausted;
	// exhaustion is never reported as an error. A non-nil error is an access
	// failure and ends the job.
	Next(ctx context.Context) (v View, ok bool, err error)
}

// SliceSource serves views from memory. It can be restarted with Reset.
type SliceSource struct {
	views []View
	pos   int
}

// NewSliceSource creates a source over the given views.
func NewSliceSource(views ...View) *SliceSource {
	return &SliceSource{views: views}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (View, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.views) {
		return nil, false, nil
	}
	v := s.views[s.pos]
	s.pos++
	return v, true, nil
}

// Reset rewinds the source to its first view.
func (s *SliceSource) Reset() {
	s.pos = 0
}

// Len returns the number of views in the source.
func (s *SliceSource) Len() int {
	return len(s.views)
}

// JSONLSource decodes one Record per line from a reader.
// Blank lines are skipped.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// maxLineBytes bounds a single encoded event.
const maxLineBytes = 16 << 20

// NewJSONLSource creates a source reading JSON lines from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &JSONLSource{scanner: sc}
}

// Next implements Source.
func (s *JSONLSource) Next(ctx context.Context) (View, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, false, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return nil, false, nil
		}
		s.line++
		data := s.scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, false, fmt.Errorf("decode line %d: %w", s.line, err)
		}
		return &rec, true, nil
	}
}

// ErrLengthMismatch indicates that the two sides of a zipped source ended at
// different positions.
var ErrLengthMismatch = errors.New("truth and reco sources have different lengths")

// zipSource reads truth and reco sources in lockstep.
type zipSource struct {
	truth Source
	reco  Source
}

// Zip pairs a truth-level source with a reconstructed source. Each produced
// view is the reco view carrying the truth view at the same position as its
// companion (see TruthOf). The identifiers are not checked here; mismatched
// pairs are left for paired histograms to count.
//
// If one side ends before the other, Next returns ErrLengthMismatch.
func Zip(truth, reco Source) Source {
	return &zipSource{truth: truth, reco: reco}
}

// Next implements Source.
func (z *zipSource) Next(ctx context.Context) (View, bool, error) {
	t, tok, err := z.truth.Next(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("truth source: %w", err)
	}
	r, rok, err := z.reco.Next(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reco source: %w", err)
	}
	if !tok && !rok {
		return nil, false, nil
	}
	if tok != rok {
		return nil, false, ErrLengthMismatch
	}
	return WithTruth(r, t), true, nil
}
