package output

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
)

// ROOTContainer writes results to a ROOT file readable by ROOT and uproot.
// Histograms become TH1D/TH2D objects; cutflows and summaries are stored as
// TObjString tables. The fill counters of each histogram are stored as JSON
// in the "stats" directory under the histogram's name. It is write-only.
type ROOTContainer struct {
	mu     sync.Mutex
	file   *riofs.File
	stats  riofs.Directory
	names  map[string]struct{}
	closed bool
}

// StatsDir is the ROOT directory holding per-histogram fill counters.
// The name is reserved.
const StatsDir = "stats"

// NewROOTContainer creates (truncating) the ROOT file at path.
func NewROOTContainer(path string) (*ROOTContainer, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create root file: %w", err)
	}
	return &ROOTContainer{file: f, names: map[string]struct{}{StatsDir: {}}}, nil
}

// Reserved implements Reserver.
func (r *ROOTContainer) Reserved() []string {
	return []string{StatsDir}
}

// PutHistogram implements Container.
func (r *ROOTContainer) PutHistogram(h Histogram) error {
	if err := h.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claim(h.Name); err != nil {
		return err
	}

	var obj root.Object
	switch h.Dims {
	case 1:
		h1 := h.H1
		if h1 == nil {
			h1 = h.ToH1D()
		}
		h1.Annotation()["name"] = h.Name
		h1.Annotation()["title"] = h.Title
		obj = rhist.NewH1DFrom(h1)
	case 2:
		h2 := h.H2
		if h2 == nil {
			h2 = h.ToH2D()
		}
		h2.Annotation()["name"] = h.Name
		h2.Annotation()["title"] = h.Title
		obj = rhist.NewH2DFrom(h2)
	}
	if err := r.file.Put(h.Name, obj); err != nil {
		return fmt.Errorf("write histogram %s: %w", h.Name, err)
	}
	return r.putStats(h)
}

// putStats writes the fill counters of h. Callers must hold the lock.
func (r *ROOTContainer) putStats(h Histogram) error {
	if len(h.Stats) == 0 {
		return nil
	}
	data, err := json.Marshal(h.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats %s: %w", h.Name, err)
	}
	if r.stats == nil {
		dir, err := r.file.Mkdir(StatsDir)
		if err != nil {
			return fmt.Errorf("create stats directory: %w", err)
		}
		r.stats = dir
	}
	if err := r.stats.Put(h.Name, rbase.NewObjString(string(data))); err != nil {
		return fmt.Errorf("write stats %s: %w", h.Name, err)
	}
	return nil
}

// PutCutflow implements Container.
func (r *ROOTContainer) PutCutflow(c Cutflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claim(c.Name); err != nil {
		return err
	}
	if err := r.file.Put(c.Name, rbase.NewObjString(c.Table())); err != nil {
		return fmt.Errorf("write cutflow %s: %w", c.Name, err)
	}
	return nil
}

// PutSummary implements Container. The summary is stored as JSON under
// "summary_<run id>".
func (r *ROOTContainer) PutSummary(s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := "summary_" + s.RunID
	if err := r.claim(name); err != nil {
		return err
	}
	if err := r.file.Put(name, rbase.NewObjString(string(data))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// claim reserves name. Callers must hold the lock.
func (r *ROOTContainer) claim(name string) error {
	if r.closed {
		return ErrContainerClosed
	}
	if _, ok := r.names[name]; ok {
		return ErrDuplicateEntry
	}
	r.names[name] = struct{}{}
	return nil
}

// Close implements Container. It flushes and closes the file.
func (r *ROOTContainer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ToH1D rebuilds an hbook histogram from the stored bin contents. Per-bin
// sums of weights and squared weights are restored exactly; entry counts are
// the effective entries and the x moments are lost.
func (h Histogram) ToH1D() *hbook.H1D {
	out := hbook.NewH1DFromEdges(h.XEdges)
	total := &out.Binning.Dist.Dist
	for i := range out.Binning.Bins {
		restoreDist(&out.Binning.Bins[i].Dist.Dist, total, h.Content[i], h.SumW2[i])
	}
	restoreDist(&out.Binning.Outflows[0].Dist, total, h.Underflow, 0)
	restoreDist(&out.Binning.Outflows[1].Dist, total, h.Overflow, 0)
	return out
}

// ToH2D rebuilds a 2-D hbook histogram from the stored bin contents, with
// the same restrictions as ToH1D. Outflows are not restored since the stored
// form does not split them by region.
func (h Histogram) ToH2D() *hbook.H2D {
	out := hbook.NewH2DFromEdges(h.XEdges, h.YEdges)
	totalX := &out.Binning.Dist.X.Dist
	totalY := &out.Binning.Dist.Y.Dist
	for i := range out.Binning.Bins {
		d := &out.Binning.Bins[i].Dist
		restoreDist(&d.X.Dist, totalX, h.Content[i], h.SumW2[i])
		restoreDist(&d.Y.Dist, totalY, h.Content[i], h.SumW2[i])
	}
	return out
}

// restoreDist sets d from stored sums and adds it to total.
func restoreDist(d, total *hbook.Dist0D, sumw, sumw2 float64) {
	if sumw == 0 && sumw2 == 0 {
		return
	}
	d.N = 1
	if sumw2 > 0 {
		d.N = max(1, int64(math.Round(sumw*sumw/sumw2)))
	}
	d.SumW = sumw
	d.SumW2 = sumw2
	total.N += d.N
	total.SumW += sumw
	total.SumW2 += sumw2
}
