package output

import (
	"sort"
	"sync"
)

// MemoryContainer keeps results in memory.
// Useful for testing and for jobs whose results are consumed in-process.
type MemoryContainer struct {
	mu         sync.RWMutex
	kinds      map[string]EntryKind
	order      []string
	histograms map[string]Histogram
	cutflows   map[string]Cutflow
	summaries  []Summary
	closed     bool
}

// NewMemoryContainer creates an empty in-memory container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{
		kinds:      make(map[string]EntryKind),
		histograms: make(map[string]Histogram),
		cutflows:   make(map[string]Cutflow),
	}
}

// PutHistogram implements Container.
func (m *MemoryContainer) PutHistogram(h Histogram) error {
	if err := h.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.claim(h.Name, KindHistogram); err != nil {
		return err
	}
	m.histograms[h.Name] = cloneHistogram(h)
	return nil
}

// PutCutflow implements Container.
func (m *MemoryContainer) PutCutflow(c Cutflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.claim(c.Name, KindCutflow); err != nil {
		return err
	}
	c.Rows = append([]CutflowRow(nil), c.Rows...)
	m.cutflows[c.Name] = c
	return nil
}

// PutSummary implements Container.
func (m *MemoryContainer) PutSummary(s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrContainerClosed
	}
	for _, existing := range m.summaries {
		if existing.RunID == s.RunID {
			return ErrDuplicateEntry
		}
	}
	m.summaries = append(m.summaries, s)
	return nil
}

// claim reserves name. Callers must hold the write lock.
func (m *MemoryContainer) claim(name string, kind EntryKind) error {
	if m.closed {
		return ErrContainerClosed
	}
	if _, ok := m.kinds[name]; ok {
		return ErrDuplicateEntry
	}
	m.kinds[name] = kind
	m.order = append(m.order, name)
	return nil
}

// Entries implements Reader. Entries are returned sorted by name.
func (m *MemoryContainer) Entries() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrContainerClosed
	}
	entries := make([]Entry, 0, len(m.kinds))
	for name, kind := range m.kinds {
		entries = append(entries, Entry{Name: name, Kind: kind})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Histogram implements Reader.
func (m *MemoryContainer) Histogram(name string) (Histogram, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Histogram{}, ErrContainerClosed
	}
	h, ok := m.histograms[name]
	if !ok {
		return Histogram{}, ErrNotFound
	}
	return cloneHistogram(h), nil
}

// Cutflow implements Reader.
func (m *MemoryContainer) Cutflow(name string) (Cutflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Cutflow{}, ErrContainerClosed
	}
	c, ok := m.cutflows[name]
	if !ok {
		return Cutflow{}, ErrNotFound
	}
	c.Rows = append([]CutflowRow(nil), c.Rows...)
	return c, nil
}

// Summaries implements Reader.
func (m *MemoryContainer) Summaries() ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrContainerClosed
	}
	return append([]Summary(nil), m.summaries...), nil
}

// Close implements Container.
func (m *MemoryContainer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Len returns the number of named entries (summaries excluded).
// Useful for testing.
func (m *MemoryContainer) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kinds)
}

func cloneHistogram(h Histogram) Histogram {
	h.XEdges = append([]float64(nil), h.XEdges...)
	h.YEdges = append([]float64(nil), h.YEdges...)
	h.Content = append([]float64(nil), h.Content...)
	h.SumW2 = append([]float64(nil), h.SumW2...)
	if h.Stats != nil {
		stats := make(map[string]int64, len(h.Stats))
		for k, v := range h.Stats {
			stats[k] = v
		}
		h.Stats = stats
	}
	return h
}
