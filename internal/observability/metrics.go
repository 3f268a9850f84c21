package observability

import "sync"

// Metrics provides basic in-memory counters for pipeline stages.
type Metrics struct {
	mu      sync.Mutex
	rowsIn  map[string]int64
	rowsOut map[string]int64
	drops   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		rowsIn:  make(map[string]int64),
		rowsOut: make(map[string]int64),
		drops:   make(map[string]int64),
	}
}

// RecordStage records how many rows a stage consumed and produced.
func (m *Metrics) RecordStage(stage string, rowsIn, rowsOut int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowsIn[stage] += int64(rowsIn)
	m.rowsOut[stage] += int64(rowsOut)
}

// RecordDrop counts rows removed by a stage for a given cause.
func (m *Metrics) RecordDrop(stage, cause string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops[dropKey(stage, cause)] += int64(count)
}

// StageRows returns per-stage input/output row counts.
func (m *Metrics) StageRows() (in, out map[string]int64) {
	if m == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.rowsIn), copyCounts(m.rowsOut)
}

// Drops returns removal counts keyed by "stage|cause".
func (m *Metrics) Drops() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.drops)
}

func dropKey(stage, cause string) string {
	return stage + "|" + cause
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
