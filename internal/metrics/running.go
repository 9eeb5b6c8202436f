package metrics

// mean is a running average over ticks.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

// value returns empty when nothing was added.
func (m *mean) value(empty float64) float64 {
	if m.n == 0 {
		return empty
	}
	return m.sum / float64(m.n)
}

func (m *mean) reset() { *m = mean{} }
