package sim

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/linsim/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

// Series data is encoded as chart tuples: [t, v] for a plain series and
// [t, [x, 0], [mu, sigma]] when ErrorBars is set.

type seriesJSON struct {
	Name      string            `json:"name"`
	Labels    []string          `json:"labels"`
	Colors    []string          `json:"colors"`
	ErrorBars bool              `json:"errorBars"`
	Hidden    bool              `json:"hidden,omitempty"`
	Data      []json.RawMessage `json:"data"`
}

func (s Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{
		Name:      s.Name,
		Labels:    s.Labels,
		Colors:    s.Colors,
		ErrorBars: s.ErrorBars,
		Hidden:    s.Hidden,
		Data:      make([]json.RawMessage, 0, len(s.Samples)),
	}
	for _, p := range s.Samples {
		var row any = [2]float64{p.T, p.True}
		if s.ErrorBars {
			row = [3]any{p.T, [2]float64{p.True, 0}, [2]float64{p.Est, p.Sigma}}
		}
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("series %s at t=%v: %w", s.Name, p.T, err)
		}
		out.Data = append(out.Data, raw)
	}
	return json.Marshal(out)
}

func (s *Series) UnmarshalJSON(data []byte) error {
	var in seriesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	samples := make([]Sample, 0, len(in.Data))
	for i, raw := range in.Data {
		var p Sample
		if in.ErrorBars {
			var fields []json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("series %s row %d: %w", in.Name, i, err)
			}
			if len(fields) != 3 {
				return fmt.Errorf("series %s row %d: want 3 fields, got %d", in.Name, i, len(fields))
			}
			var t float64
			var truth, filter [2]float64
			for j, dst := range []any{&t, &truth, &filter} {
				if err := json.Unmarshal(fields[j], dst); err != nil {
					return fmt.Errorf("series %s row %d: %w", in.Name, i, err)
				}
			}
			p = Sample{T: t, True: truth[0], Est: filter[0], Sigma: filter[1]}
		} else {
			var row [2]float64
			if err := json.Unmarshal(raw, &row); err != nil {
				return fmt.Errorf("series %s row %d: %w", in.Name, i, err)
			}
			p = Sample{T: row[0], True: row[1]}
		}
		samples = append(samples, p)
	}

	*s = Series{
		Name:      in.Name,
		Labels:    in.Labels,
		Colors:    in.Colors,
		ErrorBars: in.ErrorBars,
		Hidden:    in.Hidden,
		Samples:   samples,
	}
	return nil
}

type stateJSON struct {
	X  []float64   `json:"x"`
	Mu []float64   `json:"mu,omitempty"`
	P  [][]float64 `json:"P,omitempty"`
}

type resultJSON struct {
	Position   Series             `json:"position"`
	Velocity   Series             `json:"velocity"`
	Force      Series             `json:"force"`
	ErrorBars  bool               `json:"errorBars"`
	Ticks      int                `json:"ticks"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	LFinal     [][]float64        `json:"L_final"`
	StateFinal stateJSON          `json:"state_final"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Position:   r.Position,
		Velocity:   r.Velocity,
		Force:      r.Force,
		ErrorBars:  r.ErrorBars,
		Ticks:      r.Ticks,
		Metrics:    r.Metrics,
		LFinal:     rows(r.LFinal),
		StateFinal: encodeState(r.Final),
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l, err := dense(in.LFinal)
	if err != nil {
		return fmt.Errorf("L_final: %w", err)
	}
	st, err := decodeState(in.StateFinal)
	if err != nil {
		return fmt.Errorf("state_final: %w", err)
	}

	*r = Result{
		Position:  in.Position,
		Velocity:  in.Velocity,
		Force:     in.Force,
		ErrorBars: in.ErrorBars,
		Ticks:     in.Ticks,
		Metrics:   in.Metrics,
		LFinal:    l,
		Final:     st,
	}
	return nil
}

func encodeState(st linsys.State) stateJSON {
	out := stateJSON{P: rows(st.P)}
	if st.X != nil {
		out.X = mat.Col(nil, 0, st.X)
	}
	if st.Mu != nil {
		out.Mu = mat.Col(nil, 0, st.Mu)
	}
	return out
}

func decodeState(in stateJSON) (linsys.State, error) {
	var st linsys.State
	if len(in.X) > 0 {
		st.X = mat.NewVecDense(len(in.X), in.X)
	}
	if len(in.Mu) > 0 {
		st.Mu = mat.NewVecDense(len(in.Mu), in.Mu)
	}
	p, err := dense(in.P)
	if err != nil {
		return st, fmt.Errorf("P: %w", err)
	}
	st.P = p
	return st, nil
}

func rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func dense(data [][]float64) (*mat.Dense, error) {
	if len(data) == 0 {
		return nil, nil
	}
	c := len(data[0])
	flat := make([]float64, 0, len(data)*c)
	for i, row := range data {
		if len(row) != c {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", linsys.ErrDimensionMismatch, i, len(row), c)
		}
		flat = append(flat, row...)
	}
	if c == 0 {
		return nil, nil
	}
	return mat.NewDense(len(data), c, flat), nil
}
