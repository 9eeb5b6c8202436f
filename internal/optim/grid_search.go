package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/linsim/internal/experiment"
)

// BuildFunc assembles an experiment for one point of the grid.
type BuildFunc func(values map[string]float64) (*experiment.Experiment, error)

// Outcome is the best point found by a search.
type Outcome struct {
	Values    map[string]float64
	Score     float64
	Evaluated int
	Failed    int
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ScenarioGrid spans each named value of the scenario from Min to Max in the
// given number of points. Names that the scenario does not declare are an error.
func ScenarioGrid(s *experiment.Scenario, names []string, points int) (*GridSearch, error) {
	if points < 1 {
		return nil, fmt.Errorf("grid needs at least one point per value, got %d", points)
	}
	if len(names) == 0 {
		for _, p := range s.Params {
			names = append(names, p.Name)
		}
		sort.Strings(names)
	}

	ranges := make([][]float64, len(names))
	for i, name := range names {
		p, ok := s.Param(name)
		if !ok {
			return nil, fmt.Errorf("scenario %s has no value %q", s.Name, name)
		}
		ranges[i] = Linspace(p.Min, p.Max, points)
	}
	return NewGridSearch(names, ranges), nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and keeps the one with the smallest value of
// the named metric. Points whose build or run fails are counted and skipped;
// if none succeeds the last error is returned.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (*Outcome, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("grid has %d names and %d ranges", len(g.paramNames), len(g.ranges))
	}

	s := &search{
		build:  build,
		metric: metricName,
		out:    &Outcome{Score: math.Inf(1)},
	}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), s); err != nil {
		return nil, err
	}
	if s.out.Values == nil {
		if s.lastErr == nil {
			s.lastErr = errors.New("empty grid")
		}
		return nil, fmt.Errorf("no grid point succeeded: %w", s.lastErr)
	}
	return s.out, nil
}

type search struct {
	build   BuildFunc
	metric  string
	out     *Outcome
	lastErr error
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, s *search) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		s.out.Evaluated++
		score, err := s.evaluate(ctx, current)
		if err != nil {
			s.out.Failed++
			s.lastErr = err
			return nil
		}
		if score < s.out.Score {
			s.out.Score = score
			s.out.Values = make(map[string]float64, len(current))
			for k, v := range current {
				s.out.Values[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, s); err != nil {
			return err
		}
	}
	return nil
}

func (s *search) evaluate(ctx context.Context, values map[string]float64) (float64, error) {
	exp, err := s.build(values)
	if err != nil {
		return 0, err
	}
	if err := exp.Setup(); err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[s.metric]
	if !ok {
		return 0, fmt.Errorf("run did not record metric %q", s.metric)
	}
	if math.IsNaN(val) {
		return 0, fmt.Errorf("metric %q is NaN", s.metric)
	}
	return val, nil
}
