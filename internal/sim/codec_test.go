package sim

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/san-kum/linsim/internal/linsys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSeriesTuples(t *testing.T) {
	plain := Series{Name: "position", Samples: []Sample{{T: 0, True: 0.01}}}
	raw, err := json.Marshal(plain)
	require.NoError(t, err)

	var doc struct {
		ErrorBars bool              `json:"errorBars"`
		Data      []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.False(t, doc.ErrorBars)
	assert.JSONEq(t, `[0, 0.01]`, string(doc.Data[0]))

	filtered := Series{Name: "position", ErrorBars: true, Samples: []Sample{{T: 0.5, True: 1, Est: 0.9, Sigma: 0.1}}}
	raw, err = json.Marshal(filtered)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.True(t, doc.ErrorBars)
	assert.JSONEq(t, `[0.5, [1, 0], [0.9, 0.1]]`, string(doc.Data[0]))

	var back Series
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, filtered, back)
}

func TestResultJSON(t *testing.T) {
	opts := linsys.DefaultKalmanOptions()
	sys, init := iceBlock(t, opts, 0, 0.1, constant(0))
	result, err := New(sys).Run(context.Background(), init, Config{TFinal: 1, Seed: 2})
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{"position", "velocity", "force", "errorBars", "L_final", "state_final"} {
		assert.Contains(t, keys, k)
	}

	var back Result
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, result.Position, back.Position)
	assert.True(t, mat.Equal(result.LFinal, back.LFinal))
	assert.True(t, mat.Equal(result.Final.P, back.Final.P))
	assert.True(t, mat.Equal(result.Final.X, back.Final.X))
}

func TestResultJSONWithoutFilter(t *testing.T) {
	sys, init := iceBlock(t, linsys.Options{}, 0, 0.1, constant(0))
	result, err := New(sys).Run(context.Background(), init, Config{TFinal: 1})
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Nil(t, back.LFinal)
	assert.Nil(t, back.Final.P)
	assert.InDelta(t, 0.11, back.Final.Pos(), 1e-12)
}
