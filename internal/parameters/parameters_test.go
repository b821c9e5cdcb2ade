package parameters

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestNewFromConfigString(t *testing.T) {
	params := NewFromConfigString("a0fnn=models/6x6, mcts,num_mcts_sims=25,,c_puct=1.0,expr=a=b")
	assert.Equal(t, Params{
		"a0fnn":         "models/6x6",
		"mcts":          "",
		"num_mcts_sims": "25",
		"c_puct":        "1.0",
		"expr":          "a=b",
	}, params)
}

func TestPopParamOr(t *testing.T) {
	params := NewFromConfigString("mcts,num_mcts_sims=25,c_puct=1.5,max_time=2s,temperature=0.5,greedy=false,name=x")

	isMCTS, err := PopParamOr(params, "mcts", false)
	require.NoError(t, err)
	assert.True(t, isMCTS)

	sims, err := PopParamOr(params, "num_mcts_sims", 100)
	require.NoError(t, err)
	assert.Equal(t, 25, sims)

	cPuct, err := PopParamOr(params, "c_puct", float32(1))
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), cPuct)

	maxTime, err := PopParamOr(params, "max_time", time.Duration(0))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, maxTime)

	temperature, err := PopParamOr(params, "temperature", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, temperature)

	greedy, err := PopParamOr(params, "greedy", true)
	require.NoError(t, err)
	assert.False(t, greedy)

	// Default values for missing keys.
	depth, err := PopParamOr(params, "max_depth", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	assert.Error(t, CheckAllUsed(params))
	name, err := PopParamOr(params, "name", "")
	require.NoError(t, err)
	assert.Equal(t, "x", name)
	assert.NoError(t, CheckAllUsed(params))
}

func TestParsingErrors(t *testing.T) {
	params := NewFromConfigString("num_mcts_sims=many,c_puct=high,max_time=soon,mcts=maybe")
	_, err := PopParamOr(params, "num_mcts_sims", 1)
	assert.Error(t, err)
	_, err = PopParamOr(params, "c_puct", float32(1))
	assert.Error(t, err)
	_, err = PopParamOr(params, "max_time", time.Second)
	assert.Error(t, err)
	_, err = PopParamOr(params, "mcts", false)
	assert.Error(t, err)
	// Failed parameters are not popped.
	assert.Len(t, params, 4)
}

func TestPopFirstParam(t *testing.T) {
	params := NewFromConfigString("max_traverses=10,num_mcts_sims=25")
	value, found := PopFirstParam(params, "100", "num_mcts_sims", "max_traverses")
	assert.True(t, found)
	assert.Equal(t, "25", value)
	assert.Empty(t, params)

	value, found = PopFirstParam(params, "100", "num_mcts_sims", "max_traverses")
	assert.False(t, found)
	assert.Equal(t, "100", value)
}
