package optimizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opponentPool() []PlayerProjection {
	return []PlayerProjection{
		proj("X1", "QB X", 12, PositionQB),
		proj("X2", "RB X", 10, PositionRB),
		proj("X3", "RB Y", 6, PositionRB),
		proj("X4", "WR X", 7, PositionWR),
		proj("X5", "WR Y", 5, PositionWR),
		proj("X6", "TE X", 3, PositionTE),
		proj("X7", "WR Z", 8, PositionWR),
	}
}

func TestEvaluate_Symmetry(t *testing.T) {
	own := scenarioPool()
	opp := opponentPool()

	forward, err := Evaluate(own, opp, DefaultSlots(), DefaultScorer())
	require.NoError(t, err)
	reversed, err := Evaluate(opp, own, DefaultSlots(), DefaultScorer())
	require.NoError(t, err)

	assert.Equal(t, forward.Own, reversed.Opponent)
	assert.Equal(t, forward.Opponent, reversed.Own)
	assert.Equal(t, forward.OwnTotal, reversed.OpponentTotal)
	assert.Equal(t, forward.OpponentTotal, reversed.OwnTotal)
	assert.Equal(t, forward.Margin(), -reversed.Margin())
}

func TestEvaluate_SidesAreIndependent(t *testing.T) {
	own := scenarioPool()
	opp := opponentPool()

	result, err := Evaluate(own, opp, DefaultSlots(), DefaultScorer())
	require.NoError(t, err)

	standalone, err := Optimize(own, DefaultSlots(), DefaultScorer())
	require.NoError(t, err)
	assert.Equal(t, *standalone, result.Own,
		"the opponent pool must not influence the own-side optimization")

	assert.Equal(t, result.Own.TotalPoints, result.OwnTotal)
	assert.Equal(t, result.Opponent.TotalPoints, result.OpponentTotal)
}

func TestEvaluate_RepeatCallsIdentical(t *testing.T) {
	first, err := Evaluate(scenarioPool(), opponentPool(), DefaultSlots(), DefaultScorer())
	require.NoError(t, err)
	second, err := Evaluate(scenarioPool(), opponentPool(), DefaultSlots(), DefaultScorer())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_InvalidConfiguration(t *testing.T) {
	bad := SlotConfiguration{{Name: "RB", Accepts: nil, Count: 1}}

	result, err := Evaluate(scenarioPool(), opponentPool(), bad, DefaultScorer())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Nil(t, result)
}

func TestEvaluate_EmptyOpponentPool(t *testing.T) {
	result, err := Evaluate(scenarioPool(), nil, DefaultSlots(), DefaultScorer())
	require.NoError(t, err)

	assert.False(t, result.Own.Incomplete())
	assert.True(t, result.Opponent.Incomplete())
	assert.Len(t, result.Opponent.Unfilled, 7)
	assert.Zero(t, result.OpponentTotal)
	assert.Equal(t, result.OwnTotal, result.Margin())
}
