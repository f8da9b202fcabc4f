package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCrystallizeAndRetrieve(t *testing.T) {
	s := openTestStore(t)

	c, err := s.Crystallize(4, 0.236, map[string]any{
		"event_type": "Quantum coherence analyzer deployment",
		"modules":    []any{"coherence", "memory"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 4, c.GammaLevel)
	assert.InDelta(t, 0.1459, c.PhiFactor, 1e-3) // phi^-4
	assert.Len(t, c.Encoding.PhiDecaySequence, 5)
	assert.Len(t, c.Encoding.CoherenceHistory, 5)

	got, err := s.Retrieve(4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, "Quantum coherence analyzer deployment", got[0].Data["event_type"])

	// Other levels are not returned.
	other, err := s.Retrieve(2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTimelineOrderingAndLevels(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Crystallize(2, 0.382, map[string]any{"event_type": "a"})
	require.NoError(t, err)
	_, err = s.Crystallize(3, 0.236, map[string]any{"event_type": "b"})
	require.NoError(t, err)
	_, err = s.Crystallize(3, 0.240, nil)
	require.NoError(t, err)

	tl, err := s.Timeline()
	require.NoError(t, err)

	assert.Equal(t, 3, tl.TotalStates)
	assert.Equal(t, 2, tl.GammaLevelsReached)
	require.Len(t, tl.Events, 3)

	for i := 1; i < len(tl.Events); i++ {
		assert.False(t, tl.Events[i].Timestamp.Before(tl.Events[i-1].Timestamp),
			"timeline out of order at %d", i)
	}
	// Missing event_type falls back to the default label.
	assert.Equal(t, "STATE_CRYSTALLIZATION", tl.Events[2].EventType)
}

func TestEncodingFingerprintIsStable(t *testing.T) {
	a := encode(3, 0.2, map[string]any{"k": "v"})
	b := encode(3, 0.2, map[string]any{"k": "v"})
	assert.Equal(t, a.DataFingerprint, b.DataFingerprint)

	c := encode(3, 0.2, map[string]any{"k": "w"})
	assert.NotEqual(t, a.DataFingerprint, c.DataFingerprint)
}

func TestEncodingLevelZero(t *testing.T) {
	enc := encode(0, 0.5, nil)
	assert.Equal(t, 0, enc.Layers)
	assert.Len(t, enc.PhiDecaySequence, 1)
	assert.Len(t, enc.CoherenceHistory, 1)
	assert.InDelta(t, 1.0, enc.PhiDecaySequence[0], 1e-12)
}
