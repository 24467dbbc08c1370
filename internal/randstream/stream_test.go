package randstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.IntRange(0, 1000), b.IntRange(0, 1000))
	}
}

func TestIntRangeInclusive(t *testing.T) {
	s := New(1)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := s.IntRange(1, 3)
		if v < 1 || v > 3 {
			t.Fatalf("value %d outside [1, 3]", v)
		}
		seen[v] = true
	}
	require.Len(t, seen, 3)
	require.Equal(t, 5, s.IntRange(5, 5))
}

func TestWeightedSkipsZeroWeights(t *testing.T) {
	s := New(9)
	for i := 0; i < 500; i++ {
		idx, err := s.Weighted([]int{0, 3, 0, 1})
		require.NoError(t, err)
		if idx != 1 && idx != 3 {
			t.Fatalf("zero-weight index %d chosen", idx)
		}
	}
}

func TestWeightedRejectsInvalidTables(t *testing.T) {
	s := New(9)
	_, err := s.Weighted([]int{0, 0})
	require.Error(t, err)
	_, err = s.Weighted([]int{1, -1})
	require.Error(t, err)
	_, err = s.Weighted(nil)
	require.Error(t, err)
}
