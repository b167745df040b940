package xforward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTotalOrder(t *testing.T) {
	order := []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}
	for i, a := range order {
		for j, b := range order {
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			assert.Equal(t, want, Compare(a, b), "Compare(%s, %s)", a, b)
		}
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		ev, threshold Level
		want          bool
	}{
		{LevelDebug, LevelWarn, false},
		{LevelWarn, LevelWarn, true},
		{LevelError, LevelWarn, true},
		{LevelTrace, LevelTrace, true},
		{LevelInfo, LevelFatal, false},
	}
	for _, tt := range tests {
		t.Run(tt.ev.String()+"/"+tt.threshold.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldLog(tt.ev, tt.threshold))
		})
	}
}

func TestParseLevel(t *testing.T) {
	lv, err := ParseLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lv)

	_, err = ParseLevel("loud")
	require.ErrorIs(t, err, ErrUnknownLevel)

	var l Level
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, LevelDebug, l)
	b, err := LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))
}
