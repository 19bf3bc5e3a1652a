package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInstruments_NilSafe(t *testing.T) {
	var i *Instruments
	require.NotNil(t, i.Tracer("x"))
	require.NotNil(t, i.Meter("x"))
	require.NotNil(t, i.EffectiveLogger())
}
