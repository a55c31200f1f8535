package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestMaskedNeverLeaksFullValue(t *testing.T) {
	f := Masked("cookie", "abcdefghijklmnop")
	require.Equal(t, "abcdef***", f.String)

	f = Masked("cookie", "abc")
	require.Equal(t, "***", f.String)
}

func TestFromFallsBackToSingleton(t *testing.T) {
	nop := zap.NewNop()
	restore := Replace(nop)
	defer restore()

	require.Same(t, nop, From(context.Background()))

	scoped := nop.With(zap.String("request_id", "r1"))
	require.Same(t, scoped, From(ToContext(context.Background(), scoped)))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
