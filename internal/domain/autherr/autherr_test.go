package autherr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByKind(t *testing.T) {
	err := ErrPolicyUnfulfilled.WithDetail("age GT 30")
	require.ErrorIs(t, err, ErrPolicyUnfulfilled)
	require.NotErrorIs(t, err, ErrAuthenticationFailed)
	require.Equal(t, "", ErrPolicyUnfulfilled.Detail, "base value must not be mutated")
}

func TestOperationWrapsOnce(t *testing.T) {
	cause := errors.New("connection reset")
	err := Operation(cause)
	require.ErrorIs(t, err, ErrOperationFailed)
	require.ErrorIs(t, err, cause)
	require.Equal(t, KindOperationFailed, KindOf(err))

	// un error ya tipado no se re-envuelve
	same := Operation(ErrAuthenticationFailed)
	require.Equal(t, KindAuthenticationFailed, KindOf(same))
	require.Nil(t, Operation(nil))
}
