package jwtproof

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/jwt"
	"github.com/dropDatabas3/olympus/internal/store/memory"
)

func TestProver(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.AddUser(ctx, "alice", ""))

	keys, err := jwt.NewEd25519()
	require.NoError(t, err)
	p := New(st, keys.Pub, "kyc")

	born := time.Date(1999, 3, 4, 0, 0, 0, 0, time.UTC)
	proof, err := Sign(keys, "kyc", "alice", map[string]types.Attribute{
		"Age":       types.NewInteger(25),
		"birthdate": types.NewDate(born),
	}, time.Minute)
	require.NoError(t, err)

	ok, err := p.IsValid(ctx, proof, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = p.IsValid(ctx, proof, "bob")
	require.False(t, ok)

	require.NoError(t, p.AddAttributes(ctx, proof, "alice"))
	attrs, err := st.GetAttributes(ctx, "alice")
	require.NoError(t, err)
	require.True(t, attrs["age"].Equal(types.NewInteger(25)))
	require.True(t, attrs["birthdate"].Equal(types.NewDate(born)))
}

func TestProver_RejectsOtherIssuerKey(t *testing.T) {
	keys, _ := jwt.NewEd25519()
	other, _ := jwt.NewEd25519()
	p := New(memory.New(), keys.Pub, "kyc")

	proof, err := Sign(other, "kyc", "alice", map[string]types.Attribute{"age": types.NewInteger(1)}, time.Minute)
	require.NoError(t, err)

	ok, _ := p.IsValid(context.Background(), proof, "alice")
	require.False(t, ok)
	require.ErrorIs(t, p.AddAttributes(context.Background(), proof, "alice"), ErrInvalidProof)
}
