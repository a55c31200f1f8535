package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

func date(y int, m time.Month, d int) types.Attribute {
	return types.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func ptr(a types.Attribute) *types.Attribute { return &a }

func TestEvaluate_AgeThreshold(t *testing.T) {
	attrs := map[string]types.Attribute{"age": types.NewInteger(25)}

	claims, err := Evaluate(attrs, types.Policy{
		PolicyID: "nonce-1",
		Predicates: []types.Predicate{
			{AttributeName: "age", Operation: types.OpGreaterThanOrEqual, Value: types.NewInteger(18)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ageGT18": true}, claims.Values())

	_, err = Evaluate(attrs, types.Policy{
		Predicates: []types.Predicate{
			{AttributeName: "age", Operation: types.OpGreaterThanOrEqual, Value: types.NewInteger(30)},
		},
	})
	require.ErrorIs(t, err, autherr.ErrPolicyUnfulfilled)
}

func TestEvaluate_DateRangeInclusive(t *testing.T) {
	pred := types.Predicate{
		AttributeName: "birthdate",
		Operation:     types.OpInRange,
		Value:         date(2000, time.January, 1),
		ExtraValue:    ptr(date(2000, time.December, 31)),
	}
	pol := types.Policy{Predicates: []types.Predicate{pred}}

	cases := []struct {
		name string
		attr types.Attribute
		ok   bool
	}{
		{"lower bound", date(2000, time.January, 1), true},
		{"upper bound", date(2000, time.December, 31), true},
		{"inside", date(2000, time.June, 15), true},
		{"day before", date(1999, time.December, 31), false},
		{"day after", date(2001, time.January, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := Evaluate(map[string]types.Attribute{"birthdate": tc.attr}, pol)
			if !tc.ok {
				require.ErrorIs(t, err, autherr.ErrPolicyUnfulfilled)
				require.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.Contains(t, claims, "birthdateINRANGE01.01.00-31.12.00")
		})
	}
}

func TestEvaluate_ClaimNames(t *testing.T) {
	attrs := map[string]types.Attribute{
		"Name":      types.NewString("Alice"),
		"age":       types.NewInteger(25),
		"birthdate": date(1999, time.March, 4),
		"verified":  types.NewBoolean(true),
	}
	pol := types.Policy{Predicates: []types.Predicate{
		{AttributeName: "NAME", Operation: types.OpEQ, Value: types.NewString("Alice")},
		{AttributeName: "age", Operation: types.OpLessThanOrEqual, Value: types.NewInteger(65)},
		{AttributeName: "age", Operation: types.OpInRange, Value: types.NewInteger(18), ExtraValue: ptr(types.NewInteger(30))},
		{AttributeName: "birthdate", Operation: types.OpLessThanOrEqual, Value: date(1999, time.March, 4)},
		{AttributeName: "verified", Operation: types.OpReveal},
	}}

	claims, err := Evaluate(attrs, pol)
	require.NoError(t, err)
	require.Len(t, claims, len(pol.Predicates))

	for _, name := range []string{"nameEQUALSAlice", "ageLT65", "ageINRANGE18-30", "birthdateLT04.03.99"} {
		v, ok := claims[name].BoolValue()
		require.True(t, ok, name)
		require.True(t, v, name)
	}
	revealed := claims["verified"]
	require.True(t, revealed.Equal(types.NewBoolean(true)))
}

func TestEvaluate_AllOrNothing(t *testing.T) {
	attrs := map[string]types.Attribute{"age": types.NewInteger(25)}
	pol := types.Policy{Predicates: []types.Predicate{
		{AttributeName: "age", Operation: types.OpGreaterThanOrEqual, Value: types.NewInteger(18)},
		{AttributeName: "country", Operation: types.OpReveal},
	}}

	claims, err := Evaluate(attrs, pol)
	require.ErrorIs(t, err, autherr.ErrPolicyUnfulfilled)
	require.Nil(t, claims)
}

func TestEvaluate_UnsupportedComparisons(t *testing.T) {
	attrs := map[string]types.Attribute{
		"name":     types.NewString("bob"),
		"verified": types.NewBoolean(true),
		"age":      types.NewInteger(40),
	}
	preds := []types.Predicate{
		// strings y booleanos no tienen orden
		{AttributeName: "name", Operation: types.OpLessThanOrEqual, Value: types.NewString("zzz")},
		{AttributeName: "verified", Operation: types.OpGreaterThanOrEqual, Value: types.NewBoolean(false)},
		// tipos distintos
		{AttributeName: "age", Operation: types.OpEQ, Value: types.NewString("40")},
		{AttributeName: "age", Operation: types.OpGreaterThanOrEqual, Value: date(2000, time.January, 1)},
		// INRANGE sin cota superior
		{AttributeName: "age", Operation: types.OpInRange, Value: types.NewInteger(1)},
	}
	for _, p := range preds {
		_, err := Evaluate(attrs, types.Policy{Predicates: []types.Predicate{p}})
		require.ErrorIs(t, err, autherr.ErrPolicyUnfulfilled, "%s %s", p.AttributeName, p.Operation)
	}
}

func TestEvaluate_EmptyPolicy(t *testing.T) {
	claims, err := Evaluate(nil, types.Policy{})
	require.NoError(t, err)
	require.Empty(t, claims)
}
