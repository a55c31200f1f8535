package password

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "correct horse")
	require.NoError(t, err)
	require.True(t, Verify("correct horse", phc))
	require.False(t, Verify("wrong", phc))

	_, err = Hash(fast, "")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=18$m=1,t=1,p=1$AA$AA", "$argon2id$v=19$m=1$AA$AA"} {
		require.False(t, Verify("x", phc), phc)
	}
}

func TestRules(t *testing.T) {
	r := Rules{MinLength: 8, RequireDigit: true, Blacklist: map[string]struct{}{"password1": {}}}
	require.Empty(t, r.Check("abcdefg1"))
	require.Equal(t, []string{"too_short"}, r.Check("abc1"))
	require.Equal(t, []string{"missing_digit"}, r.Check("abcdefgh"))
	require.Equal(t, []string{"blacklisted"}, r.Check("Password1"))
}

func TestLoadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bl.txt")
	require.NoError(t, os.WriteFile(path, []byte("# common\nQwerty123\n\nletmein\n"), 0o600))

	bl, err := LoadBlacklist(path)
	require.NoError(t, err)
	require.Len(t, bl, 2)
	require.Contains(t, bl, "qwerty123")

	bl, err = LoadBlacklist("")
	require.NoError(t, err)
	require.Empty(t, bl)
}
