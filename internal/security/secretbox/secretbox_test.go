package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(seed byte) []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box, err := New(base64.StdEncoding.EncodeToString(testKey(1)))
	require.NoError(t, err)

	msg := "JBSWY3DPEHPK3PXP"
	ct, err := box.Seal(msg)
	require.NoError(t, err)
	require.NotContains(t, ct, msg)

	pt, err := box.Open(ct)
	require.NoError(t, err)
	require.Equal(t, msg, pt)
}

func TestOpen_DetectsTamper(t *testing.T) {
	box, err := New(hex.EncodeToString(testKey(7)))
	require.NoError(t, err)

	ct, err := box.Seal("top secret")
	require.NoError(t, err)

	parts := strings.Split(ct, "|")
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	bs[0] ^= 0x01
	_, err = box.Open(parts[0] + "|" + base64.StdEncoding.EncodeToString(bs))
	require.Error(t, err)

	_, err = box.Open("garbage")
	require.ErrorIs(t, err, ErrFormat)
}

func TestOpen_WrongKey(t *testing.T) {
	a, err := New(base64.RawStdEncoding.EncodeToString(testKey(1)))
	require.NoError(t, err)
	b, err := New(base64.RawStdEncoding.EncodeToString(testKey(2)))
	require.NoError(t, err)

	ct, err := a.Seal("x")
	require.NoError(t, err)
	_, err = b.Open(ct)
	require.Error(t, err)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("short")
	require.Error(t, err)
}
