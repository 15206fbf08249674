package optin

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeApplicationServerKey(t *testing.T) {
	// 65 bytes like an uncompressed P-256 point, chosen to produce '-' and '_'.
	raw := make([]byte, 65)
	raw[0] = 0x04
	for i := 1; i < len(raw); i++ {
		raw[i] = byte(0xf8 + i%8)
	}
	key := base64.RawURLEncoding.EncodeToString(raw)
	require.Contains(t, key, "-")

	decoded, err := DecodeApplicationServerKey(key)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeApplicationServerKey_AlreadyPadded(t *testing.T) {
	decoded, err := DecodeApplicationServerKey("AQID")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, decoded)

	decoded, err = DecodeApplicationServerKey("AQ")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, decoded)
}

func TestDecodeApplicationServerKey_Invalid(t *testing.T) {
	_, err := DecodeApplicationServerKey("not*base64")
	assert.Error(t, err)
}
