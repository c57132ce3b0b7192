package drand_test

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/model/drand"
)

func TestBeaconJSON(t *testing.T) {
	raw := `{"round":42,"randomness":"0a0b","signature":"c0ffee","previous_signature":""}`

	var b drand.Beacon
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, uint64(42), b.GetRound())
	assert.Equal(t, []byte{0x0a, 0x0b}, []byte(b.Randomness))
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, b.GetSignature())
	assert.Empty(t, b.GetPreviousSignature())

	err := json.Unmarshal([]byte(`{"round":1,"randomness":"zz"}`), &b)
	require.Error(t, err)
}

func TestBeaconCheckRandomness(t *testing.T) {
	sig := []byte("some signature bytes")
	digest := sha256.Sum256(sig)

	b := drand.Beacon{Round: 7, Signature: sig, Randomness: digest[:]}
	require.NoError(t, b.CheckRandomness())

	b.Randomness = append([]byte{}, digest[:]...)
	b.Randomness[0] ^= 0xff
	require.Error(t, b.CheckRandomness())

	b.Randomness = digest[:16]
	require.Error(t, b.CheckRandomness())
}
