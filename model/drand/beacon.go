package drand

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RandomnessLength is the size of the randomness carried by every beacon.
const RandomnessLength = sha256.Size

// Beacon is a single round of drand randomness.
type Beacon struct {
	Round             uint64   `json:"round"`
	Randomness        HexBytes `json:"randomness"`
	Signature         HexBytes `json:"signature"`
	PreviousSignature HexBytes `json:"previous_signature,omitempty"`
}

func (b *Beacon) GetRound() uint64 {
	return b.Round
}

func (b *Beacon) GetSignature() []byte {
	return b.Signature
}

func (b *Beacon) GetPreviousSignature() []byte {
	return b.PreviousSignature
}

// CheckRandomness verifies that the randomness is the sha256 digest of the
// signature, which holds for every drand scheme.
func (b *Beacon) CheckRandomness() error {
	if len(b.Randomness) != RandomnessLength {
		return fmt.Errorf("randomness of round %d has length %d, expected %d", b.Round, len(b.Randomness), RandomnessLength)
	}
	digest := sha256.Sum256(b.Signature)
	if !bytes.Equal(digest[:], b.Randomness) {
		return fmt.Errorf("randomness of round %d does not match its signature", b.Round)
	}
	return nil
}

// HexBytes is a byte slice encoded in JSON as a hex string without 0x prefix,
// the format used by the drand HTTP API.
type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex bytes must be a string: %w", err)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	*h = b
	return nil
}
