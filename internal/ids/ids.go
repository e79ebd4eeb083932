package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewHexID generates a hex-based ID with a prefix (used for attachments).
// Format: "prefix_hexstring" (e.g., "att_a1b2c3d4e5f6...")
func NewHexID(prefix string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// NewPublicID generates a human-readable public ID with a prefix
// (used for projects, tasks, RFIs, submittals, factories, clients).
// Format: "prefix-12345-6789" (e.g., "proj-12345-6789")
func NewPublicID(prefix string) (string, error) {
	a, err := randInt(10000, 99999)
	if err != nil {
		return "", err
	}
	b, err := randInt(1000, 9999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%05d-%04d", prefix, a, b), nil
}

func randInt(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}
