package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCrossing is the domain prefix for crossing identity hashes.
// The version suffix enables future algorithm migration.
const DomainCrossing = "scrolldepth/crossing/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CrossingID computes the content-addressed identity of a crossing.
//
// Depth and Seq are excluded: a label fires at most once per (instance,
// epoch), so the same logical crossing gets the same ID even if the
// geometry that produced its depth has since changed.
func CrossingID(instance string, epoch int64, label string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"instance": instance,
		"epoch":    epoch,
		"label":    label,
	})
	if err != nil {
		return "", fmt.Errorf("CrossingID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCrossing, canonical), nil
}

// MustCrossingID is like CrossingID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCrossingID(instance string, epoch int64, label string) string {
	id, err := CrossingID(instance, epoch, label)
	if err != nil {
		panic(err)
	}
	return id
}
