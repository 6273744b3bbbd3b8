package verification

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HexPrefix precedes every fingerprint and oracle identifier.
const HexPrefix = "0x"

// Fingerprint is a content-derived identifier: HexPrefix followed by the
// 64-character hex encoding of a sha256 digest of the raw submitted bytes.
type Fingerprint string

// OracleID names the scoring model configuration that produced a score. It
// has the same shape as a Fingerprint and is derived from the model name.
type OracleID string

// FingerprintBytes computes the fingerprint of raw content. Identical byte
// sequences always yield identical fingerprints. Empty input is rejected.
func FingerprintBytes(data []byte) (Fingerprint, error) {
	if len(data) == 0 {
		return "", NewInvalidInput("empty submission")
	}
	sum := sha256.Sum256(data)
	return Fingerprint(HexPrefix + hex.EncodeToString(sum[:])), nil
}

// OracleIDFor derives the stable identifier for a model name.
func OracleIDFor(model string) OracleID {
	sum := sha256.Sum256([]byte(model))
	return OracleID(HexPrefix + hex.EncodeToString(sum[:]))
}

// Valid reports whether the fingerprint has the canonical shape.
func (f Fingerprint) Valid() bool { return validHexID(string(f)) }

// Valid reports whether the oracle identifier has the canonical shape.
func (o OracleID) Valid() bool { return validHexID(string(o)) }

func validHexID(s string) bool {
	if !strings.HasPrefix(s, HexPrefix) {
		return false
	}
	body := s[len(HexPrefix):]
	if len(body) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
