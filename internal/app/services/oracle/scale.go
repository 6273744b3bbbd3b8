package oracle

import (
	"fmt"
	"math"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

// Scale declares the native numeric range of an oracle's raw output. The
// conversion to basis points is fixed per oracle configuration, never
// inferred per call.
type Scale string

const (
	// ScaleUnit means the oracle reports a 0-1 fraction.
	ScaleUnit Scale = "unit"
	// ScalePercent means the oracle reports a 0-100 percentage.
	ScalePercent Scale = "percent"
)

// ParseScale validates a configured scale name.
func ParseScale(raw string) (Scale, error) {
	switch Scale(raw) {
	case ScaleUnit, ScalePercent:
		return Scale(raw), nil
	default:
		return "", fmt.Errorf("unknown oracle scale %q", raw)
	}
}

// Contains reports whether raw lies inside the declared native range.
func (s Scale) Contains(raw float64) bool {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return false
	}
	switch s {
	case ScaleUnit:
		return raw >= 0 && raw <= 1
	case ScalePercent:
		return raw >= 0 && raw <= 100
	default:
		return false
	}
}

// Normalize converts an in-range raw value to basis points using the scale's
// fixed multiplier.
func (s Scale) Normalize(raw float64) verification.Score {
	var multiplier float64
	switch s {
	case ScaleUnit:
		multiplier = verification.ScoreMax
	case ScalePercent:
		multiplier = verification.ScoreMax / 100
	}
	return verification.Score(math.Round(raw * multiplier))
}
