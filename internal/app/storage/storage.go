// Package storage defines persistence interfaces for the verifier.
package storage

import (
	"context"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
)

// VerificationStore persists the operator-facing audit log of completed
// verifications. The ledger remains the authoritative record; audit writes
// are best-effort and never fail a request.
type VerificationStore interface {
	SaveVerification(ctx context.Context, entry verification.Entry) (verification.Entry, error)
	GetVerification(ctx context.Context, fingerprint verification.Fingerprint) (verification.Entry, error)
	ListVerifications(ctx context.Context, limit int) ([]verification.Entry, error)
}
