// Package verification defines the value types of the content verification
// domain: fingerprints, scores, verdicts, ledger records and receipts.
package verification

import "time"

// ScoreMax is the upper bound of the canonical score range. Scores are basis
// points: integer hundredths of a percent, 0 meaning certainly real and 10000
// meaning certainly synthetic.
const ScoreMax = 10000

// Score is a synthetic-likelihood value in basis points [0, ScoreMax].
type Score int

// Valid reports whether the score lies inside the canonical range.
func (s Score) Valid() bool { return s >= 0 && s <= ScoreMax }

// Record is the durable unit of work stored on the ledger. Records are
// created exactly once per fingerprint and never mutated.
type Record struct {
	Fingerprint Fingerprint `json:"content_fingerprint"`
	OracleID    OracleID    `json:"oracle_identifier"`
	Score       Score       `json:"score"`
	Verdict     bool        `json:"verdict"`
	SubmittedAt int64       `json:"submitted_at_unix_seconds"`
	RecordedBy  string      `json:"recorded_by,omitempty"`
}

// Receipt acknowledges a ledger append. Degraded receipts are synthesised
// when the ledger is unreachable; they carry a Message explaining that the
// record was not durably stored.
type Receipt struct {
	TxID        string `json:"tx_id"`
	BlockNumber uint64 `json:"block_number"`
	Degraded    bool   `json:"degraded"`
	Message     string `json:"message,omitempty"`
}

// Result is the outward-facing outcome of a verification. Score and Verdict
// are always populated; Receipt is present only when a ledger write was
// requested, Existing only when a prior record for the same fingerprint was
// found.
type Result struct {
	Fingerprint Fingerprint `json:"content_fingerprint"`
	OracleID    OracleID    `json:"oracle_identifier"`
	Score       Score       `json:"score"`
	Verdict     bool        `json:"verdict"`
	SubmittedAt int64       `json:"submitted_at_unix_seconds"`
	Receipt     *Receipt    `json:"ledger_receipt,omitempty"`
	Duplicate   bool        `json:"duplicate,omitempty"`
	Existing    *Record     `json:"existing_record,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
}

// Entry is an audit-log row describing a completed verification. Entries are
// operator-facing telemetry, not the authoritative record; the ledger is.
type Entry struct {
	ID          string      `json:"id"`
	Fingerprint Fingerprint `json:"content_fingerprint"`
	OracleID    OracleID    `json:"oracle_identifier"`
	Score       Score       `json:"score"`
	Verdict     bool        `json:"verdict"`
	SubmittedAt int64       `json:"submitted_at_unix_seconds"`
	TxID        string      `json:"tx_id,omitempty"`
	BlockNumber uint64      `json:"block_number,omitempty"`
	Degraded    bool        `json:"degraded"`
	Duplicate   bool        `json:"duplicate"`
	Payer       string      `json:"payer,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
