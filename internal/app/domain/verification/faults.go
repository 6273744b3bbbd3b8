package verification

import "fmt"

// FaultKind classifies a verification failure for callers.
type FaultKind string

const (
	// KindInvalidInput marks caller errors: empty or unusable submissions.
	KindInvalidInput FaultKind = "invalid_input"
	// KindOracle marks an unreachable scoring service or an unusable score.
	KindOracle FaultKind = "oracle_fault"
	// KindPaymentPrecondition marks insufficient payer balance or allowance.
	KindPaymentPrecondition FaultKind = "payment_precondition"
	// KindNotAuthorized marks a write attempt by an unauthorised identity.
	KindNotAuthorized FaultKind = "not_authorized"
	// KindDuplicateRecord marks a ledger that already holds this fingerprint.
	KindDuplicateRecord FaultKind = "duplicate_record"
)

// Retryable reports whether the caller may usefully retry the same request.
func (k FaultKind) Retryable() bool { return k == KindOracle }

// Fault is a classified verification error. Kind drives caller behaviour;
// Detail and the optional value fields carry the offending values so the
// caller can tell a transient condition from a misconfigured request.
type Fault struct {
	Kind   FaultKind
	Detail string

	// RawValue holds the literal oracle output for KindOracle parse faults.
	RawValue string
	// Required, Balance and Allowance are populated for
	// KindPaymentPrecondition so the caller can see the exact shortfall.
	Required  int64
	Balance   int64
	Allowance int64

	cause error
}

func (f *Fault) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
	}
	return string(f.Kind)
}

func (f *Fault) Unwrap() error { return f.cause }

// Is matches faults by kind so sentinel comparison via errors.Is works.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Kind == f.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput        = &Fault{Kind: KindInvalidInput}
	ErrOracleFault         = &Fault{Kind: KindOracle}
	ErrPaymentPrecondition = &Fault{Kind: KindPaymentPrecondition}
	ErrNotAuthorized       = &Fault{Kind: KindNotAuthorized}
	ErrDuplicateRecord     = &Fault{Kind: KindDuplicateRecord}
)

// NewInvalidInput builds a caller-error fault.
func NewInvalidInput(detail string) *Fault {
	return &Fault{Kind: KindInvalidInput, Detail: detail}
}

// NewOracleFault builds an oracle fault carrying the literal offending value.
func NewOracleFault(detail, rawValue string, cause error) *Fault {
	return &Fault{Kind: KindOracle, Detail: detail, RawValue: rawValue, cause: cause}
}

// NewPaymentPrecondition builds a payment fault with the observed shortfall.
func NewPaymentPrecondition(required, balance, allowance int64) *Fault {
	detail := fmt.Sprintf("required %d, balance %d, allowance %d", required, balance, allowance)
	return &Fault{
		Kind:      KindPaymentPrecondition,
		Detail:    detail,
		Required:  required,
		Balance:   balance,
		Allowance: allowance,
	}
}

// NewNotAuthorized builds an authorization fault for the acting identity.
func NewNotAuthorized(identity string) *Fault {
	return &Fault{Kind: KindNotAuthorized, Detail: fmt.Sprintf("identity %s is not an authorized writer", identity)}
}
