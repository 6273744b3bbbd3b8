// Package settlement coordinates a verification from raw bytes to an
// assembled result: fingerprinting, scoring, verdict, the optional payment
// precondition, and the optional ledger append with its degradation policy.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/metrics"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/oracle"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/ledger"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

// Oracle is the scoring collaborator. Score performs exactly one network
// call and returns the raw value in the oracle's declared native range.
type Oracle interface {
	ID() verification.OracleID
	Scale() oracle.Scale
	Score(ctx context.Context, image []byte) (float64, error)
	Explain(ctx context.Context, image []byte, score verification.Score, verdict bool) (string, error)
}

// Options selects the settlement path for one submission.
type Options struct {
	// RequireLedgerWrite requests a durable record on the ledger.
	RequireLedgerWrite bool
	// Payer, when set, routes the write through the paid-append path with a
	// fee debited from this identity. Empty means a direct write by the
	// configured verifier account.
	Payer string
	// Detailed requests a free-text explanation alongside the verdict.
	Detailed bool
}

// Config carries the decision and pricing policy.
type Config struct {
	// Threshold is the minimum score judged synthetic, in basis points.
	Threshold verification.Score
	// Price is the fee for a paid ledger-backed verification.
	Price int64
	// Writer is the acting identity for direct ledger writes.
	Writer string
	// AutoRemediate permits a single mint-and-approve attempt when a payer
	// fails the payment precondition. Requires token admin privilege on the
	// writer account; off by default.
	AutoRemediate bool
}

// Service is the settlement orchestrator. Each Verify call is an independent
// stateless execution; the only shared mutable state is the external ledger,
// which is re-queried fresh on every check.
type Service struct {
	oracle  Oracle
	gateway ledger.Gateway
	store   storage.VerificationStore
	log     *logger.Logger
	cfg     Config
}

// New constructs the orchestrator. The store is optional; a nil store skips
// audit logging.
func New(o Oracle, gateway ledger.Gateway, store storage.VerificationStore, cfg Config, log *logger.Logger) (*Service, error) {
	if o == nil {
		return nil, fmt.Errorf("oracle required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("ledger gateway required")
	}
	if !cfg.Threshold.Valid() {
		return nil, fmt.Errorf("threshold %d outside [0, %d]", cfg.Threshold, verification.ScoreMax)
	}
	if cfg.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if log == nil {
		log = logger.NewDefault("settlement")
	}
	return &Service{oracle: o, gateway: gateway, store: store, log: log, cfg: cfg}, nil
}

// Verify runs the full state machine for one submission. Classified faults
// abort with no ledger side effects; ledger unavailability and duplicate
// records are recovered locally and reflected in the result.
func (s *Service) Verify(ctx context.Context, image []byte, opts Options) (verification.Result, error) {
	start := time.Now()

	result, err := s.verify(ctx, image, opts)
	metrics.RecordVerification(outcomeLabel(result, err), time.Since(start))
	if err != nil {
		return verification.Result{}, err
	}

	s.audit(ctx, result, opts)
	return result, nil
}

func (s *Service) verify(ctx context.Context, image []byte, opts Options) (verification.Result, error) {
	// Fingerprinting
	fp, err := verification.FingerprintBytes(image)
	if err != nil {
		return verification.Result{}, err
	}

	// Scoring: exactly one oracle call, no internal retry.
	raw, err := s.oracle.Score(ctx, image)
	if err != nil {
		metrics.RecordOracleFault()
		s.log.WithError(err).WithField("content_fingerprint", fp).Error("oracle scoring failed")
		if errors.Is(err, verification.ErrOracleFault) {
			return verification.Result{}, err
		}
		return verification.Result{}, verification.NewOracleFault("scoring failed", "", err)
	}

	scale := s.oracle.Scale()
	if !scale.Contains(raw) {
		// The neutral midpoint appears in logs for continuity only; an
		// out-of-range value is an oracle fault, never a reportable score.
		metrics.RecordOracleFault()
		s.log.WithField("raw_value", raw).
			WithField("declared_scale", string(scale)).
			WithField("neutral_score", verification.ScoreMax/2).
			Error("oracle returned value outside declared range")
		return verification.Result{}, verification.NewOracleFault(
			fmt.Sprintf("value outside declared %s range", scale), fmt.Sprintf("%v", raw), nil)
	}

	// Evaluating
	score := scale.Normalize(raw)
	verdict := verification.Evaluate(score, s.cfg.Threshold)

	result := verification.Result{
		Fingerprint: fp,
		OracleID:    s.oracle.ID(),
		Score:       score,
		Verdict:     verdict,
		SubmittedAt: time.Now().UTC().Unix(),
	}

	// PayingPrecondition and Recording
	if opts.RequireLedgerWrite {
		if err := s.record(ctx, &result, opts); err != nil {
			return verification.Result{}, err
		}
	}

	// Assembling: enrichment must not block or alter the verdict.
	if opts.Detailed {
		explanation, err := s.oracle.Explain(ctx, image, score, verdict)
		if err != nil {
			s.log.WithError(err).WithField("content_fingerprint", fp).Warn("explanation unavailable")
		} else {
			result.Explanation = explanation
		}
	}

	return result, nil
}

// record drives the PayingPrecondition and Recording states, mutating the
// result with the receipt or duplicate information.
func (s *Service) record(ctx context.Context, result *verification.Result, opts Options) error {
	rec := verification.Record{
		Fingerprint: result.Fingerprint,
		OracleID:    result.OracleID,
		Score:       result.Score,
		Verdict:     result.Verdict,
		SubmittedAt: result.SubmittedAt,
		RecordedBy:  s.cfg.Writer,
	}

	paid := opts.Payer != ""
	if paid {
		rec.RecordedBy = opts.Payer
		if err := s.checkPayment(ctx, opts.Payer); err != nil {
			if errors.Is(err, ledger.ErrUnavailable) {
				s.degrade(result, err)
				return nil
			}
			return err
		}
	} else {
		authorized, err := s.gateway.IsAuthorizedWriter(ctx, s.cfg.Writer)
		if err != nil {
			if errors.Is(err, ledger.ErrUnavailable) {
				s.degrade(result, err)
				return nil
			}
			return fmt.Errorf("check writer authorization: %w", err)
		}
		if !authorized {
			// Authorization failure is never masked by stub mode.
			return verification.NewNotAuthorized(s.cfg.Writer)
		}
	}

	exists, err := s.gateway.RecordExists(ctx, result.Fingerprint)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			s.degrade(result, err)
			return nil
		}
		return fmt.Errorf("check record existence: %w", err)
	}
	if exists {
		s.markDuplicate(ctx, result)
		return nil
	}

	var receipt verification.Receipt
	if paid {
		receipt, err = s.gateway.AppendRecordWithPayment(ctx, rec, opts.Payer, s.cfg.Price)
	} else {
		receipt, err = s.gateway.AppendRecord(ctx, rec)
	}
	switch {
	case err == nil:
		result.Receipt = &receipt
		s.log.WithField("content_fingerprint", result.Fingerprint).
			WithField("tx_id", receipt.TxID).
			WithField("block_number", receipt.BlockNumber).
			Info("verification recorded on ledger")
		return nil
	case errors.Is(err, ledger.ErrDuplicateRecord):
		// Lost the append race to a concurrent identical submission; the
		// ledger's rejection is the correctness mechanism, not a failure.
		s.markDuplicate(ctx, result)
		return nil
	case errors.Is(err, ledger.ErrUnavailable):
		s.degrade(result, err)
		return nil
	case errors.Is(err, ledger.ErrNotAuthorized):
		return verification.NewNotAuthorized(rec.RecordedBy)
	case errors.Is(err, ledger.ErrInsufficient):
		// Balance moved between the precondition check and the debit.
		return s.paymentFault(ctx, opts.Payer)
	default:
		return fmt.Errorf("append record: %w", err)
	}
}

// checkPayment verifies balance and allowance freshly, remediating at most
// once when configured, then re-checking exactly once.
func (s *Service) checkPayment(ctx context.Context, payer string) error {
	short, err := s.paymentShortfall(ctx, payer)
	if err != nil {
		return err
	}
	if short == nil {
		return nil
	}

	if !s.cfg.AutoRemediate {
		return short
	}

	s.log.WithField("payer", payer).
		WithField("required", short.Required).
		WithField("balance", short.Balance).
		WithField("allowance", short.Allowance).
		Warn("payment precondition failed; attempting one remediation")

	if short.Balance < short.Required {
		if err := s.gateway.Mint(ctx, payer, short.Required-short.Balance); err != nil {
			return fmt.Errorf("remediation mint: %w", err)
		}
	}
	if short.Allowance < short.Required {
		if err := s.gateway.Approve(ctx, payer, s.gateway.RegistryAddress(), short.Required); err != nil {
			return fmt.Errorf("remediation approve: %w", err)
		}
	}

	// One re-check, never a loop.
	short, err = s.paymentShortfall(ctx, payer)
	if err != nil {
		return err
	}
	if short != nil {
		return short
	}
	return nil
}

// paymentShortfall returns a PaymentPrecondition fault when the payer cannot
// cover the price, nil when the precondition holds.
func (s *Service) paymentShortfall(ctx context.Context, payer string) (*verification.Fault, error) {
	balance, err := s.gateway.GetBalance(ctx, payer)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	allowance, err := s.gateway.GetAllowance(ctx, payer, s.gateway.RegistryAddress())
	if err != nil {
		return nil, fmt.Errorf("get allowance: %w", err)
	}
	if balance < s.cfg.Price || allowance < s.cfg.Price {
		return verification.NewPaymentPrecondition(s.cfg.Price, balance, allowance), nil
	}
	return nil, nil
}

func (s *Service) paymentFault(ctx context.Context, payer string) error {
	short, err := s.paymentShortfall(ctx, payer)
	if err == nil && short != nil {
		return short
	}
	return verification.NewPaymentPrecondition(s.cfg.Price, 0, 0)
}

// degrade switches the Recording state into stub mode after a connectivity
// failure: the scoring result stays valid, durability is visibly absent.
func (s *Service) degrade(result *verification.Result, cause error) {
	metrics.RecordStubFallback()
	receipt := ledger.StubReceipt(result.Fingerprint)
	result.Receipt = &receipt
	s.log.WithError(cause).
		WithField("content_fingerprint", result.Fingerprint).
		WithField("tx_id", receipt.TxID).
		Warn("ledger unreachable; returning degraded receipt")
}

// markDuplicate records that a prior ledger record exists for the same
// fingerprint. The fresh score and verdict are still returned; only the
// durable write was skipped.
func (s *Service) markDuplicate(ctx context.Context, result *verification.Result) {
	result.Duplicate = true
	existing, err := s.gateway.ReadRecord(ctx, result.Fingerprint)
	if err != nil {
		s.log.WithError(err).WithField("content_fingerprint", result.Fingerprint).
			Warn("existing record could not be read")
	} else {
		result.Existing = &existing
	}
	s.log.WithField("content_fingerprint", result.Fingerprint).
		Info("record already on ledger; durable write skipped")
}

// GetRecord reads a durable record from the ledger.
func (s *Service) GetRecord(ctx context.Context, fp verification.Fingerprint) (verification.Record, error) {
	if !fp.Valid() {
		return verification.Record{}, verification.NewInvalidInput(fmt.Sprintf("malformed fingerprint %q", fp))
	}
	return s.gateway.ReadRecord(ctx, fp)
}

// Healthy probes the ledger connection.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.gateway.Connect(ctx) == nil
}

func (s *Service) audit(ctx context.Context, result verification.Result, opts Options) {
	if s.store == nil {
		return
	}
	entry := verification.Entry{
		Fingerprint: result.Fingerprint,
		OracleID:    result.OracleID,
		Score:       result.Score,
		Verdict:     result.Verdict,
		SubmittedAt: result.SubmittedAt,
		Duplicate:   result.Duplicate,
		Payer:       opts.Payer,
	}
	if result.Receipt != nil {
		entry.TxID = result.Receipt.TxID
		entry.BlockNumber = result.Receipt.BlockNumber
		entry.Degraded = result.Receipt.Degraded
	}
	if _, err := s.store.SaveVerification(ctx, entry); err != nil {
		s.log.WithError(err).WithField("content_fingerprint", result.Fingerprint).
			Warn("failed to persist verification audit entry")
	}
}

func outcomeLabel(result verification.Result, err error) string {
	var fault *verification.Fault
	switch {
	case errors.As(err, &fault):
		return string(fault.Kind)
	case err != nil:
		return "error"
	case result.Duplicate:
		return "duplicate"
	case result.Receipt != nil && result.Receipt.Degraded:
		return "degraded"
	default:
		return "ok"
	}
}
