// Package app wires the verifier's services together.
package app

import (
	"fmt"
	"net/http"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/httpapi"
	oraclesvc "github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/oracle"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/services/settlement"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage/memory"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/config"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/ledger"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

// Deps are the injectable collaborators. Nil fields default: the store to
// the in-memory implementation, the gateway to RPC when configured and stub
// otherwise, the oracle to the HTTP client built from configuration.
type Deps struct {
	Oracle  settlement.Oracle
	Gateway ledger.Gateway
	Store   storage.VerificationStore
}

// Application ties the verifier services together.
type Application struct {
	Settlement *settlement.Service
	Store      storage.VerificationStore
	Gateway    ledger.Gateway

	log *logger.Logger
}

// New builds a fully initialised application from configuration.
func New(cfg *config.Config, deps Deps, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if deps.Store == nil {
		deps.Store = memory.New()
	}

	if deps.Gateway == nil {
		gateway, err := buildGateway(cfg, log)
		if err != nil {
			return nil, err
		}
		deps.Gateway = gateway
	}

	if deps.Oracle == nil {
		scale, err := oraclesvc.ParseScale(cfg.Oracle.Scale)
		if err != nil {
			return nil, err
		}
		client, err := oraclesvc.NewClient(nil, oraclesvc.Config{
			Endpoint: cfg.Oracle.Endpoint,
			APIKey:   cfg.Oracle.APIKey,
			Model:    cfg.Oracle.Model,
			Prompt:   cfg.Oracle.Prompt,
			Scale:    scale,
			Timeout:  cfg.Oracle.Timeout.Std(),
		}, log.WithField("component", "oracle-client"))
		if err != nil {
			return nil, fmt.Errorf("build oracle client: %w", err)
		}
		deps.Oracle = client
	}

	svc, err := settlement.New(deps.Oracle, deps.Gateway, deps.Store, settlement.Config{
		Threshold:     verification.Score(cfg.Verification.MinScoreThreshold),
		Price:         cfg.Verification.Price,
		Writer:        cfg.Ledger.WriterAccount,
		AutoRemediate: cfg.Ledger.AutoRemediate,
	}, log.WithField("component", "settlement"))
	if err != nil {
		return nil, fmt.Errorf("build settlement service: %w", err)
	}

	return &Application{
		Settlement: svc,
		Store:      deps.Store,
		Gateway:    deps.Gateway,
		log:        log,
	}, nil
}

// Handler returns the application's HTTP surface.
func (a *Application) Handler() http.Handler {
	return httpapi.NewHandler(a.Settlement, a.Store)
}

// buildGateway selects RPC or stub mode. Stub mode is a connectivity
// posture for missing endpoint or contract configuration, never a response
// to authorization problems.
func buildGateway(cfg *config.Config, log *logger.Logger) (ledger.Gateway, error) {
	lc := cfg.Ledger
	if lc.RPCURL == "" || lc.TokenContract == "" || lc.RegistryContract == "" {
		return ledger.NewStubGateway(log.WithField("component", "ledger-stub")), nil
	}

	client, err := ledger.NewClient(ledger.ClientConfig{
		RPCURL:  lc.RPCURL,
		Timeout: lc.Timeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("build ledger client: %w", err)
	}
	gateway, err := ledger.NewRPCGateway(client, ledger.RPCGatewayConfig{
		Token:    lc.TokenContract,
		Registry: lc.RegistryContract,
		Writer:   lc.WriterAccount,
	})
	if err != nil {
		return nil, fmt.Errorf("build ledger gateway: %w", err)
	}
	return gateway, nil
}
