package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/contentstore/ipfs"
	"vaultledger/internal/contentstore/memory"
	"vaultledger/internal/credential"
	"vaultledger/internal/credential/signer"
	jwttoken "vaultledger/internal/jwt_token"
	"vaultledger/internal/ledger"
	"vaultledger/internal/ledger/anchortable"
	"vaultledger/internal/ledger/chain"
	"vaultledger/internal/ledger/fabric"
	"vaultledger/internal/ledger/memchain"
	"vaultledger/internal/platform/config"
	"vaultledger/internal/platform/health"
	"vaultledger/internal/platform/metrics"
	"vaultledger/internal/platform/storage"
	"vaultledger/internal/platform/tracer"
	"vaultledger/internal/proof"
	"vaultledger/internal/proof/backend"
	"vaultledger/internal/record/handler"
	"vaultledger/internal/record/service"
	"vaultledger/internal/record/store"
	"vaultledger/internal/record/workers/confirmation"
	"vaultledger/internal/record/workers/expiry"
	"vaultledger/internal/vault"
	id "vaultledger/pkg/domain"
	"vaultledger/pkg/platform/audit"
	"vaultledger/pkg/platform/audit/publisher"
	auditpebble "vaultledger/pkg/platform/audit/store/pebble"
	"vaultledger/pkg/platform/circuit"
)

// application holds the wired components main needs after startup.
type application struct {
	records       *handler.Handler
	health        *health.Handler
	jwt           *jwttoken.JWTServiceAdapter
	confirmations *confirmation.Worker
	sweeper       *expiry.Sweeper

	closers []func()
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(cfg config.Config, log *slog.Logger, m *metrics.Metrics) (*application, error) {
	app := &application{health: health.New(cfg.Server.Environment, health.WithLogger(log))}
	ready := false
	defer func() {
		if !ready {
			app.close()
		}
	}()

	db, err := storage.Open(storage.Config{Path: cfg.Storage.Path, SyncWrites: cfg.Storage.SyncWrites})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app.closers = append(app.closers, func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	})
	app.health.RegisterCheck("storage", func(context.Context) error { return db.Health() })

	auditPublisher := publisher.NewPublisher(auditpebble.New(db),
		publisher.WithAsyncBuffer(256),
		publisher.WithPublisherLogger(log),
	)
	app.closers = append(app.closers, auditPublisher.Close)
	auditor := audit.NewLogger(log, auditPublisher)

	content, err := buildContentStore(cfg.ContentStore, log, m, app)
	if err != nil {
		return nil, err
	}

	anchor, err := buildLedger(cfg.Ledger, db, log, m, app)
	if err != nil {
		return nil, err
	}

	verifier, statements, err := buildVerifier(cfg.Verifier, log, m)
	if err != nil {
		return nil, err
	}

	issuerKey, err := loadIssuerKey(cfg.Issuer)
	if err != nil {
		return nil, err
	}

	alg, err := vault.ParseAlgorithm(cfg.Vault.Algorithm)
	if err != nil {
		return nil, err
	}

	var tr tracer.Tracer = tracer.NewNoop()
	if cfg.Server.Tracing {
		tr = tracer.NewOTel()
	}

	records, err := service.New(service.Dependencies{
		Records:    store.NewPebbleStore(db),
		Vault:      vault.New(vault.WithAlgorithm(alg)),
		Content:    content,
		Ledger:     anchor,
		Issuer:     credential.NewIssuer(signer.Default()),
		Verifier:   verifier,
		Statements: statements,
	}, service.Config{
		IssuerKey:      issuerKey,
		ConfirmTimeout: cfg.Ledger.ConfirmTimeout,
	},
		service.WithAuditor(auditor),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(tr),
	)
	if err != nil {
		return nil, err
	}
	app.records = handler.New(records, log)

	app.confirmations, err = confirmation.New(anchor, records,
		confirmation.WithInterval(cfg.Workers.ConfirmationInterval),
		confirmation.WithConcurrency(cfg.Workers.ConfirmationConcurrency),
		confirmation.WithMetrics(m),
		confirmation.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	app.sweeper, err = expiry.New(records,
		expiry.WithInterval(cfg.Workers.ExpiryInterval),
		expiry.WithBatchSize(cfg.Workers.ExpiryBatchSize),
		expiry.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(
		cfg.Server.TokenSigningKey,
		cfg.Server.TokenIssuer,
		cfg.Server.TokenAudience,
		cfg.Server.TokenTTL,
	)
	app.jwt = jwttoken.NewJWTServiceAdapter(jwtService)

	ready = true
	return app, nil
}

func buildContentStore(cfg config.ContentStore, log *slog.Logger, m *metrics.Metrics, app *application) (*contentstore.Client, error) {
	hf, err := contentstore.ParseHashFunc(cfg.HashFunc)
	if err != nil {
		return nil, err
	}

	var be contentstore.Backend
	switch cfg.Backend {
	case "ipfs":
		node := ipfs.New(cfg.IPFSURL, hf, cfg.Timeout)
		app.health.RegisterOptionalCheck("content_store", func(context.Context) error {
			if !node.Healthy() {
				return errors.New("ipfs node unreachable")
			}
			return nil
		})
		if !node.Healthy() {
			log.Warn("ipfs node not reachable at startup", "url", cfg.IPFSURL)
		}
		be = node
	default:
		log.Warn("using in-memory content store; blobs do not survive restarts")
		be = memory.New(hf)
	}

	breaker := circuit.New("content_store",
		circuit.WithFailureThreshold(cfg.BreakerThreshold),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	return contentstore.New(be,
		contentstore.WithHashFunc(hf),
		contentstore.WithBreaker(breaker),
		contentstore.WithLogger(log),
		contentstore.WithMetrics(m),
	), nil
}

func buildLedger(cfg config.Ledger, db *storage.Storage, log *slog.Logger, m *metrics.Metrics, app *application) (*ledger.Anchor, error) {
	var client chain.Client
	switch cfg.Backend {
	case "fabric":
		fc, closeSDK, err := fabric.Connect(fabric.SDKConfig{
			ConfigPath:  cfg.Fabric.ConfigPath,
			ChannelID:   cfg.Fabric.ChannelID,
			ChaincodeID: cfg.Fabric.ChaincodeID,
			Org:         cfg.Fabric.Org,
			User:        cfg.Fabric.User,
			Timeout:     cfg.ConfirmTimeout,
		})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, closeSDK)
		client = fc
	default:
		log.Warn("using in-process ledger; anchors do not survive restarts")
		client = memchain.New()
	}

	app.health.RegisterCheck("ledger", func(ctx context.Context) error {
		_, err := client.GetTransactionCount(ctx, cfg.Address)
		return err
	})

	return ledger.New(client, anchortable.NewPebble(db), ledger.Config{
		Address:        cfg.Address,
		Backoff:        cfg.Backoff,
		ConfirmTimeout: cfg.ConfirmTimeout,
	},
		ledger.WithLogger(log),
		ledger.WithMetrics(m),
	), nil
}

func buildVerifier(cfg config.Verifier, log *slog.Logger, m *metrics.Metrics) (*proof.Verifier, *proof.Catalogue, error) {
	be, err := backend.NewHTTP(backend.HTTPConfig{
		BaseURL: cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	verifier, err := proof.New(be, proof.WithLogger(log), proof.WithMetrics(m))
	if err != nil {
		return nil, nil, err
	}

	statements, err := proof.NewCatalogue()
	if err != nil {
		return nil, nil, err
	}
	if cfg.CataloguePath != "" {
		statements, err = proof.LoadCatalogueFile(cfg.CataloguePath)
		if err != nil {
			return nil, nil, fmt.Errorf("load statement catalogue: %w", err)
		}
	}
	log.Info("statement catalogue loaded", "statements", statements.Len())
	return verifier, statements, nil
}

func loadIssuerKey(cfg config.Issuer) (credential.IssuerKey, error) {
	alg, err := signer.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return credential.IssuerKey{}, err
	}

	encoded := cfg.PrivateKeyHex
	if cfg.PrivateKeyFile != "" {
		raw, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return credential.IssuerKey{}, fmt.Errorf("read issuer key: %w", err)
		}
		encoded = string(raw)
	}
	priv, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return credential.IssuerKey{}, fmt.Errorf("issuer key must be hex: %w", err)
	}

	sg, err := signer.Default().Get(alg)
	if err != nil {
		return credential.IssuerKey{}, err
	}
	pub, err := sg.PublicKey(priv)
	if err != nil {
		return credential.IssuerKey{}, fmt.Errorf("derive issuer public key: %w", err)
	}

	issuerID, err := id.ParseIssuerID(cfg.ID)
	if err != nil {
		return credential.IssuerKey{}, err
	}

	return credential.IssuerKey{
		IssuerID:   issuerID.String(),
		KeyID:      cfg.KeyID,
		Algorithm:  alg,
		PrivateKey: priv,
		PublicKey:  pub,
	}, nil
}
