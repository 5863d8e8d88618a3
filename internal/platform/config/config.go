// Package config builds the server configuration from the environment.
// Everything is read once at startup into an explicit struct; nothing here is
// a process-wide mutable global.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential/signer"
	"vaultledger/internal/ledger"
	"vaultledger/internal/vault"
	"vaultledger/pkg/platform/validation"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// Actor tokens authenticate API callers.
	TokenSigningKey string
	TokenIssuer     string
	TokenAudience   string
	TokenTTL        time.Duration
	Tracing         bool
}

// Vault selects the envelope algorithm for new records.
type Vault struct {
	Algorithm string
}

// ContentStore configures the blob backend.
type ContentStore struct {
	Backend          string // ipfs | memory
	IPFSURL          string
	HashFunc         string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Fabric locates the Fabric network used when Ledger.Backend is "fabric".
type Fabric struct {
	ConfigPath  string
	ChannelID   string
	ChaincodeID string
	Org         string
	User        string
}

// Ledger configures anchor submission and confirmation.
type Ledger struct {
	Backend        string // fabric | memchain
	Address        string
	ConfirmTimeout time.Duration
	Backoff        ledger.BackoffConfig
	Fabric         Fabric
}

// Verifier configures the proof backend and statement catalogue.
type Verifier struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	CataloguePath string
}

// Issuer holds the credential issuer identity and key material.
type Issuer struct {
	ID        string
	KeyID     string
	Algorithm string
	// PrivateKeyHex is the hex private key; PrivateKeyFile is read instead when set.
	PrivateKeyHex  string
	PrivateKeyFile string
}

// Storage configures the local pebble database.
type Storage struct {
	Path       string
	SyncWrites bool
}

// Workers configures background processing.
type Workers struct {
	ConfirmationConcurrency int
	ConfirmationInterval    time.Duration
	ExpiryInterval          time.Duration
	ExpiryBatchSize         int
}

// Config is the full server configuration.
type Config struct {
	Server       Server
	Vault        Vault
	ContentStore ContentStore
	Ledger       Ledger
	Verifier     Verifier
	Issuer       Issuer
	Storage      Storage
	Workers      Workers
}

// FromEnv builds a Config from VAULTLEDGER_* environment variables so main
// stays lean. Malformed numbers and durations fall back to defaults; call
// Validate before use.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("VAULTLEDGER_ADDR", ":8080"),
			Environment:     getEnv("VAULTLEDGER_ENV", "dev"),
			LogLevel:        getEnv("VAULTLEDGER_LOG_LEVEL", "info"),
			RequestTimeout:  getDuration("VAULTLEDGER_REQUEST_TIMEOUT", 60*time.Second),
			MaxBodyBytes:    int64(getInt("VAULTLEDGER_MAX_BODY_BYTES", validation.MaxBodySize)),
			TokenSigningKey: os.Getenv("VAULTLEDGER_TOKEN_SIGNING_KEY"),
			TokenIssuer:     getEnv("VAULTLEDGER_TOKEN_ISSUER", "vaultledger"),
			TokenAudience:   getEnv("VAULTLEDGER_TOKEN_AUDIENCE", "vaultledger-api"),
			TokenTTL:        getDuration("VAULTLEDGER_TOKEN_TTL", 15*time.Minute),
			Tracing:         os.Getenv("VAULTLEDGER_TRACING") == "true",
		},
		Vault: Vault{
			Algorithm: getEnv("VAULTLEDGER_VAULT_ALGORITHM", vault.AES256GCM.String()),
		},
		ContentStore: ContentStore{
			Backend:          getEnv("VAULTLEDGER_CONTENT_BACKEND", "ipfs"),
			IPFSURL:          getEnv("VAULTLEDGER_IPFS_URL", "localhost:5001"),
			HashFunc:         getEnv("VAULTLEDGER_CONTENT_HASH", string(contentstore.SHA256)),
			Timeout:          getDuration("VAULTLEDGER_CONTENT_TIMEOUT", 10*time.Second),
			BreakerThreshold: getInt("VAULTLEDGER_CONTENT_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("VAULTLEDGER_CONTENT_BREAKER_COOLDOWN", 10*time.Second),
		},
		Ledger: Ledger{
			Backend:        getEnv("VAULTLEDGER_LEDGER_BACKEND", "fabric"),
			Address:        getEnv("VAULTLEDGER_LEDGER_ADDRESS", "vaultledger"),
			ConfirmTimeout: getDuration("VAULTLEDGER_CONFIRM_TIMEOUT", ledger.DefaultConfirmTimeout),
			Backoff: ledger.BackoffConfig{
				InitialDelay: getDuration("VAULTLEDGER_BACKOFF_INITIAL", 200*time.Millisecond),
				MaxDelay:     getDuration("VAULTLEDGER_BACKOFF_MAX", 5*time.Second),
				MaxRetries:   getInt("VAULTLEDGER_BACKOFF_RETRIES", 4),
				Multiplier:   getFloat("VAULTLEDGER_BACKOFF_MULTIPLIER", 2.0),
			},
			Fabric: Fabric{
				ConfigPath:  os.Getenv("VAULTLEDGER_FABRIC_CONFIG"),
				ChannelID:   getEnv("VAULTLEDGER_FABRIC_CHANNEL", "mychannel"),
				ChaincodeID: getEnv("VAULTLEDGER_FABRIC_CHAINCODE", "recordanchor"),
				Org:         getEnv("VAULTLEDGER_FABRIC_ORG", "Org1"),
				User:        getEnv("VAULTLEDGER_FABRIC_USER", "User1"),
			},
		},
		Verifier: Verifier{
			URL:           os.Getenv("VAULTLEDGER_VERIFIER_URL"),
			APIKey:        os.Getenv("VAULTLEDGER_VERIFIER_API_KEY"),
			Timeout:       getDuration("VAULTLEDGER_VERIFIER_TIMEOUT", 10*time.Second),
			CataloguePath: os.Getenv("VAULTLEDGER_STATEMENTS_FILE"),
		},
		Issuer: Issuer{
			ID:             os.Getenv("VAULTLEDGER_ISSUER_ID"),
			KeyID:          getEnv("VAULTLEDGER_ISSUER_KEY_ID", "key-1"),
			Algorithm:      getEnv("VAULTLEDGER_ISSUER_ALGORITHM", string(signer.Ed25519)),
			PrivateKeyHex:  os.Getenv("VAULTLEDGER_ISSUER_KEY"),
			PrivateKeyFile: os.Getenv("VAULTLEDGER_ISSUER_KEY_FILE"),
		},
		Storage: Storage{
			Path:       getEnv("VAULTLEDGER_DATA_DIR", "data"),
			SyncWrites: os.Getenv("VAULTLEDGER_SYNC_WRITES") == "true",
		},
		Workers: Workers{
			ConfirmationConcurrency: getInt("VAULTLEDGER_CONFIRM_WORKERS", 4),
			ConfirmationInterval:    getDuration("VAULTLEDGER_CONFIRM_INTERVAL", 15*time.Second),
			ExpiryInterval:          getDuration("VAULTLEDGER_EXPIRY_INTERVAL", time.Minute),
			ExpiryBatchSize:         getInt("VAULTLEDGER_EXPIRY_BATCH", 500),
		},
	}
}

// Validate reports every startup-fatal problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.TokenSigningKey == "" {
		errs = append(errs, errors.New("VAULTLEDGER_TOKEN_SIGNING_KEY is required"))
	}
	if _, err := vault.ParseAlgorithm(c.Vault.Algorithm); err != nil {
		errs = append(errs, err)
	}

	switch c.ContentStore.Backend {
	case "ipfs":
		if c.ContentStore.IPFSURL == "" {
			errs = append(errs, errors.New("VAULTLEDGER_IPFS_URL is required for the ipfs backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown content backend %q", c.ContentStore.Backend))
	}
	if _, err := contentstore.ParseHashFunc(c.ContentStore.HashFunc); err != nil {
		errs = append(errs, err)
	}

	switch c.Ledger.Backend {
	case "fabric":
		if c.Ledger.Fabric.ConfigPath == "" {
			errs = append(errs, errors.New("VAULTLEDGER_FABRIC_CONFIG is required for the fabric backend"))
		}
	case "memchain":
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend))
	}
	if err := c.Ledger.Backoff.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Ledger.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirmation timeout must be positive"))
	}

	if c.Verifier.URL == "" {
		errs = append(errs, errors.New("VAULTLEDGER_VERIFIER_URL is required: proofs are never accepted unchecked"))
	}

	if c.Issuer.ID == "" {
		errs = append(errs, errors.New("VAULTLEDGER_ISSUER_ID is required"))
	}
	if c.Issuer.PrivateKeyHex == "" && c.Issuer.PrivateKeyFile == "" {
		errs = append(errs, errors.New("issuer key is required (VAULTLEDGER_ISSUER_KEY or VAULTLEDGER_ISSUER_KEY_FILE)"))
	}
	if _, err := signer.ParseAlgorithm(c.Issuer.Algorithm); err != nil {
		errs = append(errs, err)
	}

	if c.Workers.ConfirmationConcurrency <= 0 {
		errs = append(errs, errors.New("confirmation worker concurrency must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
