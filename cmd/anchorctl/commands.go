package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"vaultledger/internal/contentstore"
	"vaultledger/internal/credential/signer"
	jwttoken "vaultledger/internal/jwt_token"
	"vaultledger/internal/proof"
	"vaultledger/internal/vault"
)

// devSigningKey only works against a server started with the same
// VAULTLEDGER_TOKEN_SIGNING_KEY.
const devSigningKey = "dev-secret-key-change-in-production"

type keyOutput struct {
	Algorithm  signer.Algorithm `json:"algorithm"`
	PrivateKey string           `json:"private_key"`
	PublicKey  string           `json:"public_key"`
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generate an issuer key pair (hex)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Value: "ed25519", Usage: "ed25519 | bls"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the private key hex to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			alg, err := signer.ParseAlgorithm(c.String("algorithm"))
			if err != nil {
				return err
			}
			sg, err := signer.Default().Get(alg)
			if err != nil {
				return err
			}
			priv, pub, err := sg.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			out := keyOutput{Algorithm: alg, PrivateKey: hex.EncodeToString(priv), PublicKey: hex.EncodeToString(pub)}
			if path := c.String("out"); path != "" {
				if err := os.WriteFile(path, []byte(out.PrivateKey+"\n"), 0o600); err != nil {
					return err
				}
				out.PrivateKey = path
			}
			return printJSON(c.App.Writer, out)
		},
	}
}

func secretFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "secret", Usage: "32-byte secret as hex", EnvVars: []string{"ANCHORCTL_SECRET"}},
		&cli.StringFlag{Name: "secret-file", Usage: "file holding the hex secret"},
		&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "input file (- for stdin)"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "output file (- for stdout)"},
	}
}

func encryptCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Value: vault.AES256GCM.String(), Usage: "aes-256-gcm | xchacha20-poly1305"},
	}, secretFlags()...)
	return &cli.Command{
		Name:  "encrypt",
		Usage: "seal a file into a vault envelope",
		Flags: flags,
		Action: func(c *cli.Context) error {
			alg, err := vault.ParseAlgorithm(c.String("algorithm"))
			if err != nil {
				return err
			}
			return transform(c, func(secret, in []byte) ([]byte, error) {
				return vault.New(vault.WithAlgorithm(alg)).Encrypt(in, secret)
			})
		},
	}
}

func decryptCommand() *cli.Command {
	return &cli.Command{
		Name:  "decrypt",
		Usage: "open a vault envelope",
		Flags: secretFlags(),
		Action: func(c *cli.Context) error {
			return transform(c, func(secret, in []byte) ([]byte, error) {
				return vault.New().Decrypt(in, secret)
			})
		},
	}
}

func cidCommand() *cli.Command {
	return &cli.Command{
		Name:      "cid",
		Usage:     "print the content id of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hash", Value: string(contentstore.SHA256), Usage: "sha2-256 | blake3"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one file is required")
			}
			hf, err := contentstore.ParseHashFunc(c.String("hash"))
			if err != nil {
				return err
			}
			data, err := readInput(c.Args().First())
			if err != nil {
				return err
			}
			id, err := contentstore.ComputeID(data, hf)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, id.String())
			return err
		},
	}
}

func statementsCommand() *cli.Command {
	return &cli.Command{
		Name:      "statements",
		Usage:     "validate a statement catalogue file and list its ids",
		ArgsUsage: "<catalogue.yaml>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("exactly one catalogue file is required")
			}
			cat, err := proof.LoadCatalogueFile(c.Args().First())
			if err != nil {
				return err
			}
			for _, id := range cat.IDs() {
				if _, err := fmt.Fprintln(c.App.Writer, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type tokenOutput struct {
	Token     string   `json:"token"`
	ActorID   string   `json:"actor_id"`
	Roles     []string `json:"roles,omitempty"`
	ExpiresIn string   `json:"expires_in"`
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint an actor token for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor", Required: true, Usage: "actor id, e.g. did:example:alice"},
			&cli.StringSliceFlag{Name: "role", Usage: "granted role (repeatable), e.g. issuer"},
			&cli.StringFlag{Name: "signing-key", Value: devSigningKey, EnvVars: []string{"VAULTLEDGER_TOKEN_SIGNING_KEY"}},
			&cli.StringFlag{Name: "issuer", Value: "vaultledger", EnvVars: []string{"VAULTLEDGER_TOKEN_ISSUER"}},
			&cli.StringFlag{Name: "audience", Value: "vaultledger-api", EnvVars: []string{"VAULTLEDGER_TOKEN_AUDIENCE"}},
			&cli.DurationFlag{Name: "ttl", Value: 15 * time.Minute},
		},
		Action: func(c *cli.Context) error {
			svc := jwttoken.NewJWTService(c.String("signing-key"), c.String("issuer"), c.String("audience"), c.Duration("ttl"))
			roles := c.StringSlice("role")
			token, err := svc.GenerateActorToken(context.Background(), c.String("actor"), roles)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, tokenOutput{
				Token:     token,
				ActorID:   c.String("actor"),
				Roles:     roles,
				ExpiresIn: c.Duration("ttl").String(),
			})
		},
	}
}

// transform reads --in, applies fn with the resolved secret and writes --out.
func transform(c *cli.Context, fn func(secret, in []byte) ([]byte, error)) error {
	secret, err := loadSecret(c)
	if err != nil {
		return err
	}
	defer clear(secret)

	in, err := readInput(c.String("in"))
	if err != nil {
		return err
	}
	out, err := fn(secret, in)
	if err != nil {
		return err
	}
	if path := c.String("out"); path != "-" {
		return os.WriteFile(path, out, 0o600)
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func loadSecret(c *cli.Context) ([]byte, error) {
	encoded := c.String("secret")
	if path := c.String("secret-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		encoded = string(raw)
	}
	if encoded == "" {
		return nil, errors.New("--secret or --secret-file is required")
	}
	secret, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("secret must be hex: %w", err)
	}
	return secret, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
