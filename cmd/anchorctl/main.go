// Command anchorctl is the operator tool for vaultledger: it generates
// issuer keys, seals and opens vault envelopes on local files, computes
// content ids, checks statement catalogues and mints development actor
// tokens.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "anchorctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "anchorctl",
		Usage: "operate on vaultledger keys, envelopes and content ids",
		Commands: []*cli.Command{
			keygenCommand(),
			encryptCommand(),
			decryptCommand(),
			cidCommand(),
			statementsCommand(),
			tokenCommand(),
		},
	}
}
