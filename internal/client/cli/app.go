// Package cli implements the PassVault command-line client: one subcommand
// per operation, no REPL. The private key stays on disk next to the user and
// every secret is decrypted locally.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/avilks/passvault/internal/client/api"
	"github.com/avilks/passvault/internal/client/config"
	"github.com/avilks/passvault/internal/common"
)

type App struct {
	config *config.Config
	client *api.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config) *App {
	return &App{
		config: cfg,
		client: api.New(cfg),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

const usage = `Usage: passvault-cli [flags] <command> [args]

Commands:
  register                      create an account; writes the private key file
  login                         authenticate and save the session
  services                      list vault services
  add-service <url>             create (or fetch) a service
  passwords <serviceID>         list and decrypt stored credentials
  add-password <serviceID>      store a new credential
  codes <serviceID>             show live TOTP codes
  add-code <serviceID>          store a new authenticator seed
  attachments <serviceID>       list attachments
  upload <serviceID> <file>     encrypt and upload a file
  download <serviceID> <attID> <file>  fetch and decrypt an attachment

Flags: -a server URL, -k key file, -f session file, -i device id, -c config file
`

// Run dispatches the subcommand. The exit code is the caller's concern; Run
// only reports failure.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "services":
		return a.listServices(ctx)
	case "add-service":
		if len(rest) != 1 {
			return fmt.Errorf("usage: add-service <url>")
		}
		return a.addService(ctx, rest[0])
	case "passwords":
		if len(rest) != 1 {
			return fmt.Errorf("usage: passwords <serviceID>")
		}
		return a.listPasswords(ctx, rest[0])
	case "add-password":
		if len(rest) != 1 {
			return fmt.Errorf("usage: add-password <serviceID>")
		}
		return a.addPassword(ctx, rest[0])
	case "codes":
		if len(rest) != 1 {
			return fmt.Errorf("usage: codes <serviceID>")
		}
		return a.listCodes(ctx, rest[0])
	case "add-code":
		if len(rest) != 1 {
			return fmt.Errorf("usage: add-code <serviceID>")
		}
		return a.addCode(ctx, rest[0])
	case "attachments":
		if len(rest) != 1 {
			return fmt.Errorf("usage: attachments <serviceID>")
		}
		return a.listAttachments(ctx, rest[0])
	case "upload":
		if len(rest) != 2 {
			return fmt.Errorf("usage: upload <serviceID> <file>")
		}
		return a.upload(ctx, rest[0], rest[1])
	case "download":
		if len(rest) != 3 {
			return fmt.Errorf("usage: download <serviceID> <attachmentID> <file>")
		}
		return a.download(ctx, rest[0], rest[1], rest[2])
	case "", "help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// splitCommand finds the first non-flag argument, skipping flag values. Flags
// themselves are consumed by the config layer.
func splitCommand(args []string) (string, []string) {
	flagsWithValue := map[string]struct{}{
		"-a": {}, "-k": {}, "-f": {}, "-i": {}, "-c": {}, "-config": {},
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if _, ok := flagsWithValue[arg]; ok {
			i++ // skip the value
			continue
		}
		if len(arg) > 0 && arg[0] == '-' {
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}

// privateKey loads the locally stored key. A missing file is an actionable
// message, not a raw I/O error.
func (a *App) privateKey() ([]byte, error) {
	key, err := os.ReadFile(a.config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read key file %q (did you register on this machine?): %w", a.config.KeyFile, err)
	}
	return key, nil
}

func (a *App) reportAuthError(err error) error {
	if errors.Is(err, common.ErrUnauthorized) {
		return fmt.Errorf("session missing or expired, run 'login' first: %w", err)
	}
	return err
}
