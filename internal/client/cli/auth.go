package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/avilks/passvault/internal/common"
)

// register creates the account and writes the returned private key to the key
// file with owner-only permissions. The server keeps no copy: losing this
// file means losing access to every stored secret.
func (a *App) register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := os.Stat(a.config.KeyFile); err == nil {
		return fmt.Errorf("key file %q already exists, refusing to overwrite", a.config.KeyFile)
	}

	privateKey, err := a.client.Register(ctx, name, email, string(password))
	if err != nil {
		return err
	}

	if err := os.WriteFile(a.config.KeyFile, []byte(privateKey), 0o600); err != nil {
		// The key exists only in memory at this point; show it rather than
		// lose it.
		fmt.Fprintf(a.out, "FAILED to write key file. Save this key yourself:\n%s\n", privateKey)
		return err
	}

	fmt.Fprintf(a.out, "Registered. Private key written to %s — back it up, it cannot be recovered.\n", a.config.KeyFile)
	fmt.Fprintln(a.out, "Check your inbox for the verification link before logging in.")
	return nil
}

func (a *App) login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.Login(ctx, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Logged in.")
	return nil
}
