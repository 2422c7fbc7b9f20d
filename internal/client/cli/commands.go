package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avilks/passvault/internal/client/vault"
	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/totp"
)

func (a *App) listServices(ctx context.Context) error {
	services, err := a.client.ListServices(ctx)
	if err != nil {
		return a.reportAuthError(err)
	}
	if len(services) == 0 {
		fmt.Fprintln(a.out, "No services yet. Use 'add-service <url>'.")
		return nil
	}
	for _, s := range services {
		fmt.Fprintf(a.out, "%s  %s\n", s.ID, s.URL)
	}
	return nil
}

func (a *App) addService(ctx context.Context, url string) error {
	svc, err := a.client.CreateService(ctx, url)
	if err != nil {
		return a.reportAuthError(err)
	}
	fmt.Fprintf(a.out, "%s  %s\n", svc.ID, svc.URL)
	return nil
}

func (a *App) listPasswords(ctx context.Context, serviceID string) error {
	key, err := a.privateKey()
	if err != nil {
		return err
	}

	creds, err := a.client.ListCredentials(ctx, serviceID)
	if err != nil {
		return a.reportAuthError(err)
	}
	if len(creds) == 0 {
		fmt.Fprintln(a.out, "No credentials for this service.")
		return nil
	}
	for _, c := range creds {
		password, err := vault.DecryptPassword(key, c)
		if err != nil {
			fmt.Fprintf(a.out, "%s  %s  <cannot decrypt: %v>\n", c.ID, c.Username, err)
			continue
		}
		fmt.Fprintf(a.out, "%s  %s  %s\n", c.ID, c.Username, password)
	}
	return nil
}

func (a *App) addPassword(ctx context.Context, serviceID string) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password to store: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.AddCredential(ctx, serviceID, username, string(password)); err != nil {
		return a.reportAuthError(err)
	}
	fmt.Fprintln(a.out, "Stored.")
	return nil
}

func (a *App) listCodes(ctx context.Context, serviceID string) error {
	key, err := a.privateKey()
	if err != nil {
		return err
	}

	entries, err := a.client.ListAuthenticators(ctx, serviceID)
	if err != nil {
		return a.reportAuthError(err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No authenticators for this service.")
		return nil
	}

	now := time.Now()
	for _, e := range entries {
		code, remaining, err := vault.Code(key, e, now)
		if err != nil {
			fmt.Fprintf(a.out, "%s  %s  <cannot derive code: %v>\n", e.ID, e.Name, err)
			continue
		}
		fmt.Fprintf(a.out, "%s  %s  %s  (%ds left)\n", e.ID, e.Name, code, remaining)
	}
	return nil
}

func (a *App) addCode(ctx context.Context, serviceID string) error {
	name, err := GetSimpleText(a.reader, "Enter a name for this authenticator", a.out)
	if err != nil {
		return err
	}
	secret, err := GetSimpleText(a.reader, "Enter the base32 seed", a.out)
	if err != nil {
		return err
	}

	digitsText, err := GetSimpleText(a.reader, "Digits (empty for 6)", a.out)
	if err != nil {
		return err
	}
	digits := totp.DefaultDigits
	if digitsText != "" {
		if digits, err = strconv.Atoi(digitsText); err != nil {
			return fmt.Errorf("digits must be a number: %w", err)
		}
	}

	periodText, err := GetSimpleText(a.reader, "Period seconds (empty for 30)", a.out)
	if err != nil {
		return err
	}
	period := totp.DefaultPeriod
	if periodText != "" {
		if period, err = strconv.Atoi(periodText); err != nil {
			return fmt.Errorf("period must be a number: %w", err)
		}
	}

	algorithm, err := GetSimpleText(a.reader, "Algorithm (empty for SHA-1)", a.out)
	if err != nil {
		return err
	}
	if algorithm == "" {
		algorithm = totp.DefaultAlgorithm
	}

	if err := a.client.AddAuthenticator(ctx, serviceID, name, secret, digits, period, algorithm); err != nil {
		return a.reportAuthError(err)
	}
	fmt.Fprintln(a.out, "Stored.")
	return nil
}
