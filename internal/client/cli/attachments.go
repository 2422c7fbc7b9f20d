package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avilks/passvault/internal/client/netx"
	"github.com/avilks/passvault/internal/cryptox"
)

func (a *App) listAttachments(ctx context.Context, serviceID string) error {
	attachments, err := a.client.ListAttachments(ctx, serviceID)
	if err != nil {
		return a.reportAuthError(err)
	}
	if len(attachments) == 0 {
		fmt.Fprintln(a.out, "No attachments for this service.")
		return nil
	}
	for _, att := range attachments {
		fmt.Fprintf(a.out, "%s  %s\n", att.ID, att.FileName)
	}
	return nil
}

// upload encrypts the file with the account's public key envelope before it
// leaves the machine; the object store only ever holds ciphertext.
//
// The public key is recovered from the private key file, so upload works on
// any machine that can also decrypt.
func (a *App) upload(ctx context.Context, serviceID, path string) error {
	key, err := a.privateKey()
	if err != nil {
		return err
	}
	publicKey, err := cryptox.PublicKeyFromPrivate(key)
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	sealed, err := cryptox.EncryptForAccount(publicKey, blob)
	if err != nil {
		return err
	}

	id, uploadURL, err := a.client.CreateAttachment(ctx, serviceID, filepath.Base(path))
	if err != nil {
		return a.reportAuthError(err)
	}

	if err := netx.UploadToPresignedURL(uploadURL, sealed); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s as %s\n", filepath.Base(path), id)
	return nil
}

func (a *App) download(ctx context.Context, serviceID, attachmentID, path string) error {
	key, err := a.privateKey()
	if err != nil {
		return err
	}

	url, err := a.client.AttachmentURL(ctx, serviceID, attachmentID)
	if err != nil {
		return a.reportAuthError(err)
	}

	sealed, err := netx.DownloadFromPresignedURL(url)
	if err != nil {
		return err
	}

	blob, err := cryptox.Decrypt(key, sealed)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}
