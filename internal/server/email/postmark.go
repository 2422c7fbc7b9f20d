package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var ErrInvalidConfig = errors.New("invalid email config")

type Config struct {
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
	// BaseURL is the public address of the vault, used to build links.
	BaseURL string
}

// postmarkAPI is the subset of the Postmark client we call; a seam for tests.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

type PostmarkSender struct {
	client postmarkAPI
	config Config
}

func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: postmark tokens are required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	subject, body, err := s.render(msg)
	if err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.SenderEmail,
		To:       msg.To,
		Subject:  subject,
		Tag:      string(msg.Type),
		HTMLBody: body,
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

func (s *PostmarkSender) render(msg Message) (subject, body string, err error) {
	switch msg.Type {
	case MessageTypeVerification:
		link := fmt.Sprintf("%s/auth/verify?token=%s", s.config.BaseURL, msg.Token)
		return "Verify your email",
			fmt.Sprintf(`<p>Welcome to PassVault. Confirm your email by opening <a href="%s">this link</a>.</p>`, link),
			nil
	default:
		return "", "", fmt.Errorf("unknown message type %q", msg.Type)
	}
}
