package services

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"         //nolint:staticcheck // SES v1 client still in use
	"github.com/aws/aws-sdk-go/aws/session" //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/ses" //nolint:staticcheck

	"github.com/harmonia-app/harmonia-api/internal/config"
	"github.com/harmonia-app/harmonia-api/internal/logger"
	"github.com/harmonia-app/harmonia-api/internal/models"
)

const emailCharset = "UTF-8"

// EmailService sends transactional email via AWS SES
type EmailService struct {
	cfg       *config.Config
	sesClient *ses.SES
}

// NewEmailService creates the SES-backed email service
func NewEmailService(cfg *config.Config) *EmailService {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
	}))
	return &EmailService{
		cfg:       cfg,
		sesClient: ses.New(sess),
	}
}

// SendWelcomeEmail greets a newly registered user. Failures are logged, not
// propagated; registration never blocks on email delivery.
func (s *EmailService) SendWelcomeEmail(user *models.User) {
	if s == nil || s.sesClient == nil {
		return
	}

	name := user.Name
	if name == "" {
		name = "there"
	}

	subject := "Welcome to Harmonia"
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome to Harmonia</h1>
    <p>Hi %s,</p>
    <p>Your account is ready. Browse the catalog, build playlists, or describe a
    vibe and let the AI generator put one together for you.</p>
    <p>Happy listening,<br>The Harmonia team</p>
</body>
</html>`, name)
	textBody := fmt.Sprintf("Hi %s,\n\nYour Harmonia account is ready. Browse the catalog, build playlists, "+
		"or describe a vibe and let the AI generator put one together for you.\n\nHappy listening,\nThe Harmonia team", name)

	input := &ses.SendEmailInput{
		Source: aws.String(s.cfg.EmailFrom),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(user.Email)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(emailCharset), Data: aws.String(subject)},
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String(emailCharset), Data: aws.String(htmlBody)},
				Text: &ses.Content{Charset: aws.String(emailCharset), Data: aws.String(textBody)},
			},
		},
	}

	if _, err := s.sesClient.SendEmail(input); err != nil {
		logger.Warn("Failed to send welcome email", logger.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
}
