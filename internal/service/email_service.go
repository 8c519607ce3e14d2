package service

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"finquest/internal/config"
	"finquest/internal/models"
)

// EmailService sends notification emails via AWS SES. Disabled unless a
// from-address is configured; every send is a no-op then.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates an email service from config
func NewEmailService(cfg *config.Config) *EmailService {
	if cfg.FromEmail == "" {
		log.Println("Email service disabled: FROM_EMAIL not configured")
		return &EmailService{enabled: false}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		log.Printf("Email service disabled: failed to load AWS config: %v", err)
		return &EmailService{enabled: false}
	}

	return &EmailService{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   true,
	}
}

// SendRankUpEmail congratulates a user who just crossed a rank threshold
func (s *EmailService) SendRankUpEmail(toEmail, name string, rank models.Rank, level int) error {
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("You reached %s!", rank.Name)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour latest round pushed you into a new rank: %s (%s tier).\n"+
			"You're now level %d. Keep playing to reach the next rank.\n\n"+
			"The FinQuest Team",
		name, rank.Name, rank.Tier, level,
	)
	return s.send(toEmail, subject, body)
}

func (s *EmailService) send(toEmail, subject, body string) error {
	if !s.enabled {
		log.Printf("Email service disabled, skipping email to %s: %s", toEmail, subject)
		return nil
	}

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	_, err := s.client.SendEmail(context.Background(), &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &body},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
