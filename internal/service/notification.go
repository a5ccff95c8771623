package service

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkwise/internal/config"
	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

// NotificationService delivers booking updates over email and SMS.
// Either channel degrades to a log line when its provider is not
// configured or the profile lacks a contact address.
type NotificationService struct {
	profileRepo repository.ProfileRepository

	sendgridClient *sendgrid.Client
	fromEmail      string

	twilioClient *twilio.RestClient
	twilioFrom   string
}

// NewNotificationService wires up the configured delivery channels.
func NewNotificationService(cfg config.NotifyConfig, profileRepo repository.ProfileRepository) *NotificationService {
	s := &NotificationService{
		profileRepo: profileRepo,
		fromEmail:   cfg.FromEmail,
		twilioFrom:  cfg.TwilioFrom,
	}
	if cfg.SendGridKey != "" {
		s.sendgridClient = sendgrid.NewSendClient(cfg.SendGridKey)
	}
	if cfg.TwilioSID != "" && cfg.TwilioToken != "" {
		s.twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioSID,
			Password: cfg.TwilioToken,
		})
	}
	return s
}

// BookingConfirmed notifies the booking's user of a successful payment.
func (s *NotificationService) BookingConfirmed(ctx context.Context, booking *domain.Booking) {
	subject := "Parking booking confirmed"
	body := fmt.Sprintf("Your booking for slot %d is confirmed. Paid: %.2f for %.1f hours.",
		booking.SlotID, booking.QuotedPrice, booking.DurationHours)
	s.deliver(ctx, booking.UserID, subject, body)
}

// BookingExpired notifies the booking's user of an unpaid hold that
// lapsed.
func (s *NotificationService) BookingExpired(ctx context.Context, booking *domain.Booking) {
	subject := "Parking reservation expired"
	body := fmt.Sprintf("Your reservation for slot %d expired before payment and the slot was released.",
		booking.SlotID)
	s.deliver(ctx, booking.UserID, subject, body)
}

func (s *NotificationService) deliver(ctx context.Context, userID, subject, body string) {
	var profile *domain.UserProfile
	if s.profileRepo != nil {
		p, err := s.profileRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("notify: profile lookup for %s: %v", userID, err)
		} else {
			profile = p
		}
	}

	if profile == nil {
		log.Printf("notify: %s (user=%s): %s", subject, userID, body)
		return
	}

	s.sendEmail(profile, subject, body)
	s.sendSMS(profile, body)
}

func (s *NotificationService) sendEmail(profile *domain.UserProfile, subject, body string) {
	if s.sendgridClient == nil || profile.Email == "" {
		log.Printf("notify: email skipped (user=%s): %s", profile.UserID, subject)
		return
	}

	from := mail.NewEmail("ParkWise", s.fromEmail)
	to := mail.NewEmail(profile.Name, profile.Email)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := s.sendgridClient.Send(message)
	if err != nil {
		log.Printf("notify: sendgrid send (user=%s): %v", profile.UserID, err)
		return
	}
	if resp.StatusCode >= 400 {
		log.Printf("notify: sendgrid status %d (user=%s)", resp.StatusCode, profile.UserID)
	}
}

func (s *NotificationService) sendSMS(profile *domain.UserProfile, body string) {
	if s.twilioClient == nil || profile.Phone == "" {
		return
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(profile.Phone)
	params.SetFrom(s.twilioFrom)
	params.SetBody(body)

	if _, err := s.twilioClient.Api.CreateMessage(params); err != nil {
		log.Printf("notify: twilio send (user=%s): %v", profile.UserID, err)
	}
}
