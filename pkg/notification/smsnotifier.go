package notification

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	TwilioAccountSid string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM" env-default:"+15005550006"`
}

// IsConfigured returns true if Twilio credentials are present
func (t TwilioConfig) IsConfigured() bool {
	return t.TwilioAccountSid != "" && t.TwilioAuthToken != "" && t.TwilioFrom != ""
}

type SMSNotifier struct {
	client       *twilio.RestClient
	TwilioConfig TwilioConfig
}

func NewSMSNotifier(config TwilioConfig) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.TwilioAccountSid,
		Password: config.TwilioAuthToken,
	})
	return &SMSNotifier{
		client:       client,
		TwilioConfig: config,
	}
}

func (s *SMSNotifier) Send(noticeType NoticeType, notification NotificationData, noticeTemplate NoticeTemplate) error {
	if notification.To == "" {
		return fmt.Errorf("SMS notification requires 'To'")
	}

	body := notification.Body
	if noticeTemplate.Text != "" {
		tmpl, err := template.New("sms").Parse(noticeTemplate.Text)
		if err != nil {
			return fmt.Errorf("failed to parse sms template: %w", err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, notification.Data); err != nil {
			return fmt.Errorf("failed to execute sms template: %w", err)
		}
		body = buf.String()
	}
	if body == "" {
		return fmt.Errorf("SMS notification requires a body or template")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(notification.To)
	params.SetFrom(s.TwilioConfig.TwilioFrom)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return err
	}

	slog.Info("Successfully sent sms", "to", notification.To)
	return nil
}
