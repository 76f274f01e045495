package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST API the sender uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS through the Twilio Messages API
type TwilioSender struct {
	api            messageCreator
	from           string
	countryCode    string
	statusCallback string
}

// NewTwilioSender creates a sender from account credentials
func NewTwilioSender(accountSID, authToken, from, countryCode, statusCallback string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		api:            client.Api,
		from:           from,
		countryCode:    countryCode,
		statusCallback: statusCallback,
	}, nil
}

// e164 prefixes local numbers with the configured country code
func (t *TwilioSender) e164(number string) string {
	if strings.HasPrefix(number, "+") {
		return number
	}
	return t.countryCode + number
}

// Send delivers an SMS. The Twilio client has no context support, so the
// call runs in its own goroutine and ctx bounds how long we wait for it.
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(t.e164(to))
	params.SetBody(body)
	if t.statusCallback != "" {
		params.SetStatusCallback(t.statusCallback)
	}

	type result struct {
		resp *twilioApi.ApiV2010Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.api.CreateMessage(params)
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send sms: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("send sms: %w", r.err)
		}
		if r.resp.ErrorCode != nil && *r.resp.ErrorCode != 0 {
			msg := ""
			if r.resp.ErrorMessage != nil {
				msg = *r.resp.ErrorMessage
			}
			return fmt.Errorf("twilio error %d: %s", *r.resp.ErrorCode, msg)
		}
		sid := ""
		if r.resp.Sid != nil {
			sid = *r.resp.Sid
		}
		log.WithField("sid", sid).Info("✅ SMS sent")
		return nil
	}
}
