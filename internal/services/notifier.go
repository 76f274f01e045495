package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

//go:generate mockgen -destination=../mocks/sender_mock.go -package=mocks github.com/Ananth-NQI/washpe-backend/internal/services Sender

// Sender delivers a text message to one address
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Notifier routes OTP messages to the sender of each channel
type Notifier struct {
	senders map[models.Channel]Sender
	timeout time.Duration
	metrics metrics.Recorder
}

func NewNotifier(sms, email Sender, timeout time.Duration, rec metrics.Recorder) *Notifier {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Notifier{
		senders: map[models.Channel]Sender{
			models.ChannelMobile: sms,
			models.ChannelEmail:  email,
		},
		timeout: timeout,
		metrics: rec,
	}
}

// SendOTP delivers code over ch. Failures are returned, never retried.
func (n *Notifier) SendOTP(ctx context.Context, ch models.Channel, to, code string, validFor time.Duration) error {
	sender, ok := n.senders[ch]
	if !ok || sender == nil {
		return fmt.Errorf("no sender for channel %s", ch)
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	body := fmt.Sprintf("Your WashPe verification code is %s. It is valid for %d minutes. Do not share it with anyone.",
		code, int(validFor.Minutes()))
	err := sender.Send(ctx, to, body)
	n.metrics.RecordOTPSent(string(ch), err == nil)
	if err != nil {
		log.WithFields(log.Fields{"channel": ch}).WithError(err).Warn("❌ OTP delivery failed")
		return err
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
// Only for development; config refuses it in production.
type LogSender struct {
	Channel models.Channel
}

func (s LogSender) Send(ctx context.Context, to, body string) error {
	log.WithFields(log.Fields{"channel": s.Channel, "to": to}).Infof("📨 %s", body)
	return nil
}
