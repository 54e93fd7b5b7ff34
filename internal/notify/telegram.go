// Package notify tells managers about new booking requests over Telegram.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"aerolease/internal/booking"
	"aerolease/internal/calendar"
	"aerolease/internal/events"
	"aerolease/internal/metrics"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramError represents an error from Telegram API.
type TelegramError struct {
	ChatID     int64
	Code       int
	Message    string
	RetryAfter int // seconds to wait before retrying (for 429 errors)
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram error %d for chat %d: %s", e.Code, e.ChatID, e.Message)
}

// IsTelegramError checks if the error is a TelegramError.
func IsTelegramError(err error) (*TelegramError, bool) {
	var tgErr *TelegramError
	if errors.As(err, &tgErr) {
		return tgErr, true
	}
	return nil, false
}

// DefaultQueueSize bounds the requests waiting for delivery.
const DefaultQueueSize = 64

// ErrQueueFull is returned when a request arrives while the queue is full.
var ErrQueueFull = errors.New("manager notification queue is full")

// ManagerNotifier sends each submitted booking request to the manager chats.
// Events are queued and delivered by Run, off the submitting request.
type ManagerNotifier struct {
	sender   Sender
	managers []int64
	queue    chan *booking.Request
	logger   *zerolog.Logger
}

// NotifierOption configures a ManagerNotifier.
type NotifierOption func(*ManagerNotifier)

// WithQueueSize sets the queue capacity.
func WithQueueSize(size int) NotifierOption {
	return func(n *ManagerNotifier) {
		if size > 0 {
			n.queue = make(chan *booking.Request, size)
		}
	}
}

// NewManagerNotifier creates a notifier for the given chat ids.
func NewManagerNotifier(sender Sender, managers []int64, logger *zerolog.Logger, opts ...NotifierOption) *ManagerNotifier {
	n := &ManagerNotifier{
		sender:   sender,
		managers: append([]int64(nil), managers...),
		queue:    make(chan *booking.Request, DefaultQueueSize),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run delivers queued requests until ctx is done.
func (n *ManagerNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if left := len(n.queue); left > 0 {
				n.logger.Warn().Int("pending", left).Msg("Manager notifications dropped on shutdown")
			}
			return
		case req := <-n.queue:
			// Notify logs each failed chat itself.
			_ = n.Notify(req)
		}
	}
}

// Subscribe registers the notifier on the bus.
func (n *ManagerNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.TypeBookingSubmitted, n.HandleEvent)
}

// HandleEvent decodes a booking.submitted payload and queues it without
// blocking the publisher.
func (n *ManagerNotifier) HandleEvent(e events.Event) error {
	var req booking.Request
	if err := json.Unmarshal(e.Payload, &req); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	select {
	case n.queue <- &req:
		return nil
	default:
		metrics.IncNotification("dropped")
		return fmt.Errorf("request %s: %w", req.RequestID, ErrQueueFull)
	}
}

// Notify sends req to all managers. A failing chat does not stop the others.
func (n *ManagerNotifier) Notify(req *booking.Request) error {
	text := FormatBookingRequest(req)

	var errs []error
	for _, chatID := range n.managers {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.sender.Send(msg); err != nil {
			err = wrapTelegramError(chatID, err)
			errs = append(errs, err)
			metrics.IncNotification("failed")
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("request_id", req.RequestID).
				Msg("Failed to notify manager")
			continue
		}
		metrics.IncNotification("sent")
	}
	return errors.Join(errs...)
}

func wrapTelegramError(chatID int64, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &TelegramError{
			ChatID:     chatID,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			RetryAfter: apiErr.ResponseParameters.RetryAfter,
		}
	}
	return fmt.Errorf("send to chat %d: %w", chatID, err)
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatBookingRequest formats a booking request for managers.
func FormatBookingRequest(req *booking.Request) string {
	company := req.Company
	if company == "" {
		company = "-"
	}
	text := fmt.Sprintf(`✈️ *New booking request %s*

*Aircraft:* %s
*Dates:* %s - %s (%d days)
*Lease:* %s
*Customer:* %s %s
*Company:* %s
*Phone:* %s
*Email:* %s`,
		esc(req.RequestID),
		esc(req.AircraftName),
		calendar.FormatDate(req.StartDate),
		calendar.FormatDate(req.EndDate),
		req.Duration(),
		esc(req.LeaseType.Label()),
		esc(req.FirstName), esc(req.LastName),
		esc(company),
		esc(req.Phone),
		esc(req.Email),
	)
	if req.MissionType != "" {
		text += "\n*Mission:* " + esc(req.MissionType)
	}
	if req.AdditionalInfo != "" {
		text += "\n\n" + esc(req.AdditionalInfo)
	}
	return text
}
