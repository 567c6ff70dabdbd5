package main

// This file defines the pluggable notification channels used when the gas
// level exceeds the threshold.

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a danger alert.  Implementations must not retry; the
// control loop calls them again on the next danger cycle anyway.  A returned
// error is logged by the caller and otherwise ignored.
type Notifier interface {
	Name() string
	SendMessage(text string, reading int) error
}

// alertBody is the message text shared by every channel.
func alertBody(text string, reading int) string {
	return text + "\n" + gasLevelLine(reading)
}

// LogAlert writes the alert to the event log.  Useful on a bench without a
// SIM card.
type LogAlert struct {
	logger *EventLogger
}

// Name returns the type name of the alert handler.
func (LogAlert) Name() string { return "log" }

// SendMessage writes an alert to the event log.
func (l LogAlert) SendMessage(text string, reading int) error {
	l.logger.Log("alert: %s (reading %d)", text, reading)
	return nil
}

// EmailAlert sends an email via an SMTP server.  The subject defaults to
// "Gas alert" if empty.
type EmailAlert struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	From       string
	To         string
	Subject    string
}

// Name returns the type name of the alert handler.
func (EmailAlert) Name() string { return "email" }

// SendMessage dispatches an email.  Errors from smtp.SendMail are returned
// directly so the caller can log them.
func (e EmailAlert) SendMessage(text string, reading int) error {
	addr := fmt.Sprintf("%s:%d", e.SMTPServer, e.SMTPPort)
	auth := smtp.PlainAuth("", e.Username, e.Password, e.SMTPServer)
	return smtp.SendMail(addr, auth, e.From, []string{e.To}, e.compose(text, reading))
}

// compose builds the RFC 5322 message.  Headers and body use CRLF.
func (e EmailAlert) compose(text string, reading int) []byte {
	subject := e.Subject
	if subject == "" {
		subject = "Gas alert"
	}
	body := strings.ReplaceAll(alertBody(text, reading), "\n", "\r\n")
	return []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", e.To, subject, body))
}

// telegramSender is the part of *tgbotapi.BotAPI used here.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramAlert posts the alert to a Telegram chat through a bot.
type TelegramAlert struct {
	bot    telegramSender
	chatID int64
}

// NewTelegramAlert authorizes the bot token.  This performs a network call.
func NewTelegramAlert(token string, chatID int64) (*TelegramAlert, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}
	return &TelegramAlert{bot: bot, chatID: chatID}, nil
}

// Name returns the type name of the alert handler.
func (*TelegramAlert) Name() string { return "telegram" }

// SendMessage posts the alert text.
func (t *TelegramAlert) SendMessage(text string, reading int) error {
	msg := tgbotapi.NewMessage(t.chatID, alertBody(text, reading))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending telegram message: %w", err)
	}
	return nil
}

// MultiNotifier fans an alert out to every configured channel in order.  A
// failing channel does not stop the others.
type MultiNotifier []Notifier

// Name lists the channel names.
func (m MultiNotifier) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, ",")
}

// SendMessage calls every channel and joins their errors.
func (m MultiNotifier) SendMessage(text string, reading int) error {
	var errs []error
	for _, n := range m {
		if err := n.SendMessage(text, reading); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// initNotifiers constructs the alert channels listed in the configuration.
// The modem is shared because there is only one.  If nothing usable is
// configured, alerts go to the event log so they are never lost silently.
func initNotifiers(cfg Config, modem Notifier, logger *EventLogger) MultiNotifier {
	var handlers MultiNotifier
	for _, ac := range cfg.Alerts {
		switch strings.ToLower(ac.Type) {
		case "sms":
			handlers = append(handlers, modem)
		case "log":
			handlers = append(handlers, LogAlert{logger: logger})
		case "email":
			handlers = append(handlers, EmailAlert{
				SMTPServer: ac.SMTPServer,
				SMTPPort:   ac.SMTPPort,
				Username:   ac.Username,
				Password:   ac.Password,
				From:       ac.From,
				To:         ac.To,
				Subject:    ac.Subject,
			})
		case "telegram":
			t, err := NewTelegramAlert(ac.BotToken, ac.ChatID)
			if err != nil {
				logger.Error("telegram alert disabled", err)
				continue
			}
			handlers = append(handlers, t)
		default:
			logger.Log("unknown alert type %q ignored", ac.Type)
		}
	}
	if len(handlers) == 0 {
		handlers = append(handlers, LogAlert{logger: logger})
	}
	return handlers
}
