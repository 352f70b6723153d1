package alert

import (
	"context"

	"github.com/sirupsen/logrus"
)

type (
	// A Recipient is an opened emergency contact handed to the dispatcher.
	Recipient struct {
		Name          string
		PhoneNumber   string
		CustomMessage string
		SendLocation  bool
	}

	// A Dispatcher delivers the alerts to the emergency contacts.
	// Message templates are owned by the implementation.
	Dispatcher interface {
		SendTest(ctx context.Context, recipient Recipient) error
		SendSOS(ctx context.Context, recipients []Recipient, includeLocation bool) error
		SendAllClear(ctx context.Context, recipients []Recipient) error
		SendFalseAlarm(ctx context.Context, recipients []Recipient) error
	}
)

// A LogDispatcher only logs the dispatched events, never their contents.
type LogDispatcher struct {
	log logrus.FieldLogger
}

// NewLogDispatcher returns a new LogDispatcher.
func NewLogDispatcher(l logrus.FieldLogger) *LogDispatcher {
	return &LogDispatcher{log: l}
}

// SendTest implements Dispatcher.
func (d *LogDispatcher) SendTest(ctx context.Context, recipient Recipient) error {
	return d.event(ctx, "test", 1)
}

// SendSOS implements Dispatcher.
func (d *LogDispatcher) SendSOS(ctx context.Context, recipients []Recipient, includeLocation bool) error {
	return d.event(ctx, "sos", len(recipients))
}

// SendAllClear implements Dispatcher.
func (d *LogDispatcher) SendAllClear(ctx context.Context, recipients []Recipient) error {
	return d.event(ctx, "all_clear", len(recipients))
}

// SendFalseAlarm implements Dispatcher.
func (d *LogDispatcher) SendFalseAlarm(ctx context.Context, recipients []Recipient) error {
	return d.event(ctx, "false_alarm", len(recipients))
}

func (d *LogDispatcher) event(ctx context.Context, kind string, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"alert":      kind,
		"recipients": n,
	}).Info("alert dispatched")
	return nil
}
