package notifier

import "crashgram/internal/exception"

// Notifier delivers text and exception reports. Implementations never return
// delivery failures as errors; false means nothing was delivered.
type Notifier interface {
	SendMessage(text string, markdown bool) bool
	ReportException(err error, scope exception.Scope) bool
}

// Ensure Client implements Notifier interface
var _ Notifier = (*Client)(nil)
