package notifier

import "fmt"

// ConfigurationError reports an invalid notifier setting. It is the only
// error the notifier surfaces to callers.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid notifier configuration: %s %s", e.Field, e.Reason)
}
