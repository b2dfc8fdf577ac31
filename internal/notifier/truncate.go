package notifier

import (
	"fmt"
	"unicode/utf8"
)

// OverflowMarker is appended to messages cut to fit the message limit.
const OverflowMarker = "..."

// Truncate bounds text to limit characters. Longer text keeps its first
// limit-len(marker) characters followed by marker, so the result is exactly
// limit characters long. Characters are Unicode code points.
func Truncate(text string, limit int, marker string) (string, error) {
	markerLen := utf8.RuneCountInString(marker)
	if limit < markerLen {
		return "", &ConfigurationError{
			Field:  "message limit",
			Reason: fmt.Sprintf("%d is shorter than the overflow marker (%d)", limit, markerLen),
		}
	}
	if utf8.RuneCountInString(text) <= limit {
		return text, nil
	}

	keep := limit - markerLen
	cut := 0
	for i := range text {
		if keep == 0 {
			cut = i
			break
		}
		keep--
	}
	return text[:cut] + marker, nil
}
