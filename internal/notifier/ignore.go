package notifier

import (
	"crashgram/internal/classify"
	"crashgram/internal/exception"
)

// IgnoreFilter decides which errors are not worth an alert.
type IgnoreFilter struct {
	ignored  map[string]struct{}
	registry *classify.Registry
}

// NewIgnoreFilter suppresses errors classified as any of classifications or
// as a descendant of one. registry may be nil.
func NewIgnoreFilter(classifications []string, registry *classify.Registry) *IgnoreFilter {
	ignored := make(map[string]struct{}, len(classifications))
	for _, c := range classifications {
		ignored[c] = struct{}{}
	}
	return &IgnoreFilter{ignored: ignored, registry: registry}
}

// ShouldIgnore is true when env is a local deployment or err's
// classification lineage meets the ignore list.
func (f *IgnoreFilter) ShouldIgnore(err error, env exception.Environment) bool {
	if env != nil && env.IsLocal() {
		return true
	}
	return f.Matches(err)
}

// Matches reports whether err is classified as an ignored classification.
func (f *IgnoreFilter) Matches(err error) bool {
	if len(f.ignored) == 0 {
		return false
	}
	for _, tag := range f.registry.Lineage(err) {
		if _, ok := f.ignored[tag]; ok {
			return true
		}
	}
	return false
}
