package config

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"crashgram/internal/api"
	"crashgram/internal/classify"
	"crashgram/internal/exception"
	"crashgram/internal/format"
	"crashgram/internal/notifier"
)

type Config struct {
	Notifier NotifierConfig `mapstructure:"notifier"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
}

type NotifierConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	BaseURL  string `mapstructure:"base_url"`

	// TimeoutSeconds may be fractional, e.g. 2.5.
	TimeoutSeconds float64 `mapstructure:"timeout_seconds"`
	MessageLimit   int     `mapstructure:"message_limit"`

	// IgnoredClassifications replaces the built-in ignore list when set.
	IgnoredClassifications []string `mapstructure:"ignored_classifications"`

	// ClassificationParents declares extra is-a links, e.g. a tag the host
	// owns that should be treated like model.not_found.
	ClassificationParents []ClassificationLink `mapstructure:"classification_parents"`

	TemplatesFile string   `mapstructure:"templates_file"`
	TemplateID    string   `mapstructure:"template_id"`
	Locale        string   `mapstructure:"locale"`
	ActorKeys     []string `mapstructure:"actor_keys"`
}

// ClassificationLink is one registry entry. Tags contain dots, so links are a
// list rather than a map keyed by tag.
type ClassificationLink struct {
	Tag     string   `mapstructure:"tag"`
	Parents []string `mapstructure:"parents"`
}

func (n NotifierConfig) GetTimeout() time.Duration {
	if n.TimeoutSeconds <= 0 || math.IsNaN(n.TimeoutSeconds) || math.IsInf(n.TimeoutSeconds, 0) {
		return notifier.DefaultTimeout
	}
	return time.Duration(n.TimeoutSeconds * float64(time.Second))
}

func (n NotifierConfig) GetMessageLimit() int {
	if n.MessageLimit == 0 {
		return notifier.DefaultMessageLimit
	}
	return n.MessageLimit
}

func (n NotifierConfig) GetBaseURL() string {
	if strings.TrimSpace(n.BaseURL) == "" {
		return api.DefaultBaseURL
	}
	return strings.TrimRight(strings.TrimSpace(n.BaseURL), "/")
}

// GetIgnoredClassifications returns the configured list with blanks removed,
// or the built-in list when none is configured.
func (n NotifierConfig) GetIgnoredClassifications() []string {
	if n.IgnoredClassifications == nil {
		return classify.DefaultIgnored()
	}
	return splitList(n.IgnoredClassifications)
}

func (n NotifierConfig) GetTemplateID() string {
	if strings.TrimSpace(n.TemplateID) == "" {
		return format.DefaultTemplateID
	}
	return strings.TrimSpace(n.TemplateID)
}

func (n NotifierConfig) GetLocale() string {
	if strings.TrimSpace(n.Locale) == "" {
		return format.DefaultLocale
	}
	return strings.ToLower(strings.TrimSpace(n.Locale))
}

func (n NotifierConfig) GetActorKeys() []string {
	keys := splitList(n.ActorKeys)
	if len(keys) == 0 {
		return append([]string{}, exception.DefaultActorKeys...)
	}
	return keys
}

// GetRegistry builds the classification registry from ClassificationParents.
// Entries without a tag or parents are skipped.
func (n NotifierConfig) GetRegistry() *classify.Registry {
	registry := classify.NewRegistry()
	for _, link := range n.ClassificationParents {
		tag := strings.TrimSpace(link.Tag)
		parents := splitList(link.Parents)
		if tag == "" || len(parents) == 0 {
			log.Warn().Str("tag", link.Tag).Msg("Skipping incomplete classification_parents entry")
			continue
		}
		registry.Register(tag, parents...)
	}
	return registry
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"` // parsed as duration
}

func (s ServerConfig) GetAddr() string {
	if strings.TrimSpace(s.Addr) == "" {
		return ":8080"
	}
	return strings.TrimSpace(s.Addr)
}

func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDurationWithDefault(s.ShutdownTimeout, 10*time.Second, "server.shutdown_timeout")
}

// NotifierOptions converts the file configuration into the notifier's
// immutable configuration.
func (n NotifierConfig) NotifierOptions() notifier.Config {
	return notifier.Config{
		BotToken:               n.BotToken,
		ChatID:                 n.ChatID,
		Timeout:                n.GetTimeout(),
		MessageLimit:           n.GetMessageLimit(),
		IgnoredClassifications: n.GetIgnoredClassifications(),
		BaseURL:                n.GetBaseURL(),
		TemplateID:             n.GetTemplateID(),
		Locale:                 n.GetLocale(),
		ActorKeys:              n.GetActorKeys(),
	}
}

// splitList trims entries, splits comma-separated ones (as set from the
// environment) and drops blanks.
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// parseDurationWithDefault parses value, returning def for empty or invalid
// input.
func parseDurationWithDefault(value string, def time.Duration, key string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}
