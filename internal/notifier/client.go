// Package notifier reports host application errors to a chat through a bot
// API. Delivery is a single attempt whose failure is logged and reported as
// false; only configuration problems surface as errors.
package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashgram/internal/api"
	"crashgram/internal/classify"
	"crashgram/internal/exception"
	"crashgram/internal/format"
)

const (
	// DefaultMessageLimit is the provider's maximum message length.
	DefaultMessageLimit = 4096

	// DefaultTimeout bounds one delivery.
	DefaultTimeout = api.DefaultTimeout
)

// Config is the immutable notifier configuration.
type Config struct {
	BotToken string
	ChatID   string

	// Timeout bounds the HTTP call. Zero selects DefaultTimeout.
	Timeout time.Duration

	// MessageLimit is the maximum delivered length in characters. Zero
	// selects DefaultMessageLimit.
	MessageLimit int

	// IgnoredClassifications are never reported. Nil selects
	// classify.DefaultIgnored(); an empty, non-nil slice ignores nothing.
	IgnoredClassifications []string

	// BaseURL is the bot API origin. Empty selects api.DefaultBaseURL.
	BaseURL string

	// TemplateID selects the report template. Empty selects
	// format.DefaultTemplateID.
	TemplateID string

	// Locale selects the built-in template catalog when no renderer is
	// supplied. Empty selects format.DefaultLocale.
	Locale string

	// ActorKeys are the attribute names used to find an actor's name.
	// Empty selects exception.DefaultActorKeys.
	ActorKeys []string
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for delivery outcomes.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRenderer replaces the built-in template catalog.
func WithRenderer(r format.Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// WithRegistry supplies parent links between classifications.
func WithRegistry(r *classify.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithEnvironment sets the environment used when a report's scope has none.
func WithEnvironment(env exception.Environment) Option {
	return func(c *Client) { c.env = env }
}

// WithBotClient replaces the HTTP bot API client.
func WithBotClient(bot api.BotClient) Option {
	return func(c *Client) { c.bot = bot }
}

// Client is safe for concurrent use; nothing in it changes after NewClient.
type Client struct {
	cfg       Config
	bot       api.BotClient
	renderer  format.Renderer
	registry  *classify.Registry
	env       exception.Environment
	filter    *IgnoreFilter
	formatter *format.Formatter
	logger    zerolog.Logger
}

// NewClient validates cfg and builds a Client. It returns a
// *ConfigurationError for settings that can never deliver a message.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = withDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, logger: log.Logger}
	for _, opt := range opts {
		opt(c)
	}

	if c.bot == nil {
		c.bot = api.NewTelegramAPI(cfg.BaseURL, cfg.BotToken, api.NewHTTPClient(cfg.Timeout))
	}
	if c.renderer == nil {
		catalog, err := format.DefaultCatalog(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("failed to load default templates: %w", err)
		}
		c.renderer = catalog
	}
	c.filter = NewIgnoreFilter(cfg.IgnoredClassifications, c.registry)
	c.formatter = format.NewFormatter(c.renderer)

	return c, nil
}

func withDefaults(cfg Config) Config {
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MessageLimit == 0 {
		cfg.MessageLimit = DefaultMessageLimit
	}
	if cfg.IgnoredClassifications == nil {
		cfg.IgnoredClassifications = classify.DefaultIgnored()
	} else {
		cfg.IgnoredClassifications = append([]string{}, cfg.IgnoredClassifications...)
	}
	if cfg.TemplateID == "" {
		cfg.TemplateID = format.DefaultTemplateID
	}
	if cfg.Locale == "" {
		cfg.Locale = format.DefaultLocale
	}
	if len(cfg.ActorKeys) == 0 {
		cfg.ActorKeys = exception.DefaultActorKeys
	}
	cfg.ActorKeys = append([]string{}, cfg.ActorKeys...)
	return cfg
}

func validate(cfg Config) error {
	switch {
	case cfg.BotToken == "":
		return &ConfigurationError{Field: "bot token", Reason: "is required"}
	case cfg.ChatID == "":
		return &ConfigurationError{Field: "chat id", Reason: "is required"}
	case cfg.MessageLimit <= len(OverflowMarker):
		return &ConfigurationError{
			Field:  "message limit",
			Reason: fmt.Sprintf("must be greater than %d, got %d", len(OverflowMarker), cfg.MessageLimit),
		}
	}
	return nil
}

// Config returns a copy of the client's effective configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.IgnoredClassifications = append([]string{}, c.cfg.IgnoredClassifications...)
	cfg.ActorKeys = append([]string{}, c.cfg.ActorKeys...)
	return cfg
}

// ReportException formats err with scope and sends it. It returns false
// without contacting the provider when the error is ignored or the
// environment is local.
func (c *Client) ReportException(err error, scope exception.Scope) (sent bool) {
	if err == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Exception report aborted")
			sent = false
		}
	}()

	if scope.Environment == nil {
		scope.Environment = c.env
	}
	if len(scope.ActorKeys) == 0 {
		scope.ActorKeys = c.cfg.ActorKeys
	}

	if c.filter.ShouldIgnore(err, scope.Environment) {
		c.logger.Debug().Str("class", classify.Of(err)).Msg("Exception report suppressed")
		return false
	}

	details := exception.Extract(err, scope)
	text, ferr := c.formatter.Format(details, c.cfg.TemplateID)
	if ferr != nil {
		c.logger.Error().Err(ferr).Str("template", c.cfg.TemplateID).Msg("Failed to format exception message")
		return false
	}

	return c.SendMessage(text, false)
}

// SendMessage delivers text, cut to the message limit, in one request.
// markdown asks the provider to parse the text as markdown.
func (c *Client) SendMessage(text string, markdown bool) bool {
	start := time.Now()

	text, err := Truncate(text, c.cfg.MessageLimit, OverflowMarker)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to send message")
		return false
	}

	result, err := c.bot.SendMessage(c.cfg.ChatID, text, markdown)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to send message")
		return false
	}
	if !result.OK {
		c.logger.Error().
			Int("status", result.StatusCode).
			Str("description", result.Description).
			Msg("Failed to send message")
		return false
	}

	elapsed := math.Round(time.Since(start).Seconds()*10000) / 10000
	c.logger.Info().Float64("seconds", elapsed).Msg("Message sent")
	return true
}
