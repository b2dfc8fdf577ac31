package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public Telegram Bot API origin.
const DefaultBaseURL = "https://api.telegram.org"

// ParseModeMarkdown is the parse_mode value sent for markdown messages.
const ParseModeMarkdown = "markdown"

// SendMessageResult is the outcome of a sendMessage call the provider
// answered with a JSON object.
type SendMessageResult struct {
	// OK is true only when the response's "ok" field is the boolean true.
	OK bool

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Description is the provider's explanation for a rejected call, if any.
	Description string
}

// TelegramAPI is a client for the Telegram Bot API (or any server speaking
// the same protocol).
type TelegramAPI struct {
	// BaseURL is the API origin without trailing slash.
	BaseURL string

	// Token is the bot token embedded in every method URL.
	Token string

	client *http.Client
}

// NewTelegramAPI creates a client for token. An empty baseURL selects
// DefaultBaseURL; a nil client selects NewHTTPClient(DefaultTimeout).
func NewTelegramAPI(baseURL, token string, client *http.Client) *TelegramAPI {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	return &TelegramAPI{BaseURL: baseURL, Token: token, client: client}
}

// MethodURL returns "{baseUrl}/bot{token}/{method}".
func (t *TelegramAPI) MethodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.Token, method)
}

// SendMessage posts text to chatID as a form-encoded sendMessage call.
//
// Returns an error when the request cannot be made or the response body is
// not a JSON object; an answered call, successful or not, yields a result.
func (t *TelegramAPI) SendMessage(chatID, text string, markdown bool) (*SendMessageResult, error) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if markdown {
		form.Set("parse_mode", ParseModeMarkdown)
	}

	req, err := http.NewRequest(http.MethodPost, t.MethodURL("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", t.redact(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", t.redact(err))
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", t.redact(err))
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("invalid response body with status %d: %q", resp.StatusCode, truncateBody(body))
	}

	parsed := gjson.ParseBytes(body)
	return &SendMessageResult{
		OK:          parsed.Get("ok").Type == gjson.True,
		StatusCode:  resp.StatusCode,
		Description: parsed.Get("description").String(),
	}, nil
}

// redact strips the bot token from transport errors, which quote the URL.
func (t *TelegramAPI) redact(err error) error {
	if t.Token == "" || !strings.Contains(err.Error(), t.Token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), t.Token, "<token>"), cause: err}
}

type redactedError struct {
	msg   string
	cause error
}

func (e redactedError) Error() string { return e.msg }

func (e redactedError) Unwrap() error { return e.cause }

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
