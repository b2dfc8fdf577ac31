package exception

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"crashgram/internal/classify"
)

type fakeEnv struct {
	name    string
	local   bool
	console bool
}

func (f fakeEnv) IsLocal() bool          { return f.local }
func (f fakeEnv) Name() string           { return f.name }
func (f fakeEnv) RunningInConsole() bool { return f.console }

type fakeRequest struct {
	url  string
	addr string
}

func (f fakeRequest) FullURL() string { return f.url }

func (f fakeRequest) ServerAddress(def string) string {
	if f.addr == "" {
		return def
	}
	return f.addr
}

type fakeIdentity struct {
	actor any
}

func (f fakeIdentity) CurrentActor() any { return f.actor }

type getNamer struct{ first, last string }

func (g getNamer) GetName() string { return g.first + " " + g.last }

type namer struct{}

func (namer) Name() string { return "service-account" }

type profile struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}

type member struct {
	Name string `json:"name"`
}

type plainUser struct {
	ID   int
	Name string
}

func TestExtract_HTTPRequest(t *testing.T) {
	err := classify.New("db.unavailable", "connection refused")
	scope := Scope{
		Environment: fakeEnv{name: "production"},
		Request:     fakeRequest{url: "https://shop.example.com/cart?id=3", addr: "10.0.0.5"},
		Identity:    fakeIdentity{actor: member{Name: "alice"}},
	}

	d := Extract(err, scope)

	assert.Equal(t, "connection refused", d.Message)
	assert.Equal(t, "db.unavailable", d.Classification)
	assert.True(t, strings.HasSuffix(d.SourceFile, "details_test.go"), "unexpected file %q", d.SourceFile)
	assert.Greater(t, d.SourceLine, 0)
	assert.Equal(t, "https://shop.example.com/cart?id=3", d.Context)
	assert.Equal(t, "production", d.Environment)
	assert.Equal(t, "alice", d.Actor)
	assert.Equal(t, "10.0.0.5", d.NetworkAddress)
}

func TestExtract_Console(t *testing.T) {
	scope := Scope{
		Environment: fakeEnv{name: "staging", console: true},
		Request:     fakeRequest{url: "https://ignored.example.com/"},
	}

	d := Extract(errors.New("job failed"), scope)

	assert.Equal(t, ConsoleContext, d.Context)
	assert.Equal(t, "staging", d.Environment)
	assert.Equal(t, "*errors.errorString", d.Classification)
}

func TestExtract_EmptyMessageUsesSentinel(t *testing.T) {
	d := Extract(classify.New(classify.Panic, ""), Scope{})

	assert.Equal(t, Sentinel, d.Message)
}

func TestExtract_NoAmbientContext(t *testing.T) {
	d := Extract(errors.New("boom"), Scope{})

	assert.Equal(t, "boom", d.Message)
	assert.Equal(t, Sentinel, d.SourceFile)
	assert.Equal(t, 0, d.SourceLine)
	assert.Equal(t, Sentinel, d.Context)
	assert.Equal(t, Sentinel, d.Environment)
	assert.Equal(t, Sentinel, d.Actor)
	assert.Equal(t, Sentinel, d.NetworkAddress)
}

func TestExtract_NilError(t *testing.T) {
	d := Extract(nil, Scope{})

	assert.Equal(t, Sentinel, d.Message)
	assert.Equal(t, Sentinel, d.Classification)
}

func TestExtract_RequestWithoutServerAddress(t *testing.T) {
	d := Extract(errors.New("x"), Scope{Request: fakeRequest{url: ""}})

	assert.Equal(t, Sentinel, d.Context)
	assert.Equal(t, Sentinel, d.NetworkAddress)
}

func TestExtract_PkgErrorsStackTrace(t *testing.T) {
	err := pkgerrors.Wrap(pkgerrors.New("disk full"), "write snapshot")

	d := Extract(err, Scope{})

	assert.Equal(t, "write snapshot: disk full", d.Message)
	assert.Equal(t, "*errors.fundamental", d.Classification)
	assert.True(t, strings.HasSuffix(d.SourceFile, "details_test.go"), "unexpected file %q", d.SourceFile)
	assert.Greater(t, d.SourceLine, 0)
}

func TestExtract_WrappedClassifiedError(t *testing.T) {
	err := fmt.Errorf("checkout: %w", classify.New(classify.Validation, "bad email"))

	d := Extract(err, Scope{})

	assert.Equal(t, "checkout: bad email", d.Message)
	assert.Equal(t, classify.Validation, d.Classification)
	assert.NotEqual(t, Sentinel, d.SourceFile)
}

func TestExtract_Actor(t *testing.T) {
	var nilMember *member

	tests := []struct {
		name     string
		actor    any
		keys     []string
		expected string
	}{
		{"no actor", nil, nil, Sentinel},
		{"typed nil actor", nilMember, nil, Sentinel},
		{"GetName accessor", getNamer{first: "Ada", last: "Lovelace"}, nil, "Ada Lovelace"},
		{"Name accessor", namer{}, nil, "service-account"},
		{"plain string", "bob", nil, "bob"},
		{"struct name field", member{Name: "carol"}, nil, "carol"},
		{"falls through to full_name", profile{ID: 1, FullName: "Dan Brown"}, nil, "Dan Brown"},
		{"untagged struct field", plainUser{ID: 1, Name: "alice"}, nil, "alice"},
		{"untagged struct pointer", &plainUser{ID: 2, Name: "grace"}, nil, "grace"},
		{"map key in other case", map[string]any{"NAME": "heidi"}, nil, "heidi"},
		{"exact key wins over case match", map[string]any{"Name": "upper", "name": "lower"}, nil, "lower"},
		{"map name key", map[string]any{"name": "erin"}, nil, "erin"},
		{"custom keys", map[string]any{"login": "frank"}, []string{"login"}, "frank"},
		{"empty name", member{}, nil, Sentinel},
		{"no matching key", map[string]int{"id": 4}, nil, Sentinel},
		{"unmarshalable actor", func() {}, nil, Sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Extract(errors.New("x"), Scope{
				Identity:  fakeIdentity{actor: tt.actor},
				ActorKeys: tt.keys,
			})
			assert.Equal(t, tt.expected, d.Actor)
		})
	}
}
