// Package exception turns an error and the ambient state of the host at the
// moment it failed into a flat set of printable fields.
package exception

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"crashgram/internal/classify"
)

// Sentinel replaces any field that cannot be resolved.
const Sentinel = "N/A"

// ConsoleContext is the context value used when the host runs as a
// command-line process.
const ConsoleContext = "CLI"

// DefaultActorKeys are the attribute names tried, in order, when an actor has
// no name accessor.
var DefaultActorKeys = []string{"name", "full_name"}

// Details is the field set rendered into a report. Every string field holds
// Sentinel when the value was not available.
type Details struct {
	Message        string
	SourceFile     string
	SourceLine     int
	Classification string
	Context        string
	Environment    string
	Actor          string
	NetworkAddress string
}

// Environment describes the deployment the host runs in.
type Environment interface {
	IsLocal() bool
	Name() string
	RunningInConsole() bool
}

// Request describes the request being served when the error occurred.
type Request interface {
	FullURL() string
	ServerAddress(def string) string
}

// Identity resolves the actor on whose behalf the host was working.
type Identity interface {
	CurrentActor() any
}

// Scope bundles the ambient collaborators for one report. Request and
// Identity may be nil.
type Scope struct {
	Environment Environment
	Request     Request
	Identity    Identity
	// ActorKeys overrides DefaultActorKeys for the generic attribute lookup.
	ActorKeys []string
}

// Extract builds Details for err. It has no side effects.
func Extract(err error, scope Scope) Details {
	d := Details{
		Message:        Sentinel,
		SourceFile:     Sentinel,
		Classification: Sentinel,
		Context:        Sentinel,
		Environment:    Sentinel,
		Actor:          Sentinel,
		NetworkAddress: Sentinel,
	}

	if err != nil {
		if msg := err.Error(); msg != "" {
			d.Message = msg
		}
		if class := classify.Of(err); class != "" {
			d.Classification = class
		}
		if file, line, ok := location(err); ok {
			d.SourceFile = file
			d.SourceLine = line
		}
	}

	if scope.Environment != nil {
		if name := scope.Environment.Name(); name != "" {
			d.Environment = name
		}
	}

	switch {
	case scope.Environment != nil && scope.Environment.RunningInConsole():
		d.Context = ConsoleContext
	case scope.Request != nil:
		d.Context = orSentinel(scope.Request.FullURL())
	}

	if scope.Request != nil {
		d.NetworkAddress = orSentinel(scope.Request.ServerAddress(Sentinel))
	}

	if scope.Identity != nil {
		keys := scope.ActorKeys
		if len(keys) == 0 {
			keys = DefaultActorKeys
		}
		d.Actor = actorName(scope.Identity.CurrentActor(), keys)
	}

	return d
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// location finds where err was created: an explicit Located error first,
// then the innermost pkg/errors stack trace.
func location(err error) (string, int, bool) {
	var loc classify.Located
	if errors.As(err, &loc) {
		if file, line := loc.Location(); file != "" {
			return file, line, true
		}
	}

	var frame pkgerrors.Frame
	found := false
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			if trace := st.StackTrace(); len(trace) > 0 {
				frame = trace[0]
				found = true
			}
		}
	}
	if !found {
		return "", 0, false
	}

	// "%+s" prints "function\n\tfile".
	parts := strings.Split(fmt.Sprintf("%+s", frame), "\n\t")
	file := parts[len(parts)-1]
	line, convErr := strconv.Atoi(fmt.Sprintf("%d", frame))
	if convErr != nil || file == "" || file == "unknown" {
		return "", 0, false
	}
	return file, line, true
}

// actorName applies the lookup strategies in order: a GetName accessor, a
// Name accessor, then each key against the actor's JSON form.
func actorName(actor any, keys []string) string {
	if actor == nil {
		return Sentinel
	}
	if v := reflect.ValueOf(actor); v.Kind() == reflect.Pointer && v.IsNil() {
		return Sentinel
	}
	switch a := actor.(type) {
	case interface{ GetName() string }:
		return orSentinel(a.GetName())
	case interface{ Name() string }:
		return orSentinel(a.Name())
	case string:
		return orSentinel(a)
	}

	raw, err := json.Marshal(actor)
	if err != nil || !gjson.ValidBytes(raw) {
		return Sentinel
	}
	doc := gjson.ParseBytes(raw)
	for _, key := range keys {
		if v := attribute(doc, key); v != "" {
			return v
		}
	}
	return Sentinel
}

// attribute reads key from the top level of doc, exactly first and then
// ignoring case, so untagged struct fields such as Name match "name".
func attribute(doc gjson.Result, key string) string {
	if v := doc.Get(gjson.Escape(key)); usable(v) {
		return v.String()
	}
	var found string
	doc.ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), key) && usable(v) {
			found = v.String()
			return false
		}
		return true
	})
	return found
}

func usable(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null && strings.TrimSpace(v.String()) != ""
}

func orSentinel(s string) string {
	if strings.TrimSpace(s) == "" {
		return Sentinel
	}
	return s
}
