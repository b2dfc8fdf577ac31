// Package recovery reports failures of HTTP handlers through a notifier.
package recovery

import (
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashgram/internal/classify"
	"crashgram/internal/exception"
	"crashgram/internal/notifier"
)

// IdentityFunc resolves the actor behind a request, or nil when anonymous.
type IdentityFunc func(r *http.Request) any

// Option customizes a Reporter.
type Option func(*Reporter)

// WithIdentity sets how the acting user is found for a request.
func WithIdentity(fn IdentityFunc) Option {
	return func(rp *Reporter) { rp.identity = fn }
}

// WithEnvironment sets the environment attached to every report.
func WithEnvironment(env exception.Environment) Option {
	return func(rp *Reporter) { rp.env = env }
}

// WithLogger sets the logger for recovered panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(rp *Reporter) { rp.logger = logger }
}

// Reporter binds a notifier to HTTP requests.
type Reporter struct {
	notifier notifier.Notifier
	env      exception.Environment
	identity IdentityFunc
	logger   zerolog.Logger
}

func NewReporter(n notifier.Notifier, opts ...Option) *Reporter {
	rp := &Reporter{notifier: n, logger: log.Logger}
	for _, opt := range opts {
		opt(rp)
	}
	return rp
}

// Scope returns the ambient context of r.
func (rp *Reporter) Scope(r *http.Request) exception.Scope {
	scope := exception.Scope{
		Environment: rp.env,
		Request:     Request{r: r},
	}
	if rp.identity != nil {
		scope.Identity = identity{r: r, fn: rp.identity}
	}
	return scope
}

// Report sends err with the context of r.
func (rp *Reporter) Report(r *http.Request, err error) bool {
	return rp.notifier.ReportException(err, rp.Scope(r))
}

// Middleware recovers panics from next, reports them and answers 500 unless
// the handler already sent a status. http.ErrAbortHandler is passed through
// untouched.
func (rp *Reporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			err := PanicError(rvr)
			rp.logger.Error().
				Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Recovered from panic")

			rp.Report(r, err)

			if ww.Status() == 0 && r.Header.Get("Connection") != "Upgrade" {
				ww.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// PanicError converts a recovered value into a classified error located at
// the statement that panicked. Call it from the deferred function.
func PanicError(rvr any) *classify.Error {
	var err *classify.Error
	if cause, ok := rvr.(error); ok {
		err = classify.Wrap(cause, classify.Panic, "panic")
	} else {
		err = classify.New(classify.Panic, fmt.Sprintf("panic: %v", rvr))
	}
	if file, line, ok := panicSite(); ok {
		err = err.At(file, line)
	}
	return err
}

// panicSite finds the first frame below runtime.gopanic on the current stack.
func panicSite() (string, int, bool) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File, frame.Line, true
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return "", 0, false
		}
	}
}

// Request exposes an *http.Request to the exception extractor.
type Request struct {
	r *http.Request
}

func NewRequest(r *http.Request) Request { return Request{r: r} }

// FullURL returns the absolute URL of the request, query included.
func (q Request) FullURL() string {
	if q.r == nil || q.r.URL == nil {
		return ""
	}
	scheme := "http"
	if q.r.TLS != nil {
		scheme = "https"
	}
	if proto := q.r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	host := q.r.Host
	if host == "" {
		host = q.r.URL.Host
	}
	return scheme + "://" + host + q.r.URL.RequestURI()
}

// ServerAddress returns the local IP address the request arrived on, or def.
func (q Request) ServerAddress(def string) string {
	if q.r == nil {
		return def
	}
	addr, ok := q.r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return def
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

type identity struct {
	r  *http.Request
	fn IdentityFunc
}

func (i identity) CurrentActor() any { return i.fn(i.r) }
