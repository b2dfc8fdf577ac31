// Package environment describes the deployment the host process runs in.
package environment

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the deployment settings read from the process environment.
type Env struct {
	// Name is the deployment name, e.g. "production" or "staging".
	// Env: APP_ENV (default: production)
	Name string `envconfig:"APP_ENV" default:"production"`

	// LocalNames lists deployment names treated as local development.
	// Env: APP_LOCAL_ENVS (default: local)
	LocalNames []string `envconfig:"APP_LOCAL_ENVS" default:"local"`
}

// Load reads Env from the process environment.
func Load() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, fmt.Errorf("failed to load environment: %w", err)
	}
	return e, nil
}

// Probe answers environment questions for one kind of invocation.
type Probe struct {
	env     Env
	console bool
}

// NewProbe returns a Probe for env. console is true when the host runs as a
// command-line process rather than serving requests.
func NewProbe(env Env, console bool) Probe {
	return Probe{env: env, console: console}
}

func (p Probe) Name() string { return p.env.Name }

func (p Probe) IsLocal() bool {
	name := strings.TrimSpace(p.env.Name)
	for _, local := range p.env.LocalNames {
		if strings.EqualFold(name, strings.TrimSpace(local)) {
			return true
		}
	}
	return false
}

func (p Probe) RunningInConsole() bool { return p.console }
