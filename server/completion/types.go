// Package completion turns one question into one answer using an upstream
// chat-completion API.
package completion

import (
	"errors"

	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/server/provider"
)

// ErrMisconfigured is returned by Ask when no credential was configured at startup.
var ErrMisconfigured = errors.New(config.APIKeyEnv + " not set")

// Handle is the process-wide upstream client. It is either configured, holding
// a provider.Client, or unconfigured. The zero value is unconfigured.
type Handle struct {
	client provider.Client
}

// Configured returns a handle wrapping client. A nil client yields an
// unconfigured handle.
func Configured(client provider.Client) Handle {
	return Handle{client: client}
}

// Unconfigured returns a handle that rejects every call with ErrMisconfigured.
func Unconfigured() Handle {
	return Handle{}
}

// NewHandle builds the handle for cfg. A missing credential is not an error:
// the handle is unconfigured and the process can still start.
func NewHandle(cfg config.LLMConfig) (Handle, error) {
	if !cfg.Configured() {
		return Unconfigured(), nil
	}
	client, err := provider.New(cfg)
	if err != nil {
		return Handle{}, err
	}
	return Configured(client), nil
}

// IsConfigured reports whether calls can reach the upstream API.
func (h Handle) IsConfigured() bool {
	return h.client != nil
}

// Result is the answer extracted from one completion. Degraded is set when
// the response had no usable first choice and Text holds the stringified raw
// response instead.
type Result struct {
	Text     string
	Degraded bool
}
