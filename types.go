package yggdrasil

import (
	"fmt"
	"time"
)

// Logger is the minimal logging surface the service components need
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the service options the core consumes
type Config interface {
	GetServerName() string
	GetImplementationName() string
	GetImplementationVersion() string
	GetHomepageLink() string
	GetRegisterLink() string
	GetSkinDomains() []string
	GetTexturesBaseURL() string
	GetSignaturePrivateKey() string
	GetTokenPolicy() TokenPolicy
}

// TokenPolicy is the process-wide token budget, overridable per account
// through AccountSetting.
type TokenPolicy struct {
	// MaxTokens is the ceiling of simultaneously available tokens
	MaxTokens int64
	// NeedRefreshDuration is the age after which an available token must be
	// refreshed before further use
	NeedRefreshDuration time.Duration
	// InvalidDuration is the additional age, past need-refresh, after which
	// a token is permanently revoked
	InvalidDuration time.Duration
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] YGG "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] YGG "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] YGG "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] YGG "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
