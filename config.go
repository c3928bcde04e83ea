package yggdrasil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default token policy: ceiling of 10 live tokens, 15 days before a token
// needs a refresh, 5 more days before it is revoked.
const (
	DefaultMaxTokens      = 10
	DefaultNeedRefreshSec = 1296000
	DefaultInvalidSec     = 432000
)

// Settings is the process configuration, resolved once at startup. It
// implements Config.
type Settings struct {
	ServerName            string
	ImplementationName    string
	ImplementationVersion string
	SkinDomains           []string
	HomepageLink          string
	RegisterLink          string
	Listen                string
	DatabaseDSN           string
	TexturesBaseURL       string
	SignaturePrivateKey   string
	SweepInterval         time.Duration
	Policy                TokenPolicy
}

var _ Config = (*Settings)(nil)

// NewSettingsFromEnv resolves settings from the environment, falling back
// to defaults that match a local development setup. The signature key is
// read from the file named by YGG_SIGNATURE_KEY_FILE; a missing or
// unreadable file leaves signing disabled.
func NewSettingsFromEnv() *Settings {
	s := &Settings{
		ServerName:            envStr("YGG_SERVER_NAME", "Yggdrasil Auth Server"),
		ImplementationName:    envStr("YGG_IMPLEMENTATION_NAME", "go-yggdrasil"),
		ImplementationVersion: envStr("YGG_IMPLEMENTATION_VERSION", "0.1.0"),
		SkinDomains:           envList("YGG_SKIN_DOMAINS"),
		HomepageLink:          envStr("YGG_HOMEPAGE_LINK", "https://github.com/goliatone/go-yggdrasil"),
		RegisterLink:          envStr("YGG_REGISTER_LINK", "https://github.com/goliatone/go-yggdrasil"),
		Listen:                envStr("YGG_LISTEN", "127.0.0.1:2345"),
		DatabaseDSN:           envStr("YGG_DATABASE_DSN", "file:yggdrasil.db?cache=shared&mode=rwc"),
		TexturesBaseURL:       envStr("YGG_TEXTURES_BASE", "http://127.0.0.1:2345/textures/"),
		SweepInterval:         time.Duration(envInt("YGG_SWEEP_INTERVAL_SEC", 3600)) * time.Second,
		Policy: TokenPolicy{
			MaxTokens:           envInt("YGG_TOKEN_MAX", DefaultMaxTokens),
			NeedRefreshDuration: time.Duration(envInt("YGG_TOKEN_REFRESH_SEC", DefaultNeedRefreshSec)) * time.Second,
			InvalidDuration:     time.Duration(envInt("YGG_TOKEN_INVALID_SEC", DefaultInvalidSec)) * time.Second,
		},
	}

	if path := os.Getenv("YGG_SIGNATURE_KEY_FILE"); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			s.SignaturePrivateKey = string(raw)
		}
	}

	return s
}

func (s *Settings) GetServerName() string            { return s.ServerName }
func (s *Settings) GetImplementationName() string    { return s.ImplementationName }
func (s *Settings) GetImplementationVersion() string { return s.ImplementationVersion }
func (s *Settings) GetHomepageLink() string          { return s.HomepageLink }
func (s *Settings) GetRegisterLink() string          { return s.RegisterLink }
func (s *Settings) GetTexturesBaseURL() string       { return s.TexturesBaseURL }
func (s *Settings) GetSignaturePrivateKey() string   { return s.SignaturePrivateKey }
func (s *Settings) GetTokenPolicy() TokenPolicy      { return s.Policy }

func (s *Settings) GetSkinDomains() []string {
	if s.SkinDomains == nil {
		return []string{}
	}
	return s.SkinDomains
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return []string{}
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
