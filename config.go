package jwtlab

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/jwtlab/claims"
	"github.com/MrEthical07/jwtlab/preset"
)

const (
	maxDebounceWindow = 5 * time.Second
	maxExpiryLeeway   = 2 * time.Minute
	maxAuditBuffer    = 1 << 20
)

// Config holds every Session setting. Obtain defaults through [New] and override
// through [Builder.WithConfig] or the Builder helpers.
type Config struct {
	Debounce DebounceConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
DEBOUNCE CONFIG
====================================
*/

// DebounceConfig controls how long each input channel waits for quiet before it
// dispatches. A zero Window dispatches inline on the calling goroutine.
type DebounceConfig struct {
	Window time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the edit session policy.
type SessionConfig struct {
	// AutoResignOnKeyChange re-signs the decoded token when the signing key changes.
	AutoResignOnKeyChange bool
	// PreserveExternalTokens exempts pasted tokens from AutoResignOnKeyChange.
	PreserveExternalTokens bool
	// ExpiryLeeway is subtracted from the clock before comparing exp.
	ExpiryLeeway time.Duration
	// CommonClaims supplies the values used by AddCommonClaims.
	CommonClaims CommonClaimsConfig
	// InitialPreset is loaded by Build. Empty starts with no token.
	InitialPreset string
}

// CommonClaimsConfig supplies iss, sub, aud and the exp offset for AddCommonClaims.
type CommonClaimsConfig struct {
	Issuer   string
	Subject  string
	Audience string
	TTL      time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	d := claims.DefaultDefaults()
	return Config{
		Debounce: DebounceConfig{
			Window: 300 * time.Millisecond,
		},
		Session: SessionConfig{
			AutoResignOnKeyChange: true,
			CommonClaims: CommonClaimsConfig{
				Issuer:   d.Issuer,
				Subject:  d.Subject,
				Audience: d.Audience,
				TTL:      d.TTL,
			},
			InitialPreset: "HS256",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration New starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.InitialPreset = strings.TrimSpace(cfg.Session.InitialPreset)
	return out
}

func (c CommonClaimsConfig) defaults() claims.Defaults {
	return claims.Defaults{
		Issuer:   c.Issuer,
		Subject:  c.Subject,
		Audience: c.Audience,
		TTL:      c.TTL,
	}
}

/*
====================================
VALIDATION
====================================
*/

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

// Validate reports the first setting outside its accepted range. Every error wraps
// [ErrInvalidConfig].
func (c *Config) Validate() error {
	// Debounce
	if c.Debounce.Window < 0 {
		return invalid("Debounce Window must be >= 0")
	}
	if c.Debounce.Window > maxDebounceWindow {
		return invalid("Debounce Window must be <= %s", maxDebounceWindow)
	}

	// Session
	if c.Session.ExpiryLeeway < 0 || c.Session.ExpiryLeeway > maxExpiryLeeway {
		return invalid("Session ExpiryLeeway must be within [0, %s]", maxExpiryLeeway)
	}
	if c.Session.PreserveExternalTokens && !c.Session.AutoResignOnKeyChange {
		return invalid("Session PreserveExternalTokens requires AutoResignOnKeyChange")
	}
	cc := c.Session.CommonClaims
	if cc.TTL <= 0 {
		return invalid("Session CommonClaims TTL must be > 0")
	}
	for name, v := range map[string]string{"Issuer": cc.Issuer, "Subject": cc.Subject, "Audience": cc.Audience} {
		if v != "" && strings.TrimSpace(v) == "" {
			return invalid("Session CommonClaims %s must not be blank", name)
		}
	}
	if name := strings.TrimSpace(c.Session.InitialPreset); name != "" {
		if _, err := preset.Lookup(name); err != nil {
			return invalid("Session InitialPreset %q is not a known preset", c.Session.InitialPreset)
		}
	}

	// Audit
	if c.Audit.Enabled && (c.Audit.BufferSize <= 0 || c.Audit.BufferSize > maxAuditBuffer) {
		return invalid("Audit BufferSize must be within [1, %d] when enabled", maxAuditBuffer)
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a setting that is valid but likely unintended.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but change behavior in surprising ways.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if c.Debounce.Window == 0 {
		add("debounce_disabled", "every keystroke dispatches a verify or sign immediately")
	}
	if c.Session.PreserveExternalTokens {
		add("preserve_external_tokens", "pasted tokens keep a stale signature when the signing key changes")
	}
	if !c.Session.AutoResignOnKeyChange {
		add("auto_resign_disabled", "key changes only re-verify; the token keeps its old signature")
	}
	if c.Session.ExpiryLeeway > time.Minute {
		add("leeway_large", "expiry leeway above one minute hides recently expired tokens")
	}
	if c.Session.CommonClaims.TTL > 24*time.Hour {
		add("claims_ttl_long", "common claims exp is more than a day after iat")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", "a slow audit sink blocks session transitions")
	}
	return ws
}
