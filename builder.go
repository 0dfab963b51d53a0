package jwtlab

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/MrEthical07/jwtlab/internal/audit"
	"github.com/MrEthical07/jwtlab/internal/debounce"
	"github.com/MrEthical07/jwtlab/internal/flows"
	internalmetrics "github.com/MrEthical07/jwtlab/internal/metrics"
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/preset"
)

// Builder assembles a [Session]. A Builder is single-use.
type Builder struct {
	config    Config
	logger    *slog.Logger
	auditSink AuditSink
	observers []Observer
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the sink fed by the audit dispatcher and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles sign and verify latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithDebounceWindow overrides Config.Debounce.Window.
func (b *Builder) WithDebounceWindow(d time.Duration) *Builder {
	b.config.Debounce.Window = d
	return b
}

// WithInitialPreset overrides Config.Session.InitialPreset. Empty starts blank.
func (b *Builder) WithInitialPreset(name string) *Builder {
	b.config.Session.InitialPreset = name
	return b
}

// WithObserver registers a callback invoked after every applied transition.
func (b *Builder) WithObserver(o Observer) *Builder {
	if o != nil {
		b.observers = append(b.observers, o)
	}
	return b
}

// WithClock overrides the clock used for expiry and common claims.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and starts a Session. When an initial preset
// is configured its token is being signed when Build returns; call Settle to wait.
func (b *Builder) Build() (*Session, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: logger,
		deps: flows.Deps{
			Now:                    now,
			ExpiryLeeway:           cfg.Session.ExpiryLeeway,
			AutoResignOnKeyChange:  cfg.Session.AutoResignOnKeyChange,
			PreserveExternalTokens: cfg.Session.PreserveExternalTokens,
			CommonClaims:           cfg.Session.CommonClaims.defaults(),
		},
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:                 cfg.Metrics.Enabled,
			EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		verifier:  jwt.NewVerifier(),
		signer:    jwt.NewSigner(),
		observers: append([]Observer(nil), b.observers...),
		ctx:       ctx,
		cancel:    cancel,
		tracker:   &debounce.Tracker{},
	}
	for _, ch := range flows.Channels() {
		s.debouncers[ch] = debounce.New(cfg.Debounce.Window, s.tracker)
	}
	s.logger = logger.With(slog.String("session_id", s.id))

	if name := cfg.Session.InitialPreset; name != "" {
		p, err := preset.Lookup(name)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.logger.Debug("loading initial preset", slog.String("preset", p.Name))
		s.dispatch(presetEvent(p))
	}
	return s, nil
}

func presetEvent(p preset.Preset) flows.AlgorithmSwitched {
	return flows.AlgorithmSwitched{
		Algorithm: p.Algorithm,
		Keys:      p.Keys,
		Header:    p.Header,
		Claims:    p.Claims,
		Preset:    p.Name,
	}
}
