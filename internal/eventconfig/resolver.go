package eventconfig

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pintcert_config_fallbacks_total",
	Help: "Year configuration lookups that fell back past the requested year",
}, []string{"level"})

// Fallback reports how far down the chain a resolution had to go.
type Fallback int

const (
	// FallbackNone means the requested year had its own entry.
	FallbackNone Fallback = iota
	// FallbackDefault means the reserved "_default" entry was used.
	FallbackDefault
	// FallbackBuiltin means neither entry existed and the built-in
	// constants were used.
	FallbackBuiltin
)

func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackDefault:
		return "default"
	case FallbackBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Source loads the configuration document.
type Source interface {
	Load(ctx context.Context) (map[string]YearConfig, error)
}

// Resolver resolves YearConfig with the year -> "_default" -> built-in
// fallback chain. Fallbacks are reported, logged, and counted but are never
// errors: certificate generation must keep working for an unconfigured
// year.
type Resolver struct {
	source Source
	logger *slog.Logger
}

// NewResolver builds a Resolver over a configuration source.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve returns the configuration for a year and the fallback level used.
// A source failure is treated the same as an empty document: the built-in
// configuration is returned and the failure is logged.
func (r *Resolver) Resolve(ctx context.Context, year int) (YearConfig, Fallback) {
	doc, err := r.source.Load(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "year config source failed, using builtin",
			slog.Int("year", year),
			slog.String("error", err.Error()))
		fallbacksTotal.WithLabelValues(FallbackBuiltin.String()).Inc()
		return Builtin(), FallbackBuiltin
	}

	if cfg, ok := doc[strconv.Itoa(year)]; ok {
		return cfg, FallbackNone
	}

	if cfg, ok := doc[DefaultKey]; ok {
		r.logger.InfoContext(ctx, "year config missing, using default entry",
			slog.Int("year", year))
		fallbacksTotal.WithLabelValues(FallbackDefault.String()).Inc()
		return cfg, FallbackDefault
	}

	r.logger.WarnContext(ctx, "year config missing, using builtin",
		slog.Int("year", year))
	fallbacksTotal.WithLabelValues(FallbackBuiltin.String()).Inc()
	return Builtin(), FallbackBuiltin
}
