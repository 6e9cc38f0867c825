package featuregate

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// EnvOverride is the environment variable carrying the runtime override.
// When set to a parseable boolean it takes precedence over the persisted
// configuration flag.
const EnvOverride = "GANYMEDE_STORE_ENABLED"

// Resolve computes the effective enabled state from the persisted config flag
// and an optional runtime override. A non-nil override always wins.
func Resolve(configEnabled bool, override *bool) bool {
	if override != nil {
		return *override
	}
	return configEnabled
}

// OverrideFromEnv reads the runtime override from the environment. It returns
// nil when the variable is unset or not a parseable boolean, so a malformed
// value never silently disables persistence.
func OverrideFromEnv() *bool {
	val, ok := os.LookupEnv(EnvOverride)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		slog.Warn("ignoring unparseable feature gate override",
			"var", EnvOverride,
			"value", val,
		)
		return nil
	}
	return &b
}

// Gate caches the resolved effective state. Both input signals can be updated
// independently; every update re-resolves so Enabled stays an O(1) read.
type Gate struct {
	mu            sync.RWMutex
	configEnabled bool
	override      *bool
	effective     bool
	logger        *slog.Logger
}

// New creates a Gate from the persisted config flag, applying any runtime
// environment override immediately.
func New(configEnabled bool) *Gate {
	g := &Gate{
		configEnabled: configEnabled,
		override:      OverrideFromEnv(),
		logger:        slog.Default().With("component", "featuregate"),
	}
	g.effective = Resolve(g.configEnabled, g.override)

	if g.override != nil {
		g.logger.Info("runtime override active",
			"override", *g.override,
			"config_enabled", configEnabled,
		)
	}
	return g
}

// Enabled returns the cached effective state.
func (g *Gate) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.effective
}

// ConfigEnabled returns the persisted configuration signal.
func (g *Gate) ConfigEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.configEnabled
}

// SetConfig updates the persisted configuration signal, typically on a config
// file reload, and re-resolves the effective state.
func (g *Gate) SetConfig(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.configEnabled == enabled {
		return
	}
	g.configEnabled = enabled
	prev := g.effective
	g.effective = Resolve(g.configEnabled, g.override)
	if prev != g.effective {
		g.logger.Info("effective gate state changed",
			"enabled", g.effective,
			"source", "config",
		)
	}
}

// SetOverride replaces the runtime override signal. A nil override restores
// the persisted configuration as the deciding signal.
func (g *Gate) SetOverride(override *bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.override = override
	prev := g.effective
	g.effective = Resolve(g.configEnabled, g.override)
	if prev != g.effective {
		g.logger.Info("effective gate state changed",
			"enabled", g.effective,
			"source", "override",
		)
	}
}

// Invalidate re-reads the environment override and re-resolves. Exposed for
// operators toggling the override on a live process via signal-driven reload.
func (g *Gate) Invalidate() {
	g.SetOverride(OverrideFromEnv())
}
