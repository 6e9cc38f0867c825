package featuregate

import "testing"

func boolPtr(b bool) *bool { return &b }

// TestResolve tests the pure two-source resolution: override wins when
// present, config decides otherwise.
func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		config   bool
		override *bool
		want     bool
	}{
		{name: "config true no override", config: true, override: nil, want: true},
		{name: "config false no override", config: false, override: nil, want: false},
		{name: "override true beats config false", config: false, override: boolPtr(true), want: true},
		{name: "override false beats config true", config: true, override: boolPtr(false), want: false},
		{name: "override agrees with config", config: true, override: boolPtr(true), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.config, tt.override); got != tt.want {
				t.Errorf("Resolve(%v, %v) = %v, want %v", tt.config, tt.override, got, tt.want)
			}
		})
	}
}

// TestOverrideFromEnv tests parsing of the runtime override variable.
func TestOverrideFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  *bool
	}{
		{name: "unset", set: false, want: nil},
		{name: "true", value: "true", set: true, want: boolPtr(true)},
		{name: "false", value: "false", set: true, want: boolPtr(false)},
		{name: "numeric false", value: "0", set: true, want: boolPtr(false)},
		{name: "garbage ignored", value: "maybe", set: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv(EnvOverride, tt.value)
			}

			got := OverrideFromEnv()
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("OverrideFromEnv() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("OverrideFromEnv() = nil, want %v", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("OverrideFromEnv() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

// TestGate_ConfigReload tests that SetConfig re-resolves the cached state.
func TestGate_ConfigReload(t *testing.T) {
	g := New(true)
	if !g.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}

	g.SetConfig(false)
	if g.Enabled() {
		t.Error("Enabled() = true after SetConfig(false), want false")
	}

	g.SetConfig(true)
	if !g.Enabled() {
		t.Error("Enabled() = false after SetConfig(true), want true")
	}
}

// TestGate_OverrideWins tests that a runtime override shadows config updates
// until it is cleared.
func TestGate_OverrideWins(t *testing.T) {
	g := New(true)

	g.SetOverride(boolPtr(false))
	if g.Enabled() {
		t.Fatal("Enabled() = true with override false, want false")
	}

	// Config changes do not shine through an active override.
	g.SetConfig(true)
	if g.Enabled() {
		t.Error("Enabled() = true, override should still win")
	}

	// Clearing the override restores the config signal.
	g.SetOverride(nil)
	if !g.Enabled() {
		t.Error("Enabled() = false after clearing override, want config value true")
	}
}

// TestGate_EnvOverrideAtConstruction tests that New picks up the environment
// override immediately.
func TestGate_EnvOverrideAtConstruction(t *testing.T) {
	t.Setenv(EnvOverride, "false")

	g := New(true)
	if g.Enabled() {
		t.Error("Enabled() = true, want env override false to win")
	}

	// Invalidate re-reads the environment.
	t.Setenv(EnvOverride, "true")
	g.Invalidate()
	if !g.Enabled() {
		t.Error("Enabled() = false after Invalidate with env true")
	}
}
