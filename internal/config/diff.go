package config

// ChangeSet describes what changed between two configs. Only fields that can
// be safely hot-reloaded are tracked; provider and persistence changes
// require a restart.
type ChangeSet struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SessionDefaultsChanged is true when the defaults applied to NEW
	// sessions changed. Running sessions keep the settings they started with.
	SessionDefaultsChanged bool
	NewSessionDefaults     SessionConfig
}

// Any reports whether the change set contains anything to apply.
func (c ChangeSet) Any() bool {
	return c.LogLevelChanged || c.SessionDefaultsChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ChangeSet {
	var c ChangeSet

	if old.Server.LogLevel != new.Server.LogLevel {
		c.LogLevelChanged = true
		c.NewLogLevel = new.Server.LogLevel
	}

	if old.Session != new.Session {
		c.SessionDefaultsChanged = true
		c.NewSessionDefaults = new.Session
	}

	return c
}
