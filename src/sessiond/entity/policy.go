package entity

// Policy holds the entitlement-derived feature flags supplied by the tier policy provider.
type Policy struct {
	// MaxSessions limits concurrently stored sessions. Zero or negative means unlimited.
	MaxSessions         int  `json:"maxSessions" yaml:"maxSessions"`
	AutoRestoreEligible bool `json:"autoRestoreEligible" yaml:"autoRestoreEligible"`
	EphemeralMode       bool `json:"ephemeralMode" yaml:"ephemeralMode"`
}

// Unlimited reports whether the policy places no cap on the number of sessions.
func (p Policy) Unlimited() bool {
	return p.MaxSessions <= 0
}

// Allows reports whether one more session may be created when count sessions exist.
func (p Policy) Allows(count int) bool {
	return p.Unlimited() || count < p.MaxSessions
}

// Preference is a tri-state user preference stored as an optional boolean.
type Preference int

const (
	// PreferenceUnset means no value has been stored.
	PreferenceUnset Preference = iota
	// PreferenceEnabled means the stored value is true.
	PreferenceEnabled
	// PreferenceDisabled means the stored value is false.
	PreferenceDisabled
)

// PreferenceAutoRestore is the storage key of the auto-restore preference.
const PreferenceAutoRestore = "autoRestore"

// Effective resolves the preference to a boolean. Unset resolves to disabled.
func (p Preference) Effective() bool {
	return p == PreferenceEnabled
}

// String implements fmt.Stringer.
func (p Preference) String() string {
	switch p {
	case PreferenceEnabled:
		return "enabled"
	case PreferenceDisabled:
		return "disabled"
	default:
		return "unset"
	}
}

// PreferenceOf converts a boolean into its stored preference.
func PreferenceOf(enabled bool) Preference {
	if enabled {
		return PreferenceEnabled
	}
	return PreferenceDisabled
}
