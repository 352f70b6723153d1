package model

const (
	// PasswordArgon2 identifies argon2id password hashes.
	PasswordArgon2 = "argon2"
	// PasswordSHA256 identifies legacy unsalted SHA-256 password hashes.
	PasswordSHA256 = "sha256"

	// DefaultAutoDeleteDays is the retention window applied when none is configured.
	DefaultAutoDeleteDays = 30
)

// A Profile represents the identity record holding both passwords and the privacy settings.
type Profile struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID             string `msgpack:"user_id"        storm:"unique"`
	DuressUserID       string `msgpack:"duress_user_id" storm:"unique"`
	PasswordHash       string `msgpack:"password_hash"`
	DuressPasswordHash string `msgpack:"duress_password_hash"`
	PasswordAlgorithm  string `msgpack:"password_algorithm"`

	// Privacy settings
	GPSEnabled          bool `msgpack:"gps_enabled"`
	StealthModeEnabled  bool `msgpack:"stealth_mode_enabled"`
	AutoDeleteEnabled   bool `msgpack:"auto_delete_enabled"   storm:"index"`
	AutoDeleteDays      int  `msgpack:"auto_delete_days"`
	SilentAlertOnDuress bool `msgpack:"silent_alert_on_duress"`

	// Settings rendered to and edited by duress sessions.
	Decoy DecoySettings `msgpack:"decoy"`

	PasswordUpdatedAt int64 `msgpack:"password_updated_at"`
}

// DecoySettings are the privacy settings of the duress namespace.
// They never change the real settings nor the behaviour driven by them.
type DecoySettings struct {
	GPSEnabled          bool `msgpack:"gps_enabled"`
	StealthModeEnabled  bool `msgpack:"stealth_mode_enabled"`
	AutoDeleteEnabled   bool `msgpack:"auto_delete_enabled"`
	AutoDeleteDays      int  `msgpack:"auto_delete_days"`
	SilentAlertOnDuress bool `msgpack:"silent_alert_on_duress"`
}

// NewProfile returns a new profile with the safety defaults.
func NewProfile(userID string) *Profile {
	return &Profile{
		UserID:            userID,
		PasswordAlgorithm: PasswordArgon2,
		GPSEnabled:        false, // GPS stays off until explicitly enabled.
		AutoDeleteDays:    DefaultAutoDeleteDays,
		Decoy: DecoySettings{
			AutoDeleteDays: DefaultAutoDeleteDays,
		},
	}
}

// Owner implements Owned.
func (p *Profile) Owner() string {
	return p.UserID
}

// Namespaces returns the real and duress namespaces of the identity.
func (p *Profile) Namespaces() []string {
	if p.DuressUserID == "" {
		return []string{p.UserID}
	}
	return []string{p.UserID, p.DuressUserID}
}

// IsDuress returns true if namespace is the duress namespace of the identity.
func (p *Profile) IsDuress(namespace string) bool {
	return p.DuressUserID != "" && namespace == p.DuressUserID
}

// ViewFor returns the profile as seen from the given namespace.
// The duress namespace sees its decoy settings in place of the real ones and no password material.
func (p *Profile) ViewFor(namespace string) *Profile {
	if !p.IsDuress(namespace) {
		return p
	}

	view := *p
	view.PasswordHash = ""
	view.DuressPasswordHash = ""
	view.GPSEnabled = p.Decoy.GPSEnabled
	view.StealthModeEnabled = p.Decoy.StealthModeEnabled
	view.AutoDeleteEnabled = p.Decoy.AutoDeleteEnabled
	view.AutoDeleteDays = p.Decoy.AutoDeleteDays
	view.SilentAlertOnDuress = p.Decoy.SilentAlertOnDuress
	if view.AutoDeleteDays < 1 {
		view.AutoDeleteDays = DefaultAutoDeleteDays
	}
	return &view
}
