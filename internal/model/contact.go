package model

import "time"

// A Contact is an emergency contact alerted by SOS.
type Contact struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID                 string     `msgpack:"user_id"     storm:"index"`
	Name                   string     `msgpack:"name"`
	PhoneNumber            string     `msgpack:"phone_number"`
	Relationship           string     `msgpack:"relationship,omitempty"`
	IsPrimary              bool       `msgpack:"is_primary"`
	CustomMessageEncrypted string     `msgpack:"custom_message,omitempty"`
	IsVerified             bool       `msgpack:"is_verified"`
	LastTestedAt           *time.Time `msgpack:"last_tested_at,omitempty"`
	SendLocationUpdates    bool       `msgpack:"send_location_updates"`
}

// Owner implements Owned.
func (c *Contact) Owner() string {
	return c.UserID
}

// How an SOS session was started or stopped.
const (
	SOSMethodButton     = "long_press"
	SOSMethodShake      = "shake"
	SOSMethodDuress     = "duress_login"
	SOSMethodFalseAlarm = "false_alarm"
	SOSMethodManual     = "manual"
)

// A SOSSession tracks an emergency alert for a namespace.
type SOSSession struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID             string     `msgpack:"user_id"  storm:"index"`
	Active             bool       `msgpack:"active"   storm:"index"`
	ActivationMethod   string     `msgpack:"activation_method"`
	DeactivationMethod string     `msgpack:"deactivation_method,omitempty"`
	IncludeLocation    bool       `msgpack:"include_location"`
	FalseAlarm         bool       `msgpack:"false_alarm"`
	ActivatedAt        time.Time  `msgpack:"activated_at"`
	DeactivatedAt      *time.Time `msgpack:"deactivated_at,omitempty"`
}

// Owner implements Owned.
func (s *SOSSession) Owner() string {
	return s.UserID
}
