package model

import (
	"time"
)

// A Session represents an authenticated namespace.
// Duress sessions are indistinguishable from real ones outside of the server.
type Session struct {
	Base `msgpack:",inline" storm:"inline"`

	ExpireAt    time.Time `msgpack:"expire_at"`
	UserID      string    `msgpack:"user_id"      storm:"index"`
	Duress      bool      `msgpack:"duress"`
	UserAgent   string    `msgpack:"user_agent"`
	AccessToken string    `msgpack:"access_token" storm:"unique"`
}

// Owner implements Owned.
func (s *Session) Owner() string {
	return s.UserID
}
