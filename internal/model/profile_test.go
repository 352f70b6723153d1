package model_test

import (
	"testing"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestProfile_ViewFor(t *testing.T) {
	profile := model.NewProfile("alice")
	profile.DuressUserID = "alice-duress"
	profile.PasswordHash = "real-hash"
	profile.DuressPasswordHash = "duress-hash"
	profile.GPSEnabled = true
	profile.SilentAlertOnDuress = true
	profile.AutoDeleteDays = 7
	profile.Decoy.StealthModeEnabled = true

	assert.Same(t, profile, profile.ViewFor("alice"))

	view := profile.ViewFor("alice-duress")
	assert.Equal(t, "alice", view.UserID)
	assert.Empty(t, view.PasswordHash)
	assert.Empty(t, view.DuressPasswordHash)
	assert.False(t, view.GPSEnabled)
	assert.False(t, view.SilentAlertOnDuress)
	assert.True(t, view.StealthModeEnabled)
	assert.Equal(t, model.DefaultAutoDeleteDays, view.AutoDeleteDays)

	// The profile itself is left untouched.
	assert.True(t, profile.GPSEnabled)
	assert.Equal(t, "real-hash", profile.PasswordHash)
}

func TestProfile_IsDuress(t *testing.T) {
	profile := model.NewProfile("alice")
	assert.False(t, profile.IsDuress(""))

	profile.DuressUserID = "alice-duress"
	assert.True(t, profile.IsDuress("alice-duress"))
	assert.False(t, profile.IsDuress("alice"))
}
