package repository

import (
	"context"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// Settings are the privacy settings of a profile.
// Nil values are left unchanged.
type Settings struct {
	GPSEnabled          *bool `json:"gps_enabled"`
	StealthModeEnabled  *bool `json:"stealth_mode_enabled"`
	AutoDeleteEnabled   *bool `json:"auto_delete_enabled"`
	AutoDeleteDays      *int  `json:"auto_delete_days"`
	SilentAlertOnDuress *bool `json:"silent_alert_on_duress"`
}

// Profile returns the profile owning the given namespace, real or duress.
func (r *Repository) Profile(ctx context.Context, namespace string) (*model.Profile, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	return r.profile(namespace)
}

// ProfileView returns the profile as seen from the namespace.
// The duress namespace only ever sees its decoy settings.
func (r *Repository) ProfileView(ctx context.Context, namespace string) (*model.Profile, error) {
	profile, err := r.Profile(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return profile.ViewFor(namespace), nil
}

// UpdateSettings applies the given settings to the profile owning the namespace.
// From the duress namespace only the decoy settings are changed.
func (r *Repository) UpdateSettings(ctx context.Context, namespace string, settings Settings) (*model.Profile, error) {
	profile, err := r.Profile(ctx, namespace)
	if err != nil {
		return nil, err
	}

	if settings.AutoDeleteDays != nil && *settings.AutoDeleteDays < 1 {
		return nil, sherror.Validation("auto-delete days must be positive")
	}

	if profile.IsDuress(namespace) {
		decoy := &profile.Decoy
		apply(&decoy.GPSEnabled, settings.GPSEnabled)
		apply(&decoy.StealthModeEnabled, settings.StealthModeEnabled)
		apply(&decoy.AutoDeleteEnabled, settings.AutoDeleteEnabled)
		apply(&decoy.AutoDeleteDays, settings.AutoDeleteDays)
		apply(&decoy.SilentAlertOnDuress, settings.SilentAlertOnDuress)
	} else {
		apply(&profile.GPSEnabled, settings.GPSEnabled)
		apply(&profile.StealthModeEnabled, settings.StealthModeEnabled)
		apply(&profile.AutoDeleteEnabled, settings.AutoDeleteEnabled)
		apply(&profile.AutoDeleteDays, settings.AutoDeleteDays)
		apply(&profile.SilentAlertOnDuress, settings.SilentAlertOnDuress)
	}

	if err = r.save(profile, "persist profile"); err != nil {
		return nil, err
	}
	return profile.ViewFor(namespace), nil
}

// ProfilesWithAutoDelete returns all the profiles having record expiry enabled.
func (r *Repository) ProfilesWithAutoDelete(ctx context.Context) ([]*model.Profile, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	profiles, err := r.db.FindProfilesWithAutoDelete()
	if err != nil {
		return nil, sherror.Storage(err, "list profiles")
	}
	return profiles, nil
}

// SurvivorProfile returns the intersectional profile of the namespace.
// An empty profile is returned when none was saved.
func (r *Repository) SurvivorProfile(ctx context.Context, namespace string) (*model.SurvivorProfile, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	profile, err := r.db.FindSurvivorProfile(namespace)
	if err != nil {
		if r.db.IsNotFound(err) {
			return &model.SurvivorProfile{UserID: namespace}, nil
		}
		return nil, sherror.Storage(err, "get survivor profile")
	}
	return profile, nil
}

// SaveSurvivorProfile persists the intersectional profile of the namespace.
func (r *Repository) SaveSurvivorProfile(ctx context.Context, namespace string, profile *model.SurvivorProfile) (*model.SurvivorProfile, error) {
	current, err := r.SurvivorProfile(ctx, namespace)
	if err != nil {
		return nil, err
	}

	// Keep the record identity, the flags are replaced as a whole.
	profile.Base = current.Base
	profile.UserID = namespace

	if err = r.save(profile, "persist survivor profile"); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *Repository) profile(namespace string) (*model.Profile, error) {
	profile, err := r.db.FindProfile(namespace)
	if err == nil {
		return profile, nil
	}
	if !r.db.IsNotFound(err) {
		return nil, sherror.Storage(err, "get profile")
	}

	profile, err = r.db.FindProfileByDuressUserID(namespace)
	if err != nil {
		return nil, r.fail(err, "profile", "get profile")
	}
	return profile, nil
}

func apply[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
