package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxFailedAttempts is the number of consecutive failures that locks the authenticator.
const MaxFailedAttempts = 5

// An Outcome is the result of a credential check.
type Outcome int

// Outcomes.
const (
	Failure Outcome = iota
	Real
	Duress
)

func (o Outcome) String() string {
	switch o {
	case Real:
		return "real"
	case Duress:
		return "duress"
	}
	return "failure"
}

// A credential is the password a change applies to.
type credential int

const (
	realPassword credential = iota
	duressPassword
	decoyPassword
)

// A Result is returned by Authenticate.
type Result struct {
	Outcome Outcome
	// Namespace is the namespace to operate on: the user id for Real and the
	// duress user id for Duress.
	Namespace      string
	Profile        *model.Profile
	FailedAttempts int
	Locked         bool
}

// An Authenticator checks credentials against the real and duress passwords.
type Authenticator struct {
	db      database.Client
	hasher  Hasher
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time

	mu       sync.Mutex
	failures int

	dummyOnce sync.Once
	dummy     string
}

// An Option configures an Authenticator.
type Option func(*Authenticator)

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Authenticator) {
		a.log = l
	}
}

// New returns a new Authenticator hashing new passwords with the given hasher.
func New(db database.Client, hasher Hasher, opts ...Option) *Authenticator {
	a := &Authenticator{
		db:     db,
		hasher: hasher,
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateProfile creates a new identity with its real and duress passwords.
func (a *Authenticator) CreateProfile(ctx context.Context, userID, password, duressPassword string) (*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return nil, sherror.Validation("user id must not be blank")
	case password == "":
		return nil, sherror.Validation("password must not be blank")
	case duressPassword == "":
		return nil, sherror.Validation("duress password must not be blank")
	case password == duressPassword:
		return nil, sherror.Validation("duress password must differ from the password")
	}

	_, err := a.db.FindProfile(userID)
	if err == nil {
		return nil, sherror.Validation("user id %q is already taken", userID)
	}
	if !a.db.IsNotFound(err) {
		return nil, sherror.Storage(err, "get access to database")
	}

	profile := model.NewProfile(userID)
	profile.DuressUserID = uuid.Must(uuid.NewV4()).String()
	profile.PasswordAlgorithm = a.hasher.Name()

	if profile.PasswordHash, err = a.hasher.Hash(password); err != nil {
		return nil, err
	}
	if profile.DuressPasswordHash, err = a.hasher.Hash(duressPassword); err != nil {
		return nil, err
	}
	profile.PasswordUpdatedAt = a.now().Unix()

	if err = a.db.Save(profile); err != nil {
		if a.db.IsAlreadyExists(err) {
			return nil, sherror.Validation("user id %q is already taken", userID)
		}
		return nil, sherror.Storage(err, "persist profile")
	}

	a.log.WithField("profile", profile.ID).Info("profile created")
	return profile, nil
}

// Authenticate checks the password against the real then the duress password of the given user.
// Both hashes are always compared so the outcome does not leak through timing.
func (a *Authenticator) Authenticate(ctx context.Context, userID, password string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	profile, err := a.db.FindProfile(userID)
	if err != nil {
		if !a.db.IsNotFound(err) {
			return Result{}, sherror.Storage(err, "get access to database")
		}

		// Same cost as a known user.
		dummy := a.dummyHash()
		_, _ = a.hasher.Compare(dummy, password)
		_, _ = a.hasher.Compare(dummy, password)
		return a.failure(), nil
	}

	hasher, err := NewHasher(profile.PasswordAlgorithm)
	if err != nil {
		return Result{}, err
	}

	isReal, err := hasher.Compare(profile.PasswordHash, password)
	if err != nil {
		return Result{}, err
	}
	isDuress, err := hasher.Compare(profile.DuressPasswordHash, password)
	if err != nil {
		return Result{}, err
	}

	switch {
	case isReal:
		return a.success(Real, profile.UserID, profile), nil
	case isDuress:
		return a.success(Duress, profile.DuressUserID, profile), nil
	}
	return a.failure(), nil
}

// ChangePassword replaces the real password after checking the current one.
func (a *Authenticator) ChangePassword(ctx context.Context, userID, current, next string) error {
	return a.change(ctx, userID, current, next, realPassword)
}

// ChangeDuressPassword replaces the duress password after checking the real one.
func (a *Authenticator) ChangeDuressPassword(ctx context.Context, userID, current, next string) error {
	return a.change(ctx, userID, current, next, duressPassword)
}

// ChangeDecoyPassword is the password change of a duress session.
// It checks the duress password and replaces it, the real password is never touched.
// A next password equal to the real one leaves both hashes unchanged and reports success.
func (a *Authenticator) ChangeDecoyPassword(ctx context.Context, userID, current, next string) error {
	return a.change(ctx, userID, current, next, decoyPassword)
}

// FailedAttempts returns the number of consecutive failures.
func (a *Authenticator) FailedAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.failures
}

// Locked returns true once MaxFailedAttempts consecutive failures happened.
func (a *Authenticator) Locked() bool {
	return a.FailedAttempts() >= MaxFailedAttempts
}

func (a *Authenticator) change(ctx context.Context, userID, current, next string, kind credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if next == "" {
		return sherror.Validation("password must not be blank")
	}

	profile, err := a.db.FindProfile(userID)
	if err != nil {
		if a.db.IsNotFound(err) {
			return sherror.Unauthorized()
		}
		return sherror.Storage(err, "get access to database")
	}

	// Both hashes of a profile always share the same algorithm.
	hasher, err := NewHasher(profile.PasswordAlgorithm)
	if err != nil {
		return err
	}

	checked, other := profile.PasswordHash, profile.DuressPasswordHash
	switch kind {
	case duressPassword:
		other = profile.PasswordHash
	case decoyPassword:
		checked, other = profile.DuressPasswordHash, profile.PasswordHash
	}

	ok, err := hasher.Compare(checked, current)
	if err != nil {
		return err
	}
	if !ok {
		return sherror.NewWithTagCode(sherror.KindUnauthorized, http.StatusUnauthorized, "invalid-auth", "The current password you entered is incorrect.")
	}

	if same, err := hasher.Compare(other, next); err != nil {
		return err
	} else if same {
		if kind == decoyPassword {
			return nil
		}
		return sherror.Validation("duress password must differ from the password")
	}

	hash, err := hasher.Hash(next)
	if err != nil {
		return err
	}
	if kind == realPassword {
		profile.PasswordHash = hash
	} else {
		profile.DuressPasswordHash = hash
	}
	profile.PasswordUpdatedAt = a.now().Unix()

	return errors.Wrap(a.db.Save(profile), "could not persist profile")
}

func (a *Authenticator) success(outcome Outcome, namespace string, profile *model.Profile) Result {
	a.mu.Lock()
	a.failures = 0
	a.mu.Unlock()

	a.metrics.IncrementAuthAttempt(true)
	// The log line is the same for both outcomes.
	a.log.Info("authentication succeeded")

	return Result{
		Outcome:   outcome,
		Namespace: namespace,
		Profile:   profile,
	}
}

func (a *Authenticator) failure() Result {
	a.mu.Lock()
	a.failures++
	n := a.failures
	a.mu.Unlock()

	a.metrics.IncrementAuthAttempt(false)
	a.log.WithField("attempts", n).Warn("authentication failed")

	return Result{
		Outcome:        Failure,
		FailedAttempts: n,
		Locked:         n >= MaxFailedAttempts,
	}
}

func (a *Authenticator) dummyHash() string {
	a.dummyOnce.Do(func() {
		a.dummy, _ = a.hasher.Hash(uuid.Must(uuid.NewV4()).String())
	})
	return a.dummy
}
