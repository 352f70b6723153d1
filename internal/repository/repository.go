package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/mdouchement/safehaven/pkg/fieldcrypt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the default coalescing window of live subscriptions.
const DefaultDebounce = 50 * time.Millisecond

// A Repository is the single point translating between plaintext values and
// their sealed persisted form. Reads return entities exactly as stored, the
// Open* methods decrypt them on demand.
type Repository struct {
	db       database.Client
	keyring  *fieldcrypt.Keyring
	vault    *Vault
	log      logrus.FieldLogger
	debounce time.Duration
	now      func() time.Time

	journeys sync.Mutex
}

// An Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) {
		r.log = l
	}
}

// WithDebounce sets the coalescing window of live subscriptions.
func WithDebounce(d time.Duration) Option {
	return func(r *Repository) {
		r.debounce = d
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New returns a new Repository storing blobs in the given vault.
func New(db database.Client, keyring *fieldcrypt.Keyring, vault *Vault, opts ...Option) *Repository {
	r := &Repository{
		db:       db,
		keyring:  keyring,
		vault:    vault,
		log:      logrus.StandardLogger(),
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Database returns the underlying storage client.
func (r *Repository) Database() database.Client {
	return r.db
}

// Seal encrypts the given plaintext with the namespace key.
// Blank values are stored as is.
func (r *Repository) Seal(namespace, plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return plaintext, nil
	}

	ciphertext, err := r.keyring.Codec(namespace).Encrypt(plaintext)
	return ciphertext, errors.Wrap(err, "could not seal value")
}

// Open decrypts the given ciphertext with the namespace key.
// It fails closed: no partial plaintext is ever returned.
func (r *Repository) Open(namespace, ciphertext string) (string, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return ciphertext, nil
	}

	plaintext, err := r.keyring.Codec(namespace).Decrypt(ciphertext)
	if err != nil {
		return "", sherror.Crypto(err)
	}
	return plaintext, nil
}

// sealer seals a batch of fields and keeps the first error.
type sealer struct {
	r         *Repository
	namespace string
	err       error
}

func (r *Repository) sealer(namespace string) *sealer {
	return &sealer{r: r, namespace: namespace}
}

func (s *sealer) seal(plaintext string) string {
	if s.err != nil {
		return ""
	}

	var v string
	v, s.err = s.r.Seal(s.namespace, plaintext)
	return v
}

// sealAll seals every item on its own.
func (s *sealer) sealAll(plaintexts []string) []string {
	if len(plaintexts) == 0 {
		return nil
	}

	sealed := make([]string, 0, len(plaintexts))
	for _, plaintext := range plaintexts {
		sealed = append(sealed, s.seal(plaintext))
	}
	return sealed
}

// opener opens a batch of fields and keeps the first error.
type opener struct {
	r         *Repository
	namespace string
	err       error
}

func (r *Repository) opener(namespace string) *opener {
	return &opener{r: r, namespace: namespace}
}

func (o *opener) open(ciphertext string) string {
	if o.err != nil {
		return ""
	}

	var v string
	v, o.err = o.r.Open(o.namespace, ciphertext)
	return v
}

func (o *opener) openAll(ciphertexts []string) []string {
	if len(ciphertexts) == 0 {
		return nil
	}

	opened := make([]string, 0, len(ciphertexts))
	for _, ciphertext := range ciphertexts {
		opened = append(opened, o.open(ciphertext))
	}
	return opened
}

func (r *Repository) fail(err error, entity, operation string) error {
	if err == nil {
		return nil
	}
	if r.db.IsNotFound(err) {
		return sherror.NotFound(entity)
	}
	return sherror.Storage(err, operation)
}

func (r *Repository) save(m model.Model, operation string) error {
	if err := r.db.Save(m); err != nil {
		return sherror.Storage(err, operation)
	}
	return nil
}

func alive(ctx context.Context) error {
	return errors.Wrap(ctx.Err(), "operation cancelled")
}
