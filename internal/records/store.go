// Package records maintains the authoritative patient list, keeps it
// synchronized with the blob store, and reconciles it with the note drafts of
// open patient detail views.
//
// Every mutation is applied in memory first and then written through. A
// rejected write never rolls the in-memory state back; it is reported as a
// *PersistError so callers can show a warning and keep working.
package records

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/storage"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("patient not found")
	// ErrDuplicateID is returned when inserting a record whose id is taken.
	ErrDuplicateID = errors.New("patient id already exists")
)

// PersistError reports a change that is live in memory but was not written
// to durable storage.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("change kept in memory, write of %s failed: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Warning returns the message shown to the user.
func (e *PersistError) Warning() string {
	if errors.Is(e.Err, storage.ErrQuotaExceeded) {
		return "Peringatan: Penyimpanan penuh. Data pasien baru mungkin tidak tersimpan permanen. " +
			"Cobalah hapus beberapa data atau gunakan foto profil yang lebih kecil."
	}
	return "Peringatan: Perubahan belum tersimpan permanen. Silakan coba lagi."
}

// AsPersistError reports whether err carries a *PersistError.
func AsPersistError(err error) (*PersistError, bool) {
	var pe *PersistError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Store is the record store. It is safe for concurrent use; mutations are
// serialized so each one is applied and written before the next starts.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex // orders change hook runs; taken while mu is held
	kv       storage.Store
	patients []models.Patient
	// drafts holds draft text seen by this process, including edits whose
	// write failed, so they survive until committed.
	drafts map[string]string
	// unsaved marks drafts whose latest write failed.
	unsaved map[string]bool

	defaults  func() []models.Patient
	logger    *zap.Logger
	onChange  []func([]models.Patient)
	onWarning func(*PersistError)
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for load and persistence problems.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDefaults sets the dataset used when nothing usable is persisted.
func WithDefaults(fn func() []models.Patient) Option {
	return func(s *Store) { s.defaults = fn }
}

// WithChangeHook registers fn to run with a snapshot of the collection after
// every in-memory change. Hooks run outside the store lock, one at a time, in
// mutation order.
func WithChangeHook(fn func([]models.Patient)) Option {
	return func(s *Store) { s.onChange = append(s.onChange, fn) }
}

// WithWarningHook registers fn to run whenever a write is rejected.
func WithWarningHook(fn func(*PersistError)) Option {
	return func(s *Store) { s.onWarning = fn }
}

// WithClock overrides the time source used for admission dates and draft timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how ids are generated for inserted records.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns a store backed by kv. Call Load before use.
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		drafts:   make(map[string]string),
		unsaved:  make(map[string]bool),
		defaults: func() []models.Patient { return nil },
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	s.newID = s.randomID
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a loaded store.
func Open(ctx context.Context, kv storage.Store, opts ...Option) *Store {
	s := New(kv, opts...)
	s.Load(ctx)
	return s
}

// Load reads the persisted collection, falling back to the default dataset
// when it is absent, unparsable, or violates id uniqueness. It never fails.
// Drafts cached in memory are dropped; persisted drafts are untouched.
func (s *Store) Load(ctx context.Context) []models.Patient {
	loaded := storage.LoadJSON(ctx, s.kv, storage.KeyPatients, s.defaults, checkIDs, s.logger)

	s.mu.Lock()
	s.patients = clonePatients(loaded)
	s.drafts = make(map[string]string)
	s.unsaved = make(map[string]bool)
	snap := clonePatients(s.patients)
	s.logger.Debug("patients loaded", zap.Int("count", len(snap)))
	s.unlockAndNotify(snap)
	return snap
}

func checkIDs(patients []models.Patient) error {
	seen := make(map[string]struct{}, len(patients))
	for i, p := range patients {
		if p.ID == "" {
			return fmt.Errorf("record %d has no id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// List returns a copy of the collection, most recent first.
func (s *Store) List() []models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePatients(s.patients)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patients)
}

// Get returns the record with id.
func (s *Store) Get(id string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Patient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.patients[i], nil
}

// Filter returns the records whose name, id or condition contains query
// (case-insensitive) and, when doctor is non-empty, whose assigned doctor is
// exactly doctor.
func (s *Store) Filter(query, doctor string) []models.Patient {
	q := strings.ToLower(query)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		matches := strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.ID), q) ||
			strings.Contains(strings.ToLower(p.Condition), q)
		if !matches {
			continue
		}
		if doctor != "" && p.AssignedDoctor != doctor {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ReplaceAll replaces the collection and writes it. The records must have
// unique, non-empty ids. Drafts of records no longer present are removed.
func (s *Store) ReplaceAll(ctx context.Context, patients []models.Patient) error {
	if err := checkIDs(patients); err != nil {
		return &models.ValidationError{Fields: []string{"id"}, Messages: []string{err.Error()}}
	}
	s.mu.Lock()
	s.patients = clonePatients(patients)
	err := s.persistLocked(ctx)
	s.pruneDraftsLocked(ctx)
	snap := clonePatients(s.patients)
	s.unlockAndNotify(snap)
	return err
}

// Upsert applies patch to the record with id, leaving every unpatched field
// as it was. It returns ErrNotFound, and changes nothing, when id is absent.
func (s *Store) Upsert(ctx context.Context, id string, patch models.PatientPatch) (models.Patient, error) {
	if err := validatePatch(patch); err != nil {
		return models.Patient{}, err
	}
	s.mu.Lock()
	updated, err := s.upsertLocked(ctx, id, patch)
	if errors.Is(err, ErrNotFound) {
		s.mu.Unlock()
		return models.Patient{}, err
	}
	snap := clonePatients(s.patients)
	s.unlockAndNotify(snap)
	return updated, err
}

func validatePatch(patch models.PatientPatch) error {
	if err := models.Validate(patch); err != nil {
		return err
	}
	ve := &models.ValidationError{}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		ve.Fields = append(ve.Fields, "name")
		ve.Messages = append(ve.Messages, "name is required")
	}
	if patch.Condition != nil && strings.TrimSpace(*patch.Condition) == "" {
		ve.Fields = append(ve.Fields, "condition")
		ve.Messages = append(ve.Messages, "condition is required")
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (s *Store) upsertLocked(ctx context.Context, id string, patch models.PatientPatch) (models.Patient, error) {
	i := s.indexLocked(id)
	if i < 0 {
		return models.Patient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.patients[i] = patch.Apply(s.patients[i])
	return s.patients[i], s.persistLocked(ctx)
}

// SetStatus changes only the status of the record with id.
func (s *Store) SetStatus(ctx context.Context, id string, status models.Status) (models.Patient, error) {
	if !status.Valid() {
		return models.Patient{}, &models.ValidationError{
			Fields:   []string{"status"},
			Messages: []string{"status must be one of: Kritis Stabil Pemulihan Pulang"},
		}
	}
	return s.Upsert(ctx, id, models.PatientPatch{Status: &status})
}

// Insert validates in, fills defaults, assigns an id when none is given, and
// prepends the new record. Invalid input is rejected before anything changes.
func (s *Store) Insert(ctx context.Context, in models.NewPatient) (models.Patient, error) {
	in.Normalize()
	if err := models.Validate(in); err != nil {
		return models.Patient{}, err
	}

	s.mu.Lock()
	id := in.ID
	if id == "" {
		id = s.uniqueIDLocked()
	} else if s.indexLocked(id) >= 0 {
		s.mu.Unlock()
		return models.Patient{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	p := models.Patient{
		ID:             id,
		Name:           in.Name,
		Age:            in.Age,
		Gender:         in.Gender,
		Condition:      in.Condition,
		Room:           in.Room,
		AdmissionDate:  in.AdmissionDate,
		Status:         in.Status,
		ProfilePicture: in.ProfilePicture,
		MedicalHistory: in.MedicalHistory,
		AssignedDoctor: in.AssignedDoctor,
	}
	if p.Gender == "" {
		p.Gender = models.GenderMale
	}
	if p.Room == "" {
		p.Room = "TBD"
	}
	if p.AdmissionDate == "" {
		p.AdmissionDate = s.now().Format("2006-01-02")
	}
	if p.Status == "" {
		p.Status = models.StatusStable
	}
	s.patients = append([]models.Patient{p}, s.patients...)
	err := s.persistLocked(ctx)
	snap := clonePatients(s.patients)
	s.unlockAndNotify(snap)
	return p, err
}

// Delete removes the record with id and its draft.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.patients = append(s.patients[:i:i], s.patients[i+1:]...)
	err := s.persistLocked(ctx)
	delete(s.drafts, id)
	delete(s.unsaved, id)
	if rmErr := s.kv.Remove(ctx, storage.DraftKey(id)); rmErr != nil {
		s.logger.Warn("failed to remove draft of deleted patient", zap.String("id", id), zap.Error(rmErr))
	}
	snap := clonePatients(s.patients)
	s.unlockAndNotify(snap)
	return err
}

// Persist writes the current collection. It is used after Load when the
// loaded defaults should survive a restart, as after a factory reset.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyPatients, s.patients); err != nil {
		return s.warn(storage.KeyPatients, err)
	}
	return nil
}

func (s *Store) warn(key string, err error) *PersistError {
	pe := &PersistError{Key: key, Err: err}
	s.logger.Warn("write rejected, keeping change in memory", zap.String("key", key), zap.Error(err))
	if s.onWarning != nil {
		s.onWarning(pe)
	}
	return pe
}

// unlockAndNotify releases s.mu and runs the change hooks with snap. notifyMu
// is taken before s.mu is released, so hooks observe snapshots in the order
// the mutations were applied. Hooks must not call back into the store.
func (s *Store) unlockAndNotify(snap []models.Patient) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Unlock()
	for _, fn := range s.onChange {
		fn(snap)
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.patients {
		if s.patients[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueIDLocked asks the generator for an unused id, falling back to a
// uuid-derived id when the generator keeps colliding.
func (s *Store) uniqueIDLocked() string {
	for attempt := 0; attempt < 32; attempt++ {
		if id := s.newID(); id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
	for {
		id := "PT-" + strings.ToUpper(uuid.NewString()[:8])
		if s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *Store) randomID() string {
	return fmt.Sprintf("PT-%d", 1000+rand.IntN(9000))
}

func clonePatients(in []models.Patient) []models.Patient {
	if in == nil {
		return []models.Patient{}
	}
	out := make([]models.Patient, len(in))
	copy(out, in)
	return out
}
