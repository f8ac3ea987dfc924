package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/premiumcare/premiumcare/internal/platform/docstore"
)

var (
	ErrNotFound         = errors.New("patient not found")
	ErrConflict         = errors.New("patient with this ID already exists")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidPatient   = errors.New("invalid patient")
)

// SortFields lists the keys Sort accepts.
var SortFields = []string{"height", "weight", "bmi"}

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type Service struct {
	store Store
	// mu serializes read-modify-write cycles; nil leaves them unsynchronized.
	mu *sync.Mutex
}

// NewService returns a registry service over store. With locking disabled
// two concurrent mutations can interleave and the later save wins.
func NewService(store Store, locking bool) *Service {
	s := &Service{store: store}
	if locking {
		s.mu = &sync.Mutex{}
	}
	return s
}

func (s *Service) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Service) List(ctx context.Context) ([]PatientView, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := decodeAll(doc)
	if err != nil {
		return nil, err
	}
	views := make([]PatientView, len(patients))
	for i, p := range patients {
		views[i] = p.View()
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PatientView, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := decodeOne(doc, id)
	if err != nil {
		return nil, err
	}
	v := p.View()
	return &v, nil
}

// Sort orders every patient by height, weight or bmi. The sort is stable in
// both directions, so ties keep insertion order.
func (s *Service) Sort(ctx context.Context, sortBy, order string) ([]PatientView, error) {
	key, err := sortKey(sortBy)
	if err != nil {
		return nil, err
	}
	if order != OrderAsc && order != OrderDesc {
		return nil, fmt.Errorf("%w: must be 'asc' or 'desc'", ErrInvalidSortOrder)
	}

	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	desc := order == OrderDesc
	sort.SliceStable(views, func(i, j int) bool {
		if desc {
			return key(views[i]) > key(views[j])
		}
		return key(views[i]) < key(views[j])
	})
	return views, nil
}

func sortKey(field string) (func(PatientView) float64, error) {
	switch field {
	case "height":
		return func(v PatientView) float64 { return v.Height }, nil
	case "weight":
		return func(v PatientView) float64 { return v.Weight }, nil
	case "bmi":
		return func(v PatientView) float64 { return v.BMI }, nil
	}
	return nil, fmt.Errorf("%w: must be one of height, weight, bmi", ErrInvalidSortField)
}

// Create stores a new patient. The id must not already be present.
func (s *Service) Create(ctx context.Context, p Patient) (*PatientView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	defer s.lock()()
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Has(p.ID) {
		return nil, ErrConflict
	}
	if err := doc.SetValue(p.ID, p.Record()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save registry: %w", err)
	}
	v := p.View()
	return &v, nil
}

// Update merges the provided fields onto the stored record and validates
// the result as a full patient before saving.
func (s *Service) Update(ctx context.Context, id string, u PatientUpdate) (*PatientView, error) {
	defer s.lock()()
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPatient, err)
	}

	if nulls := u.NullFields(); len(nulls) > 0 {
		return nil, fmt.Errorf("%w: %s: Input should not be null", ErrInvalidPatient, nulls[0])
	}
	merged := u.Apply(rec).Patient(id)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPatient, err)
	}
	if err := doc.SetValue(id, merged.Record()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save registry: %w", err)
	}
	v := merged.View()
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	defer s.lock()()
	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if !doc.Has(id) {
		return ErrNotFound
	}
	doc.Delete(id)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

func decodeAll(doc *docstore.Document) ([]Patient, error) {
	out := make([]Patient, 0, doc.Len())
	for _, id := range doc.Keys() {
		p, err := decodeOne(doc, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// decodeOne reads a stored record. A record that no longer passes
// validation is an error, not something to skip.
func decodeOne(doc *docstore.Document, id string) (*Patient, error) {
	raw, ok := doc.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode stored patient %q: %w", id, err)
	}
	p := rec.Patient(id)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored patient %q is invalid: %s", id, err)
	}
	return &p, nil
}
