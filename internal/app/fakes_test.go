package app

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/events"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. WithTx
// restores the previous state when fn fails, and slot uniqueness is enforced
// on every write.
type fakeStore struct {
	occasions   map[string]domain.Occasion
	persons     map[string]domain.Person
	personOrder []string
	assignments map[string]domain.Assignment

	lockedSlots []int32
	setSlots    []domain.Slot

	createErr     error
	failCreateAt  int
	createCalls   int
	lockSlotErr   error
	shareLockErr  error
	beforeLockFor func(id string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		occasions:   make(map[string]domain.Occasion),
		persons:     make(map[string]domain.Person),
		assignments: make(map[string]domain.Assignment),
	}
}

func (f *fakeStore) addOccasion(id string, seq int64) domain.Occasion {
	o := domain.Occasion{ID: id, Seq: seq, Name: "occasion " + id}
	f.occasions[id] = o
	return o
}

func (f *fakeStore) addPerson(p domain.Person) {
	if p.Status == "" {
		p.Status = domain.PersonStatusCandidate
	}
	f.persons[p.ID] = p
	f.personOrder = append(f.personOrder, p.ID)
}

func (f *fakeStore) addAssignment(a domain.Assignment) domain.Assignment {
	f.assignments[a.ID] = a
	if p, ok := f.persons[a.PersonID]; ok {
		p.Status = domain.PersonStatusSeated
		f.persons[a.PersonID] = p
	}
	return a
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	persons := maps.Clone(f.persons)
	assignments := maps.Clone(f.assignments)
	if err := fn(ctx); err != nil {
		f.persons = persons
		f.assignments = assignments
		return err
	}
	return nil
}

func (f *fakeStore) LockOccasion(_ context.Context, id string) (domain.Occasion, error) {
	o, ok := f.occasions[id]
	if !ok {
		return domain.Occasion{}, domain.ErrOccasionNotFound
	}
	return o, nil
}

func (f *fakeStore) ShareLockOccasion(ctx context.Context, id string) (domain.Occasion, error) {
	if f.shareLockErr != nil {
		return domain.Occasion{}, f.shareLockErr
	}
	return f.LockOccasion(ctx, id)
}

func (f *fakeStore) ListCandidates(context.Context) ([]domain.Person, error) {
	var out []domain.Person
	for _, id := range f.personOrder {
		if p := f.persons[id]; p.Status == domain.PersonStatusCandidate {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOccupiedSlots(_ context.Context, occasionID string) ([]domain.Slot, error) {
	var out []domain.Slot
	for _, a := range f.assignments {
		if a.OccasionID == occasionID && a.Slot.Block != domain.ParkingBlock {
			out = append(out, a.Slot)
		}
	}
	return out, nil
}

func (f *fakeStore) slotTaken(occasionID string, slot domain.Slot, except string) bool {
	for _, a := range f.assignments {
		if a.ID != except && a.OccasionID == occasionID && a.Slot == slot {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateAssignment(_ context.Context, a domain.Assignment) error {
	f.createCalls++
	if f.createErr != nil && f.createCalls >= f.failCreateAt {
		return f.createErr
	}
	if f.slotTaken(a.OccasionID, a.Slot, a.ID) {
		return domain.ErrSlotOccupied
	}
	f.assignments[a.ID] = a
	return nil
}

func (f *fakeStore) UpdatePersonStatus(_ context.Context, personID string, status domain.PersonStatus) error {
	p, ok := f.persons[personID]
	if !ok {
		return domain.ErrPersonNotFound
	}
	p.Status = status
	f.persons[personID] = p
	return nil
}

func (f *fakeStore) GetOccasion(ctx context.Context, id string) (domain.Occasion, error) {
	return f.LockOccasion(ctx, id)
}

func (f *fakeStore) GetAssignment(_ context.Context, id string) (domain.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeStore) GetAssignmentForUpdate(ctx context.Context, id string) (domain.Assignment, error) {
	if f.beforeLockFor != nil {
		f.beforeLockFor(id)
	}
	return f.GetAssignment(ctx, id)
}

func (f *fakeStore) LockSlot(_ context.Context, key int32) error {
	if f.lockSlotErr != nil {
		return f.lockSlotErr
	}
	f.lockedSlots = append(f.lockedSlots, key)
	return nil
}

func (f *fakeStore) FindAssignmentBySlot(_ context.Context, occasionID string, slot domain.Slot) (*domain.Assignment, error) {
	for _, a := range f.assignments {
		if a.OccasionID == occasionID && a.Slot == slot {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetSlot(_ context.Context, id string, slot domain.Slot, now time.Time) error {
	a, ok := f.assignments[id]
	if !ok {
		return domain.ErrAssignmentNotFound
	}
	if f.slotTaken(a.OccasionID, slot, id) {
		return domain.ErrSlotOccupied
	}
	f.setSlots = append(f.setSlots, slot)
	a.Slot = slot
	a.UpdatedAt = now
	f.assignments[id] = a
	return nil
}

func (f *fakeStore) DeleteAssignment(_ context.Context, id string) error {
	if _, ok := f.assignments[id]; !ok {
		return domain.ErrAssignmentNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeStore) CountAssignmentsForPerson(_ context.Context, personID string) (int, error) {
	n := 0
	for _, a := range f.assignments {
		if a.PersonID == personID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListAssignments(_ context.Context, occasionID string) ([]domain.Assignment, error) {
	if _, ok := f.occasions[occasionID]; !ok {
		return nil, domain.ErrOccasionNotFound
	}
	var out []domain.Assignment
	for _, a := range f.assignments {
		if a.OccasionID == occasionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) seated() int {
	n := 0
	for _, p := range f.persons {
		if p.Status == domain.PersonStatusSeated {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

type metricCall struct {
	op      string
	outcome string
	placed  int
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []metricCall
}

func (m *recordingMetrics) PlanCompleted(outcome string, _, placed int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, metricCall{op: "plan", outcome: outcome, placed: placed})
}

func (m *recordingMetrics) MutationCompleted(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, metricCall{op: op, outcome: outcome})
}

var errBoom = errors.New("boom")
