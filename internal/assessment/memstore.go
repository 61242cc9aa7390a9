package assessment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps everything in maps behind one mutex. Used by tests and
// small single-process deployments; semantics mirror SQLStore, including the
// write-once freeze and the status compare-and-swap on submit.
type memoryStore struct {
	mu       sync.Mutex
	units    map[string]Unit
	attempts map[string]Attempt
}

func NewInMemoryStore() Store {
	return &memoryStore{
		units:    map[string]Unit{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutUnit(_ context.Context, u Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if u.CreatedAt == 0 {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if existing, ok := m.units[u.ID]; ok {
		// updates never touch a frozen set
		u.QuestionSet = existing.QuestionSet
		u.QuestionSource = existing.QuestionSource
		u.CreatedAt = existing.CreatedAt
	}
	m.units[u.ID] = u
	return nil
}

func (m *memoryStore) GetUnit(_ context.Context, id string) (Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return Unit{}, NotFoundf("unit not found")
	}
	return u, nil
}

func (m *memoryStore) ListUnits(_ context.Context, opts UnitListOpts) ([]Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var units []Unit
	for _, u := range m.units {
		if opts.OwnerID != "" && u.OwnerID != opts.OwnerID {
			continue
		}
		if opts.Kind != "" && u.Kind != opts.Kind {
			continue
		}
		if opts.Subject != "" && u.Subject != opts.Subject {
			continue
		}
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].CreatedAt > units[j].CreatedAt })
	if opts.Offset > 0 {
		if opts.Offset >= len(units) {
			return nil, nil
		}
		units = units[opts.Offset:]
	}
	if opts.Limit > 0 && len(units) > opts.Limit {
		units = units[:opts.Limit]
	}
	return units, nil
}

func (m *memoryStore) AssignUnit(_ context.Context, unitID string, classIDs []string) (Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[unitID]
	if !ok {
		return Unit{}, NotFoundf("unit not found")
	}
	u.Status = StatusAssigned
	u.Assigned = true
	u.ClassIDs = classIDs
	u.UpdatedAt = time.Now().Unix()
	m.units[unitID] = u
	return u, nil
}

func (m *memoryStore) FreezeQuestionSet(_ context.Context, unitID string, qs []Question, source string) (Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[unitID]
	if !ok {
		return Unit{}, NotFoundf("unit not found")
	}
	if len(u.QuestionSet) == 0 {
		u.QuestionSet = qs
		u.QuestionSource = source
		u.UpdatedAt = time.Now().Unix()
		m.units[unitID] = u
	}
	return u, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.UnitID == a.UnitID && existing.StudentID == a.StudentID &&
			existing.Status == AttemptInProgress && a.Status == AttemptInProgress {
			return Conflictf("attempt already in progress for this unit")
		}
	}
	a.UpdatedAt = time.Now().Unix()
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, NotFoundf("attempt not found")
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) FindAttempt(_ context.Context, unitID, studentID, status string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *Attempt
	for id := range m.attempts {
		a := m.attempts[id]
		if a.UnitID == unitID && a.StudentID == studentID && a.Status == status {
			if found == nil || a.StartedAt > found.StartedAt {
				found = &a
			}
		}
	}
	if found == nil {
		return Attempt{}, NotFoundf("attempt not found")
	}
	return cloneAttempt(*found), nil
}

func (m *memoryStore) SaveProgress(_ context.Context, attemptID string, answers map[string]*int, timeSpent map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return NotFoundf("attempt not found")
	}
	a.Answers = cloneAnswers(answers)
	a.TimeSpent = cloneTimes(timeSpent)
	a.UpdatedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return nil
}

func (m *memoryStore) BackfillQuestionSet(_ context.Context, attemptID string, qs []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return NotFoundf("attempt not found")
	}
	a.QuestionSet = qs
	a.TotalQuestions = len(qs)
	a.UpdatedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return nil
}

func (m *memoryStore) SubmitAttempt(_ context.Context, attemptID string, upd SubmitUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return false, NotFoundf("attempt not found")
	}
	if a.Status != AttemptInProgress {
		return false, nil
	}
	a.Status = AttemptSubmitted
	a.Score = upd.Score
	a.TotalQuestions = upd.TotalQuestions
	a.CorrectCount = upd.CorrectCount
	a.IncorrectCount = upd.IncorrectCount
	a.Unattempted = upd.Unattempted
	a.AutoSubmitted = upd.AutoSubmitted
	a.ViolationReason = upd.ViolationReason
	if len(upd.QuestionSet) > 0 {
		a.QuestionSet = upd.QuestionSet
	}
	a.TimeSpent = cloneTimes(upd.TimeSpent)
	a.SubmittedAt = upd.SubmittedAt
	a.UpdatedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return true, nil
}

func cloneAttempt(a Attempt) Attempt {
	a.Answers = cloneAnswers(a.Answers)
	a.TimeSpent = cloneTimes(a.TimeSpent)
	return a
}

func cloneAnswers(m map[string]*int) map[string]*int {
	out := make(map[string]*int, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		n := *v
		out[k] = &n
	}
	return out
}

func cloneTimes(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
