package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/strayaid-systems/strayaid/internal/models"
)

// InMemoryRepository is the non-durable store used in tests and single-node
// development runs. Same semantics as the postgres store, including gapless
// message sequences and append-only history.
type InMemoryRepository struct {
	mu          sync.RWMutex
	cases       map[string]*models.Case
	casesByRef  map[string]string // display ref -> case ID
	assignments map[string]*models.Assignment
	byCase      map[string][]string // case ID -> assignment IDs in creation order
	transitions map[string][]models.Transition
	eventSeqs   map[string]uint64
	messages    map[string][]*models.Message // thread ID -> ascending seq
	refSeq      uint64
}

// NewInMemoryRepository creates an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		cases:       make(map[string]*models.Case),
		casesByRef:  make(map[string]string),
		assignments: make(map[string]*models.Assignment),
		byCase:      make(map[string][]string),
		transitions: make(map[string][]models.Transition),
		eventSeqs:   make(map[string]uint64),
		messages:    make(map[string][]*models.Message),
	}
}

func (r *InMemoryRepository) CreateCase(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refSeq++
	c.Ref = FormatCaseRef(r.refSeq)

	cp := *c
	r.cases[c.ID] = &cp
	r.casesByRef[c.Ref] = c.ID
	return nil
}

func (r *InMemoryRepository) GetCase(ctx context.Context, id string) (*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	cp := *c
	cp.History = append([]models.Transition(nil), r.transitions[id]...)
	return &cp, nil
}

func (r *InMemoryRepository) GetCaseByRef(ctx context.Context, ref string) (*models.Case, error) {
	if _, err := parseCaseRef(ref); err != nil {
		return nil, err
	}

	r.mu.RLock()
	id, ok := r.casesByRef[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrCaseNotFound
	}
	return r.GetCase(ctx, id)
}

func (r *InMemoryRepository) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Case
	for _, c := range r.cases {
		if req != nil {
			if req.State != "" && c.State != req.State {
				continue
			}
			if req.Urgency != "" && c.Urgency != req.Urgency {
				continue
			}
			if req.ReporterID != "" && c.ReporterID != req.ReporterID {
				continue
			}
			if req.ResponderID != "" && (c.ResponderID == nil || *c.ResponderID != req.ResponderID) {
				continue
			}
			if req.Unassignable != nil && c.Unassignable != *req.Unassignable {
				continue
			}
		}
		cp := *c
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if req != nil && req.Offset > 0 {
		if req.Offset >= len(out) {
			return nil, nil
		}
		out = out[req.Offset:]
	}
	if req != nil && req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateCase(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cases[c.ID]; !ok {
		return ErrCaseNotFound
	}
	cp := *c
	cp.History = nil // history lives in its own table
	r.cases[c.ID] = &cp
	return nil
}

func (r *InMemoryRepository) AppendTransition(ctx context.Context, caseID string, t models.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cases[caseID]; !ok {
		return ErrCaseNotFound
	}
	r.transitions[caseID] = append(r.transitions[caseID], t)
	return nil
}

func (r *InMemoryRepository) ListTransitions(ctx context.Context, caseID string) ([]models.Transition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.cases[caseID]; !ok {
		return nil, ErrCaseNotFound
	}
	return append([]models.Transition(nil), r.transitions[caseID]...), nil
}

func (r *InMemoryRepository) NextEventSeq(ctx context.Context, caseID string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.eventSeqs[caseID]++
	return r.eventSeqs[caseID], nil
}

func (r *InMemoryRepository) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *a
	r.assignments[a.ID] = &cp
	r.byCase[a.CaseID] = append(r.byCase[a.CaseID], a.ID)
	return nil
}

func (r *InMemoryRepository) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assignments[a.ID]; !ok {
		return ErrAssignmentNotFound
	}
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListAssignments(ctx context.Context, caseID string) ([]*models.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byCase[caseID]
	out := make([]*models.Assignment, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.assignments[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) AppendMessage(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[m.ThreadID]
	if len(msgs) > 0 && msgs[len(msgs)-1].Seq >= m.Seq {
		return ErrDuplicateSeq
	}
	cp := *m
	r.messages[m.ThreadID] = append(msgs, &cp)
	return nil
}

func (r *InMemoryRepository) ListMessages(ctx context.Context, threadID string, fromSeq uint64, limit int) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[threadID]
	// Messages are stored in ascending seq order; find the first >= fromSeq.
	i := sort.Search(len(msgs), func(i int) bool { return msgs[i].Seq >= fromSeq })

	var out []*models.Message
	for ; i < len(msgs); i++ {
		cp := *msgs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *InMemoryRepository) LastSeq(ctx context.Context, threadID string) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[threadID]
	if len(msgs) == 0 {
		return 0, nil
	}
	return msgs[len(msgs)-1].Seq, nil
}

func (r *InMemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *InMemoryRepository) Close() error { return nil }
