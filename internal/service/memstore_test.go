package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/database"
)

// memDB backs the service tests with the same uniqueness rules as the schema.
type memDB struct {
	mu          sync.Mutex
	seq         int
	pools       map[string]*models.Pool
	assignments map[string]*models.Assignment
	grants      map[string]*models.AccessGrant
	selections  map[string]*models.Selection
	skills      map[string][]string
}

func newMemDB() *memDB {
	return &memDB{
		pools:       map[string]*models.Pool{},
		assignments: map[string]*models.Assignment{},
		grants:      map[string]*models.AccessGrant{},
		selections:  map[string]*models.Selection{},
		skills:      map[string][]string{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

// serialTx runs each transaction under one lock, mirroring the pool row lock.
type serialTx struct {
	mu    sync.Mutex
	calls int
}

func (t *serialTx) WithinTx(ctx context.Context, fn database.TxFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fn(nil)
}

type memPools struct{ db *memDB }

func (r memPools) Create(ctx context.Context, _ sqlx.ExtContext, pool *models.Pool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if pool.ID == "" {
		pool.ID = r.db.nextID("pool")
	}
	pool.CreatedAt = time.Now().UTC()
	pool.UpdatedAt = pool.CreatedAt
	cp := *pool
	r.db.pools[pool.ID] = &cp
	return nil
}

func (r memPools) FindByID(ctx context.Context, id string) (*models.Pool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	pool, ok := r.db.pools[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *pool
	return &cp, nil
}

func (r memPools) LockByID(ctx context.Context, _ sqlx.ExtContext, id string) (*models.Pool, error) {
	return r.FindByID(ctx, id)
}

func (r memPools) MainExists(ctx context.Context, _ sqlx.ExtContext, excludeID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, pool := range r.db.pools {
		if id != excludeID && pool.IsMain() {
			return true, nil
		}
	}
	return false, nil
}

func (r memPools) Update(ctx context.Context, _ sqlx.ExtContext, pool *models.Pool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.pools[pool.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *pool
	r.db.pools[pool.ID] = &cp
	return nil
}

func (r memPools) UpdateStatus(ctx context.Context, id string, status models.PoolStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	pool, ok := r.db.pools[id]
	if !ok {
		return sql.ErrNoRows
	}
	pool.Status = status
	return nil
}

func (r memPools) Touch(ctx context.Context, _ sqlx.ExtContext, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if pool, ok := r.db.pools[id]; ok {
		pool.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r memPools) Delete(ctx context.Context, _ sqlx.ExtContext, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.pools[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.db.pools, id)
	for key, a := range r.db.assignments {
		if a.PoolID == id {
			delete(r.db.assignments, key)
		}
	}
	for key, g := range r.db.grants {
		if g.PoolID == id {
			delete(r.db.grants, key)
		}
	}
	for key, s := range r.db.selections {
		if s.PoolID == id {
			delete(r.db.selections, key)
		}
	}
	return nil
}

func (r memPools) List(ctx context.Context, filter models.PoolFilter) ([]models.Pool, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Pool
	for _, pool := range r.db.pools {
		if filter.Status != "" && pool.Status != filter.Status {
			continue
		}
		if filter.PoolType != "" && pool.PoolType != filter.PoolType {
			continue
		}
		out = append(out, *pool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

type memAssignments struct{ db *memDB }

func (r memAssignments) live(poolID string) []*models.Assignment {
	var out []*models.Assignment
	for _, a := range r.db.assignments {
		if a.PoolID == poolID {
			out = append(out, a)
		}
	}
	return out
}

func (r memAssignments) CountByPool(ctx context.Context, _ sqlx.ExtContext, poolID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.live(poolID)), nil
}

func (r memAssignments) AssignedCandidates(ctx context.Context, _ sqlx.ExtContext, poolID string, candidateIDs []string) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range candidateIDs {
		wanted[id] = true
	}
	var out []string
	for _, a := range r.live(poolID) {
		if wanted[a.CandidateID] {
			out = append(out, a.CandidateID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r memAssignments) InsertBatch(ctx context.Context, _ sqlx.ExtContext, batch []models.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, item := range batch {
		for _, a := range r.live(item.PoolID) {
			if a.CandidateID == item.CandidateID {
				return fmt.Errorf("insert assignments: duplicate %s", item.CandidateID)
			}
		}
	}
	for i := range batch {
		batch[i].ID = r.db.nextID("asg")
		batch[i].AddedAt = time.Now().UTC()
		cp := batch[i]
		r.db.assignments[cp.ID] = &cp
	}
	return nil
}

func (r memAssignments) FindByID(ctx context.Context, _ sqlx.ExtContext, id string) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r memAssignments) LockLive(ctx context.Context, _ sqlx.ExtContext, poolID, candidateID string) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.live(poolID) {
		if a.CandidateID == candidateID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memAssignments) Delete(ctx context.Context, _ sqlx.ExtContext, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.db.assignments, id)
	return nil
}

func (r memAssignments) ToggleFeatured(ctx context.Context, id string) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.Featured = !a.Featured
	cp := *a
	return &cp, nil
}

func (r memAssignments) UpdatePriority(ctx context.Context, id string, priority int) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.Priority = priority
	cp := *a
	return &cp, nil
}

func (r memAssignments) ListByPool(ctx context.Context, poolID string, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Assignment
	for _, a := range r.live(poolID) {
		if filter.FeaturedOnly && !a.Featured {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, len(out), nil
}

type memSelections struct{ db *memDB }

func (r memSelections) Upsert(ctx context.Context, _ sqlx.ExtContext, selection *models.Selection) (*models.Selection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now().UTC()
	for _, s := range r.db.selections {
		if s.PoolID == selection.PoolID && s.CandidateID == selection.CandidateID && s.CompanyID == selection.CompanyID {
			s.SelectionType = selection.SelectionType
			s.RecordedBy = selection.RecordedBy
			s.UpdatedAt = now
			s.UnpooledAt = nil
			cp := *s
			return &cp, nil
		}
	}
	cp := *selection
	cp.ID = r.db.nextID("sel")
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.db.selections[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memSelections) DeleteByPoolCandidate(ctx context.Context, _ sqlx.ExtContext, poolID, candidateID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for key, s := range r.db.selections {
		if s.PoolID == poolID && s.CandidateID == candidateID {
			delete(r.db.selections, key)
			n++
		}
	}
	return n, nil
}

func (r memSelections) MarkUnpooled(ctx context.Context, _ sqlx.ExtContext, poolID, candidateID string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, s := range r.db.selections {
		if s.PoolID == poolID && s.CandidateID == candidateID && s.UnpooledAt == nil {
			marked := at
			s.UnpooledAt = &marked
			n++
		}
	}
	return n, nil
}

func (r memSelections) ListByPoolAndCompany(ctx context.Context, poolID, companyID string, includeUnpooled bool) ([]models.Selection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Selection
	for _, s := range r.db.selections {
		if s.PoolID != poolID || s.CompanyID != companyID {
			continue
		}
		if !includeUnpooled && s.UnpooledAt != nil {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

type memGrants struct{ db *memDB }

func (r memGrants) Upsert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.pools[grant.PoolID]; !ok {
		return nil, fmt.Errorf("upsert access grant: missing pool %s", grant.PoolID)
	}
	now := time.Now().UTC()
	for _, g := range r.db.grants {
		if g.PoolID == grant.PoolID && g.CompanyID == grant.CompanyID {
			g.AccessLevel = grant.AccessLevel
			g.GrantedBy = grant.GrantedBy
			g.ExpiresAt = grant.ExpiresAt
			g.Notes = grant.Notes
			g.UpdatedAt = now
			cp := *g
			return &cp, nil
		}
	}
	cp := *grant
	cp.ID = r.db.nextID("grant")
	cp.GrantedAt = now
	cp.UpdatedAt = now
	r.db.grants[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memGrants) FindByID(ctx context.Context, id string) (*models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.grants[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *g
	return &cp, nil
}

func (r memGrants) FindByPoolAndCompany(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string) (*models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, g := range r.db.grants {
		if g.PoolID == poolID && g.CompanyID == companyID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memGrants) Update(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.grants[grant.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	g.AccessLevel = grant.AccessLevel
	g.ExpiresAt = grant.ExpiresAt
	g.Notes = grant.Notes
	g.UpdatedAt = time.Now().UTC()
	cp := *g
	return &cp, nil
}

func (r memGrants) Delete(ctx context.Context, id string) (*models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.grants[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(r.db.grants, id)
	return g, nil
}

func (r memGrants) ListByPool(ctx context.Context, poolID string) ([]models.AccessGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.AccessGrant
	for _, g := range r.db.grants {
		if g.PoolID == poolID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r memGrants) ListActiveByCompany(ctx context.Context, companyID string, now time.Time) ([]models.AccessGrantDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.AccessGrantDetail
	for _, g := range r.db.grants {
		if g.CompanyID != companyID || g.ExpiredAt(now) {
			continue
		}
		detail := models.AccessGrantDetail{AccessGrant: *g}
		if pool, ok := r.db.pools[g.PoolID]; ok {
			detail.PoolName = pool.Name
			detail.PoolType = pool.PoolType
			detail.PoolStatus = pool.Status
		}
		out = append(out, detail)
	}
	return out, nil
}

func (r memGrants) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, g := range r.db.grants {
		if g.ExpiresAt != nil && g.ExpiresAt.Before(cutoff) {
			delete(r.db.grants, id)
			n++
		}
	}
	return n, nil
}

type memStats struct{ db *memDB }

func (r memStats) AssignmentCounts(ctx context.Context, poolID string) (models.AssignmentCounts, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var counts models.AssignmentCounts
	for _, a := range r.db.assignments {
		if a.PoolID != poolID {
			continue
		}
		counts.Total++
		if a.Featured {
			counts.Featured++
		}
	}
	return counts, nil
}

func (r memStats) GrantCounts(ctx context.Context, poolID string, now time.Time) (models.GrantCounts, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var counts models.GrantCounts
	for _, g := range r.db.grants {
		if g.PoolID != poolID {
			continue
		}
		counts.Total++
		if !g.ExpiredAt(now) {
			counts.Active++
			if g.ExpiresAt != nil && (counts.NextExpiry == nil || g.ExpiresAt.Before(*counts.NextExpiry)) {
				expiry := *g.ExpiresAt
				counts.NextExpiry = &expiry
			}
		}
	}
	return counts, nil
}

func (r memStats) SkillHistogram(ctx context.Context, poolID string, limit int) ([]models.SkillCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := map[string]int{}
	for _, a := range r.db.assignments {
		if a.PoolID != poolID {
			continue
		}
		for _, skill := range r.db.skills[a.CandidateID] {
			counts[skill]++
		}
	}
	out := make([]models.SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, models.SkillCount{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memStats) SelectionBreakdown(ctx context.Context, poolID, companyID string) ([]models.SelectionTypeCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := map[models.SelectionType]int{}
	for _, s := range r.db.selections {
		if s.PoolID != poolID || s.UnpooledAt != nil {
			continue
		}
		if companyID != "" && s.CompanyID != companyID {
			continue
		}
		counts[s.SelectionType]++
	}
	var out []models.SelectionTypeCount
	for t, n := range counts {
		out = append(out, models.SelectionTypeCount{SelectionType: t, Count: n})
	}
	return out, nil
}

type recordedEvent struct {
	eventType string
	poolID    string
	payload   map[string]interface{}
}

type emitterStub struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *emitterStub) Emit(ctx context.Context, eventType, poolID string, actor *models.Actor, payload map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{eventType: eventType, poolID: poolID, payload: payload})
}

func (e *emitterStub) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.eventType)
	}
	return out
}

type invalidatorStub struct {
	mu    sync.Mutex
	pools []string
}

func (i *invalidatorStub) InvalidatePool(ctx context.Context, poolID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pools = append(i.pools, poolID)
}

var (
	adminActor = &models.Actor{ID: "admin-1", Kind: models.ActorAdmin}
	companyX   = &models.Actor{ID: "user-x", Kind: models.ActorCompany, CompanyID: "company-x"}
	companyY   = &models.Actor{ID: "user-y", Kind: models.ActorCompany, CompanyID: "company-y"}
)

// fixture wires every service over one in-memory store.
type fixture struct {
	db          *memDB
	tx          *serialTx
	events      *emitterStub
	invalidated *invalidatorStub
	metrics     *MetricsService
	pools       *PoolService
	assignments *AssignmentService
	grants      *AccessGrantService
	selections  *SelectionService
	stats       *StatsService
}

func newFixture(opts AssignmentOptions) *fixture {
	db := newMemDB()
	f := &fixture{
		db:          db,
		tx:          &serialTx{},
		events:      &emitterStub{},
		invalidated: &invalidatorStub{},
		metrics:     NewMetricsService(),
	}
	f.pools = NewPoolService(memPools{db}, memAssignments{db}, f.tx, f.invalidated, nil, nil)
	f.grants = NewAccessGrantService(memGrants{db}, memPools{db}, f.invalidated, f.events, f.metrics, nil, nil)
	f.assignments = NewAssignmentService(memPools{db}, memAssignments{db}, memSelections{db}, f.grants, f.tx,
		f.invalidated, f.events, f.metrics, opts, nil, nil)
	f.selections = NewSelectionService(memAssignments{db}, memSelections{db}, memPools{db}, f.grants, f.tx,
		f.invalidated, f.events, f.metrics, nil, nil)
	f.stats = NewStatsService(memStats{db}, memPools{db}, f.grants, nil, f.metrics, StatsOptions{TopSkills: 3}, nil)
	return f
}
