// Package memory is an in-process entity store. Transactions are serialized
// behind one mutex and roll back by restoring a snapshot of the state taken
// when the transaction began.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type table[T any] struct {
	rows   map[int64]T
	nextID int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[int64]T{}}
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[int64]T, len(t.rows)), nextID: t.nextID}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (t *table[T]) sorted() []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

type state struct {
	assets         *table[domain.Asset]
	customers      *table[domain.Customer]
	rentals        *table[domain.Rental]
	configurations *table[domain.Configuration]
	repairs        *table[domain.Repair]
	payments       *table[domain.Payment]
	pending        map[uuid.UUID]domain.PendingRecord
	identifiers    map[string]struct{}
}

func newState() *state {
	return &state{
		assets:         newTable[domain.Asset](),
		customers:      newTable[domain.Customer](),
		rentals:        newTable[domain.Rental](),
		configurations: newTable[domain.Configuration](),
		repairs:        newTable[domain.Repair](),
		payments:       newTable[domain.Payment](),
		pending:        map[uuid.UUID]domain.PendingRecord{},
		identifiers:    map[string]struct{}{},
	}
}

func (s *state) clone() *state {
	c := &state{
		assets:         s.assets.clone(),
		customers:      s.customers.clone(),
		rentals:        s.rentals.clone(),
		configurations: s.configurations.clone(),
		repairs:        s.repairs.clone(),
		payments:       s.payments.clone(),
		pending:        make(map[uuid.UUID]domain.PendingRecord, len(s.pending)),
		identifiers:    make(map[string]struct{}, len(s.identifiers)),
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	for k := range s.identifiers {
		c.identifiers[k] = struct{}{}
	}
	return c
}

// Store implements repository.Store in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(&txRepos{st: working, now: s.now}); err != nil {
		return err
	}
	s.state = working
	return nil
}

type txRepos struct {
	st  *state
	now func() time.Time
}

func (t *txRepos) Assets() repository.AssetRepository { return &assetRepo{t} }
func (t *txRepos) Customers() repository.CustomerRepository {
	return &customerRepo{entityRepo[domain.Customer]{
		tbl:   t.st.customers,
		id:    func(c *domain.Customer) *int64 { return &c.ID },
		stamp: func(c *domain.Customer, at time.Time) { c.CreatedAt = at },
		now:   t.now,
	}}
}
func (t *txRepos) Rentals() repository.RentalRepository {
	return &rentalRepo{entityRepo[domain.Rental]{
		tbl:   t.st.rentals,
		id:    func(r *domain.Rental) *int64 { return &r.ID },
		stamp: func(r *domain.Rental, at time.Time) { r.CreatedAt = at },
		now:   t.now,
	}}
}
func (t *txRepos) Configurations() repository.ConfigurationRepository {
	return &entityRepo[domain.Configuration]{
		tbl:   t.st.configurations,
		id:    func(c *domain.Configuration) *int64 { return &c.ID },
		stamp: func(c *domain.Configuration, at time.Time) { c.CreatedAt = at },
		now:   t.now,
	}
}
func (t *txRepos) Repairs() repository.RepairRepository {
	return &entityRepo[domain.Repair]{
		tbl:   t.st.repairs,
		id:    func(r *domain.Repair) *int64 { return &r.ID },
		stamp: func(r *domain.Repair, at time.Time) { r.CreatedAt = at },
		now:   t.now,
	}
}
func (t *txRepos) Payments() repository.PaymentRepository       { return &paymentRepo{t} }
func (t *txRepos) Pending() repository.PendingRepository         { return &pendingRepo{t} }
func (t *txRepos) Identifiers() repository.IdentifierRepository { return &identifierRepo{t} }

type entityRepo[T any] struct {
	tbl   *table[T]
	id    func(*T) *int64
	stamp func(*T, time.Time)
	now   func() time.Time
}

func (r *entityRepo[T]) Create(ctx context.Context, entity *T) error {
	r.tbl.nextID++
	*r.id(entity) = r.tbl.nextID
	r.stamp(entity, r.now().UTC())
	r.tbl.rows[r.tbl.nextID] = *entity
	return nil
}

func (r *entityRepo[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	v, ok := r.tbl.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (r *entityRepo[T]) Update(ctx context.Context, entity *T) error {
	id := *r.id(entity)
	if _, ok := r.tbl.rows[id]; !ok {
		return domain.ErrNotFound
	}
	r.tbl.rows[id] = *entity
	return nil
}

func (r *entityRepo[T]) Delete(ctx context.Context, id int64) error {
	if _, ok := r.tbl.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tbl.rows, id)
	return nil
}

func (r *entityRepo[T]) List(ctx context.Context) ([]T, error) {
	return r.tbl.sorted(), nil
}

type assetRepo struct {
	t *txRepos
}

func (r *assetRepo) base() *entityRepo[domain.Asset] {
	return &entityRepo[domain.Asset]{
		tbl:   r.t.st.assets,
		id:    func(a *domain.Asset) *int64 { return &a.ID },
		stamp: func(a *domain.Asset, at time.Time) { a.CreatedAt = at },
		now:   r.t.now,
	}
}

func (r *assetRepo) Create(ctx context.Context, a *domain.Asset) error {
	for _, existing := range r.t.st.assets.rows {
		if existing.AssetID == a.AssetID {
			return &domain.DuplicateIdentifierError{Identifier: a.AssetID}
		}
	}
	a.Revenue = decimal.Zero
	return r.base().Create(ctx, a)
}

func (r *assetRepo) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.base().GetByID(ctx, id)
}

// Update leaves revenue alone; only SetRevenue and ResetRevenue write it.
func (r *assetRepo) Update(ctx context.Context, a *domain.Asset) error {
	current, ok := r.t.st.assets.rows[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := *a
	updated.Revenue = current.Revenue
	updated.AssetID = current.AssetID
	r.t.st.assets.rows[a.ID] = updated
	return nil
}

func (r *assetRepo) Delete(ctx context.Context, id int64) error {
	current, ok := r.t.st.assets.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.t.st.assets.rows, id)
	delete(r.t.st.identifiers, current.AssetID)
	return nil
}

func (r *assetRepo) List(ctx context.Context) ([]domain.Asset, error) {
	return r.t.st.assets.sorted(), nil
}

func (r *assetRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.Asset, error) {
	for _, a := range r.t.st.assets.rows {
		if a.AssetID == identifier {
			v := a
			return &v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *assetRepo) ListIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for _, a := range r.t.st.assets.sorted() {
		if strings.HasPrefix(a.AssetID, prefix) {
			out = append(out, a.AssetID)
		}
	}
	return out, nil
}

func (r *assetRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for _, a := range r.t.st.assets.sorted() {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *assetRepo) ResetRevenue(ctx context.Context) error {
	for id, a := range r.t.st.assets.rows {
		a.Revenue = decimal.Zero
		r.t.st.assets.rows[id] = a
	}
	return nil
}

func (r *assetRepo) SetRevenue(ctx context.Context, id int64, revenue decimal.Decimal) error {
	a, ok := r.t.st.assets.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Revenue = revenue
	r.t.st.assets.rows[id] = a
	return nil
}

type customerRepo struct {
	entityRepo[domain.Customer]
}

func (r *customerRepo) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	for _, c := range r.tbl.sorted() {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			v := c
			return &v, nil
		}
	}
	return nil, domain.ErrNotFound
}

type rentalRepo struct {
	entityRepo[domain.Rental]
}

func (r *rentalRepo) ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, rental := range r.tbl.sorted() {
		if rental.Status == status {
			out = append(out, rental)
		}
	}
	return out, nil
}

type paymentRepo struct {
	t *txRepos
}

func (r *paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	tbl := r.t.st.payments
	tbl.nextID++
	p.ID = tbl.nextID
	p.CreatedAt = r.t.now().UTC()
	tbl.rows[p.ID] = *p
	return nil
}

func (r *paymentRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range r.t.st.payments.sorted() {
		if p.RentalID == rentalID {
			out = append(out, p)
		}
	}
	return out, nil
}

type pendingRepo struct {
	t *txRepos
}

func (r *pendingRepo) Create(ctx context.Context, rec *domain.PendingRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.t.st.pending[rec.ID] = *rec
	return nil
}

func (r *pendingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	rec, ok := r.t.st.pending[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// GetForUpdate needs no extra locking: the store mutex is held for the whole
// transaction.
func (r *pendingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *pendingRepo) UpdatePayload(ctx context.Context, rec *domain.PendingRecord) error {
	current, ok := r.t.st.pending[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	current.Payload = rec.Payload
	current.AssetIdentifier = rec.AssetIdentifier
	current.SubmittedAt = rec.SubmittedAt
	r.t.st.pending[rec.ID] = current
	return nil
}

func (r *pendingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.t.st.pending[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.t.st.pending, id)
	return nil
}

func (r *pendingRepo) List(ctx context.Context, kind domain.EntityKind) ([]domain.PendingRecord, error) {
	var out []domain.PendingRecord
	for _, rec := range r.t.st.pending {
		if kind == "" || rec.Kind == kind {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *pendingRepo) ListAssetIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for _, rec := range r.t.st.pending {
		if rec.Kind == domain.KindAsset && rec.AssetIdentifier != "" && strings.HasPrefix(rec.AssetIdentifier, prefix) {
			out = append(out, rec.AssetIdentifier)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *pendingRepo) Count(ctx context.Context) (int, error) {
	return len(r.t.st.pending), nil
}

type identifierRepo struct {
	t *txRepos
}

func (r *identifierRepo) Claim(ctx context.Context, identifier string) error {
	if _, taken := r.t.st.identifiers[identifier]; taken {
		return &domain.DuplicateIdentifierError{Identifier: identifier}
	}
	r.t.st.identifiers[identifier] = struct{}{}
	return nil
}

func (r *identifierRepo) Release(ctx context.Context, identifier string) error {
	delete(r.t.st.identifiers, identifier)
	return nil
}
