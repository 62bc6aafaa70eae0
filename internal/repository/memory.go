package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore объединённое in-memory хранилище сервиса: пользователи, товары,
// корзины и заказы. ID выдаёт primitive.NewObjectID.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByID    map[primitive.ObjectID]UserRecord
	productsByID map[primitive.ObjectID]ProductRecord
	cartsByUser  map[primitive.ObjectID][]CartLine
	ordersByID   map[primitive.ObjectID]OrderRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByID:    make(map[primitive.ObjectID]UserRecord),
		productsByID: make(map[primitive.ObjectID]ProductRecord),
		cartsByUser:  make(map[primitive.ObjectID][]CartLine),
		ordersByID:   make(map[primitive.ObjectID]OrderRecord),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *ProductRecord) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.productsByID[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id primitive.ObjectID) (*ProductRecord, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *ProductRecord) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[p.ID]; !ok {
		return ErrNotFound
	}
	m.productsByID[p.ID] = *p
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]ProductRecord, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]ProductRecord, 0)
	for _, p := range m.productsByID {
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *UserRecord) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	for _, existing := range mu.store.usersByID {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = time.Now().UTC()
	mu.store.usersByID[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*UserRecord, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*UserRecord, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	for _, u := range mu.store.usersByID {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) Update(ctx context.Context, u *UserRecord) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.usersByID[u.ID]; !ok {
		return ErrNotFound
	}
	mu.store.usersByID[u.ID] = *u
	return nil
}

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Lines(ctx context.Context, userID primitive.ObjectID) ([]CartLine, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	return append([]CartLine{}, mc.store.cartsByUser[userID]...), nil
}

func (mc *MemoryCarts) Save(ctx context.Context, userID primitive.ObjectID, lines []CartLine) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	mc.store.cartsByUser[userID] = append([]CartLine{}, lines...)
	return nil
}

func (mc *MemoryCarts) Clear(ctx context.Context, userID primitive.ObjectID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.cartsByUser, userID)
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *OrderRecord) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id primitive.ObjectID) (*OrderRecord, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *OrderRecord) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	mo.store.ordersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]OrderRecord, int, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	all := make([]OrderRecord, 0, len(mo.store.ordersByID))
	for _, o := range mo.store.ordersByID {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		all = append(all, o)
	}
	// ObjectID начинается с timestamp, поэтому сортировка по hex даёт порядок создания
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(all)
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []OrderRecord{}, len(all), nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
