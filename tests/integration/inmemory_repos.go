package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu     sync.RWMutex
	nextID int64
	cards  map[int64]*domain.Card
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{nextID: 1, cards: make(map[int64]*domain.Card)}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, tx pgx.Tx, card *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card.ID = r.nextID
	r.nextID++
	stored := *card
	r.cards[card.ID] = &stored
	return nil
}

func (r *inMemoryCardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryCardRepo) GetByOwner(ctx context.Context, owner string) ([]domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Card
	for _, c := range r.cards {
		if c.Owner == owner {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *inMemoryCardRepo) CountByOwner(ctx context.Context, owner string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, c := range r.cards {
		if c.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryCardRepo) CountByOwnerTx(ctx context.Context, tx pgx.Tx, owner string) (int64, error) {
	return r.CountByOwner(ctx, owner)
}

func (r *inMemoryCardRepo) TotalSupply(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.cards)), nil
}

func (r *inMemoryCardRepo) TraitsExist(ctx context.Context, tx pgx.Tx, traits uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.Traits == traits {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryCardRepo) UpdateOwner(ctx context.Context, tx pgx.Tx, id int64, owner, approved string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("card not found: %d", id)
	}
	c.Owner = owner
	c.Approved = approved
	return nil
}

func (r *inMemoryCardRepo) UpdateCooldown(ctx context.Context, tx pgx.Tx, id int64, end time.Time, index uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("card not found: %d", id)
	}
	c.CooldownEnd = end
	c.CooldownIndex = index
	return nil
}

// --- In-Memory Auction Repo ---

type inMemoryAuctionRepo struct {
	mu       sync.RWMutex
	auctions map[int64]*domain.Auction
}

func newInMemoryAuctionRepo() *inMemoryAuctionRepo {
	return &inMemoryAuctionRepo{auctions: make(map[int64]*domain.Auction)}
}

func (r *inMemoryAuctionRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.auctions[a.TokenID]; exists {
		return fmt.Errorf("auction already exists for token %d", a.TokenID)
	}
	stored := *a
	r.auctions[a.TokenID] = &stored
	return nil
}

func (r *inMemoryAuctionRepo) GetByTokenID(ctx context.Context, tokenID int64) (*domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.auctions[tokenID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAuctionRepo) GetByTokenIDForUpdate(ctx context.Context, tx pgx.Tx, tokenID int64) (*domain.Auction, error) {
	return r.GetByTokenID(ctx, tokenID)
}

func (r *inMemoryAuctionRepo) List(ctx context.Context) ([]domain.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Auction
	for _, a := range r.auctions {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].TokenID < result[j].TokenID
		}
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

func (r *inMemoryAuctionRepo) Delete(ctx context.Context, tx pgx.Tx, tokenID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[tokenID]; !ok {
		return false, nil
	}
	delete(r.auctions, tokenID)
	return true, nil
}

// --- In-Memory Settings Repo ---

type inMemorySettingsRepo struct {
	mu       sync.RWMutex
	settings *domain.Settings
}

func newInMemorySettingsRepo(s *domain.Settings) *inMemorySettingsRepo {
	stored := *s
	return &inMemorySettingsRepo{settings: &stored}
}

func (r *inMemorySettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := *r.settings
	return &cp, nil
}

func (r *inMemorySettingsRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Settings, error) {
	return r.Get(ctx)
}

func (r *inMemorySettingsRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *s
	r.settings = &stored
	return nil
}

func (r *inMemorySettingsRepo) Init(ctx context.Context, s *domain.Settings) error {
	return nil
}

// --- In-Memory Role Repo ---

type inMemoryRoleRepo struct {
	mu    sync.RWMutex
	roles *domain.RoleSet
}

func newInMemoryRoleRepo(r *domain.RoleSet) *inMemoryRoleRepo {
	stored := *r
	return &inMemoryRoleRepo{roles: &stored}
}

func (r *inMemoryRoleRepo) Get(ctx context.Context) (*domain.RoleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := *r.roles
	return &cp, nil
}

func (r *inMemoryRoleRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.RoleSet, error) {
	return r.Get(ctx)
}

func (r *inMemoryRoleRepo) Update(ctx context.Context, tx pgx.Tx, rs *domain.RoleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rs
	r.roles = &stored
	return nil
}

func (r *inMemoryRoleRepo) Init(ctx context.Context, rs *domain.RoleSet) error {
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *w
	r.wallets[w.Address] = &stored
	return nil
}

func (r *inMemoryWalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[address]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error) {
	return r.GetByAddress(ctx, address)
}

func (r *inMemoryWalletRepo) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[address]
	if !ok {
		w = &domain.Wallet{Address: address}
		r.wallets[address] = w
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, address string, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[address]
	if !ok {
		return fmt.Errorf("wallet not found: %s", address)
	}
	w.Balance = balance
	return nil
}

// --- In-Memory Reward Repo ---

type inMemoryRewardRepo struct {
	mu       sync.RWMutex
	accounts map[string]*domain.RewardAccount
}

func newInMemoryRewardRepo() *inMemoryRewardRepo {
	return &inMemoryRewardRepo{accounts: make(map[string]*domain.RewardAccount)}
}

func (r *inMemoryRewardRepo) GetByAddress(ctx context.Context, address string) (*domain.RewardAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[address]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryRewardRepo) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.RewardAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[address]
	if !ok {
		a = &domain.RewardAccount{Address: address}
		r.accounts[address] = a
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryRewardRepo) Update(ctx context.Context, tx pgx.Tx, acct *domain.RewardAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *acct
	r.accounts[acct.Address] = &stored
	return nil
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[a.Username]; exists {
		return fmt.Errorf("username already exists")
	}
	stored := *a
	r.accounts[a.Username] = &stored
	return nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByAddress(ctx context.Context, address string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Address == address {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- Test clock and event recorder ---

// testClock is a settable clock so cooldowns and price curves can be
// fast-forwarded without sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{}
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.Name
	}
	return names
}
