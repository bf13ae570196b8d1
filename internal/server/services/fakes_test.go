package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/notify"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/assets"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/beneficiaries"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/events"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/shipments"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/vaults"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTxDB returns a real database handle so dbx.WithTx can begin and commit.
// The fakes below ignore the handle they are bound to.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// memStore is an in-memory stand-in for Postgres that keeps the same
// conditional-update and unique-index semantics as the real repositories.
type memStore struct {
	mu        sync.Mutex
	seq       int
	vaults    map[string]*models.Vault
	bens      map[string]*models.Beneficiary
	assets    map[string]*models.EncryptedAsset
	events    []*models.DeadManSwitchEvent
	shipments map[string]*models.Shipment

	listDueErr    error
	markErr       map[string]error
	shipCreateErr error
}

func newMemStore() *memStore {
	return &memStore{
		vaults:    map[string]*models.Vault{},
		bens:      map[string]*models.Beneficiary{},
		assets:    map[string]*models.EncryptedAsset{},
		shipments: map[string]*models.Shipment{},
		markErr:   map[string]error{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addVault(v models.Vault) *models.Vault {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = m.nextID("v")
	}
	m.vaults[v.ID] = &v
	return &v
}

func (m *memStore) addBeneficiary(b models.Beneficiary) *models.Beneficiary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = m.nextID("b")
	}
	if b.Status == "" {
		b.Status = models.BeneficiaryPending
	}
	m.bens[b.ID] = &b
	return &b
}

func (m *memStore) addEvent(e models.DeadManSwitchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.ID = int64(m.seq)
	m.events = append(m.events, &e)
}

func (m *memStore) vault(id string) models.Vault {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.vaults[id]
}

func (m *memStore) beneficiary(id string) models.Beneficiary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bens[id]
}

func (m *memStore) countEvents(vaultID string, t models.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.VaultID == vaultID && e.Type == t {
			n++
		}
	}
	return n
}

func (m *memStore) shipmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shipments)
}

// --- vaults ---

type memVaults struct {
	vaults.Repository
	s *memStore
}

func (r *memVaults) Create(ctx context.Context, v *models.Vault) (*models.Vault, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = r.s.nextID("v")
	cp := *v
	r.s.vaults[v.ID] = &cp
	return v, nil
}

func (r *memVaults) GetByID(ctx context.Context, id string) (*models.Vault, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vaults[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *memVaults) ListDueForWarning(ctx context.Context, now time.Time) ([]*models.Vault, error) {
	if r.s.listDueErr != nil {
		return nil, r.s.listDueErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Vault
	for _, v := range r.s.vaults {
		if v.Status == models.VaultActive && v.HeartbeatDue(now) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVaults) ListByStatus(ctx context.Context, status models.VaultStatus) ([]*models.Vault, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Vault
	for _, v := range r.s.vaults {
		if v.Status == status {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVaults) ListReleasedWithPending(ctx context.Context) ([]*models.Vault, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Vault
	for _, v := range r.s.vaults {
		if v.Status != models.VaultReleased {
			continue
		}
		for _, b := range r.s.bens {
			if b.VaultID == v.ID && b.Status == models.BeneficiaryPending {
				cp := *v
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVaults) TransitionStatus(ctx context.Context, id string, from, to models.VaultStatus, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vaults[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	v.UpdatedAt = at
	return true, nil
}

func (r *memVaults) MarkWarning(ctx context.Context, id string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vaults[id]
	if !ok || v.Status != models.VaultActive || !v.HeartbeatDue(now) {
		return false, nil
	}
	v.Status = models.VaultWarning
	v.UpdatedAt = now
	return true, nil
}

func (r *memVaults) Touch(ctx context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vaults[id]
	if !ok || v.Status == models.VaultReleased {
		return false, nil
	}
	v.Status = models.VaultActive
	v.LastSeenAt = at
	v.UpdatedAt = at
	return true, nil
}

// --- beneficiaries ---

type memBeneficiaries struct {
	beneficiaries.Repository
	s *memStore
}

func (r *memBeneficiaries) Create(ctx context.Context, b *models.Beneficiary) (*models.Beneficiary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.nextID("b")
	cp := *b
	r.s.bens[b.ID] = &cp
	return b, nil
}

func (r *memBeneficiaries) list(match func(*models.Beneficiary) bool) []*models.Beneficiary {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Beneficiary
	for _, b := range r.s.bens {
		if match(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memBeneficiaries) ListByVault(ctx context.Context, vaultID string) ([]*models.Beneficiary, error) {
	return r.list(func(b *models.Beneficiary) bool { return b.VaultID == vaultID }), nil
}

func (r *memBeneficiaries) ListPending(ctx context.Context, vaultID string) ([]*models.Beneficiary, error) {
	return r.list(func(b *models.Beneficiary) bool {
		return b.VaultID == vaultID && b.Status == models.BeneficiaryPending
	}), nil
}

func (r *memBeneficiaries) MarkNotified(ctx context.Context, id, tokenHash string, expiresAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.markErr[id]; err != nil {
		return false, err
	}
	b, ok := r.s.bens[id]
	if !ok || b.Status != models.BeneficiaryPending {
		return false, nil
	}
	b.Status = models.BeneficiaryNotified
	b.ReleaseTokenHash = tokenHash
	exp := expiresAt
	b.ReleaseTokenExpiresAt = &exp
	return true, nil
}

func (r *memBeneficiaries) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Beneficiary, error) {
	found := r.list(func(b *models.Beneficiary) bool { return b.ReleaseTokenHash != "" && b.ReleaseTokenHash == tokenHash })
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}

func (r *memBeneficiaries) ConsumeToken(ctx context.Context, tokenHash string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bens {
		if b.ReleaseTokenHash != tokenHash || b.ReleaseTokenUsedAt != nil {
			continue
		}
		if b.ReleaseTokenExpiresAt == nil || !at.Before(*b.ReleaseTokenExpiresAt) {
			return false, nil
		}
		used := at
		b.ReleaseTokenUsedAt = &used
		return true, nil
	}
	return false, nil
}

// --- assets ---

type memAssets struct {
	assets.Repository
	s *memStore
}

func (r *memAssets) Create(ctx context.Context, a *models.EncryptedAsset) (*models.EncryptedAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.nextID("a")
	cp := *a
	r.s.assets[a.ID] = &cp
	return a, nil
}

func (r *memAssets) Supersede(ctx context.Context, id, vaultID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok || a.VaultID != vaultID || a.SupersededAt != nil {
		return common.ErrorNotFound
	}
	t := at
	a.SupersededAt = &t
	return nil
}

func (r *memAssets) ListCurrent(ctx context.Context, vaultID string) ([]*models.EncryptedAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.EncryptedAsset
	for _, a := range r.s.assets {
		if a.VaultID == vaultID && a.SupersededAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAssets) GetByID(ctx context.Context, id string) (*models.EncryptedAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

// --- events ---

type memEvents struct {
	events.Repository
	s *memStore
}

func (r *memEvents) Append(ctx context.Context, e *models.DeadManSwitchEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.Type == models.EventAssetsReleased {
		for _, x := range r.s.events {
			if x.VaultID == e.VaultID && x.Type == models.EventAssetsReleased {
				return false, nil
			}
		}
	}
	r.s.seq++
	e.ID = int64(r.s.seq)
	cp := *e
	r.s.events = append(r.s.events, &cp)
	return true, nil
}

func (r *memEvents) Latest(ctx context.Context, vaultID string, t models.EventType) (*models.DeadManSwitchEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.DeadManSwitchEvent
	for _, e := range r.s.events {
		if e.VaultID == vaultID && e.Type == t && (latest == nil || !e.CreatedAt.Before(latest.CreatedAt)) {
			latest = e
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memEvents) Exists(ctx context.Context, vaultID string, t models.EventType) (bool, error) {
	_, err := r.Latest(ctx, vaultID, t)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memEvents) ListByVault(ctx context.Context, vaultID string) ([]*models.DeadManSwitchEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DeadManSwitchEvent
	for _, e := range r.s.events {
		if e.VaultID == vaultID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- shipments ---

type memShipments struct {
	shipments.Repository
	s *memStore
}

func (r *memShipments) GetByBeneficiary(ctx context.Context, beneficiaryID string) (*models.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shipments[beneficiaryID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *sh
	return &cp, nil
}

func (r *memShipments) Create(ctx context.Context, sh *models.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shipCreateErr != nil {
		return r.s.shipCreateErr
	}
	if _, ok := r.s.shipments[sh.BeneficiaryID]; ok {
		return fmt.Errorf("db error: duplicate key value violates unique constraint")
	}
	sh.ID = r.s.nextID("s")
	cp := *sh
	r.s.shipments[sh.BeneficiaryID] = &cp
	return nil
}

// memRepoManager vends the in-memory repositories regardless of handle.
type memRepoManager struct {
	s *memStore
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Vaults(dbx.DBTX) vaults.Repository          { return &memVaults{s: m.s} }
func (m *memRepoManager) Assets(dbx.DBTX) assets.Repository          { return &memAssets{s: m.s} }
func (m *memRepoManager) Beneficiaries(dbx.DBTX) beneficiaries.Repository {
	return &memBeneficiaries{s: m.s}
}
func (m *memRepoManager) Events(dbx.DBTX) events.Repository       { return &memEvents{s: m.s} }
func (m *memRepoManager) Shipments(dbx.DBTX) shipments.Repository { return &memShipments{s: m.s} }

// --- collaborators ---

type sentMail struct {
	To  string
	Msg notify.Message
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]error
	// onSend runs before each delivery, outside the lock
	onSend func(to string)
}

func (f *fakeMailer) Send(ctx context.Context, to string, msg notify.Message) error {
	if f.onSend != nil {
		f.onSend(to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTo[to]; err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		return fmt.Errorf("mailer called without a deadline")
	}
	f.sent = append(f.sent, sentMail{To: to, Msg: msg})
	return nil
}

func (f *fakeMailer) sentTo(to string) []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Message
	for _, m := range f.sent {
		if m.To == to {
			out = append(out, m.Msg)
		}
	}
	return out
}

type fakeShipper struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (f *fakeShipper) CreateShipment(ctx context.Context, req notify.ShipmentRequest) (*notify.ShipmentResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &notify.ShipmentResult{
		TrackingNumber: fmt.Sprintf("TRK-%d", n),
		OrderID:        fmt.Sprintf("ORD-%d", n),
	}, nil
}

func (f *fakeShipper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePresigner struct {
	putErr, getErr error
}

func (f *fakePresigner) PresignPut(ctx context.Context, key string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return "https://s3.example/put/" + key, nil
}

func (f *fakePresigner) PresignGet(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return "https://s3.example/get/" + key, nil
}
