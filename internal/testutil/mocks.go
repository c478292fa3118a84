package testutil

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

// MockUserRepository is an in-memory user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*user.User
	CreateError error
	ListError   error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*user.User)}
}

// Add stores u as is, bypassing Create defaults
func (m *MockUserRepository) Add(users ...*user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		c := *u
		m.Users[u.ID] = &c
	}
}

// Get returns a copy of the stored user or nil
func (m *MockUserRepository) Get(id string) *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, existing := range m.Users {
		if existing.Email == u.Email {
			return errors.Conflict("A user with this email already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = user.StatusPending
	}
	if u.PlanType == "" {
		u.PlanType = user.PlanFree
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	c := *u
	m.Users[u.ID] = &c
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if u := m.Get(id); u != nil {
		return u, nil
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) collect(keep func(*user.User) bool) []*user.User {
	var out []*user.User
	for _, u := range m.Users {
		if keep(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockUserRepository) ListActiveByTypes(ctx context.Context, types []user.Type) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.collect(func(u *user.User) bool {
		return u.Status == user.StatusActive && slices.Contains(types, u.UserType)
	}), nil
}

func (m *MockUserRepository) CountActiveByType(ctx context.Context) (map[user.Type]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[user.Type]int64)
	for _, u := range m.Users {
		if u.Status == user.StatusActive {
			counts[u.UserType]++
		}
	}
	return counts, nil
}

func expiredAt(u *user.User, now time.Time) bool {
	return u.Status == user.StatusActive && u.PlanExpiresAt != nil && u.PlanExpiresAt.Before(now)
}

func expiringWithin(u *user.User, now, until time.Time) bool {
	return u.Status == user.StatusActive && !u.ExpirationNotified && u.PlanExpiresAt != nil &&
		!u.PlanExpiresAt.Before(now) && !u.PlanExpiresAt.After(until)
}

func (m *MockUserRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := m.collect(func(u *user.User) bool { return expiredAt(u, now) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockUserRepository) ListExpiringSoon(ctx context.Context, now, until time.Time, limit int) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := m.collect(func(u *user.User) bool { return expiringWithin(u, now, until) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockUserRepository) DemoteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok || !expiredAt(u, now) {
		return false, nil
	}
	u.Status = user.StatusPending
	u.UpdatedAt = now
	return true, nil
}

func (m *MockUserRepository) MarkExpirationNotified(ctx context.Context, id string, now, until time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok || !expiringWithin(u, now, until) {
		return false, nil
	}
	u.ExpirationNotified = true
	u.UpdatedAt = now
	return true, nil
}

func (m *MockUserRepository) activate(id string, a user.PlanActivation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	expires := a.ExpiresAt
	u.PlanType = a.PlanType
	u.PlanExpiresAt = &expires
	u.MaxListings = a.MaxListings
	u.MaxPhotos = a.MaxPhotos
	u.Status = user.StatusActive
	u.ExpirationNotified = false
	return nil
}

// MockPropertyRepository is an in-memory property.Repository
type MockPropertyRepository struct {
	mu         sync.Mutex
	Properties map[string]*property.Property
	FindError  error
}

func NewMockPropertyRepository() *MockPropertyRepository {
	return &MockPropertyRepository{Properties: make(map[string]*property.Property)}
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *property.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = property.StatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	c := *p
	m.Properties[p.ID] = &c
	return nil
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Properties[id]
	if !ok {
		return nil, errors.NotFound("Property")
	}
	c := *p
	return &c, nil
}

func (m *MockPropertyRepository) FindMatching(ctx context.Context, c property.MatchCriteria, limit int) ([]*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	var out []*property.Property
	for _, p := range m.Properties {
		if c.Matches(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPropertyRepository) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.Properties {
		if p.OwnerID == ownerID && p.Status == property.StatusActive {
			n++
		}
	}
	return n, nil
}

// MockDemandRepository is an in-memory demand.Repository
type MockDemandRepository struct {
	mu        sync.Mutex
	Demands   map[string]*demand.Demand
	proposals *MockProposalRepository
	seq       int
}

func NewMockDemandRepository() *MockDemandRepository {
	return &MockDemandRepository{Demands: make(map[string]*demand.Demand)}
}

func cloneDemand(d *demand.Demand) *demand.Demand {
	c := *d
	c.Neighborhoods = slices.Clone(d.Neighborhoods)
	return &c
}

func (m *MockDemandRepository) Create(ctx context.Context, d *demand.Demand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = demand.StatusActive
	}
	// strictly increasing so newest-first ordering is stable
	m.seq++
	d.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Millisecond)
	m.Demands[d.ID] = cloneDemand(d)
	return nil
}

func (m *MockDemandRepository) GetByID(ctx context.Context, id string) (*demand.Demand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Demands[id]
	if !ok {
		return nil, errors.NotFound("Demand")
	}
	return cloneDemand(d), nil
}

func (m *MockDemandRepository) List(ctx context.Context, filter demand.Filter) ([]*demand.Demand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*demand.Demand
	for _, d := range m.Demands {
		if filter.Matches(d) {
			out = append(out, cloneDemand(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Skip >= len(out) {
		return []*demand.Demand{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockDemandRepository) Update(ctx context.Context, d *demand.Demand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Demands[d.ID]
	if !ok {
		return errors.NotFound("Demand")
	}
	if stored.Status.IsTerminal() {
		return errors.ValidationError("Demand can no longer change", map[string]string{"field": "status"})
	}
	now := time.Now().UTC()
	d.UpdatedAt = &now

	next := cloneDemand(d)
	next.Status = stored.Status
	next.ProposalCount = stored.ProposalCount
	next.ViewCount = stored.ViewCount
	m.Demands[d.ID] = next
	return nil
}

func (m *MockDemandRepository) UpdateStatus(ctx context.Context, id string, from, to demand.Status, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Demands[id]
	if !ok {
		return errors.NotFound("Demand")
	}
	if stored.Status != from {
		return errors.Conflict("Demand status changed since it was read")
	}
	stored.Status = to
	stored.UpdatedAt = &now
	return nil
}

func (m *MockDemandRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.Demands[id]; !ok {
		m.mu.Unlock()
		return errors.NotFound("Demand")
	}
	delete(m.Demands, id)
	m.mu.Unlock()

	if m.proposals != nil {
		m.proposals.deleteByDemand(id)
	}
	return nil
}

func (m *MockDemandRepository) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Demands[id]
	if !ok {
		return errors.NotFound("Demand")
	}
	d.ViewCount++
	return nil
}

func (m *MockDemandRepository) Stats(ctx context.Context, userID string) (*demand.Stats, error) {
	m.mu.Lock()
	stats := &demand.Stats{}
	mine := map[string]bool{}
	for _, d := range m.Demands {
		if d.CreatorID != userID {
			continue
		}
		mine[d.ID] = true
		stats.MyDemands++
		if d.Status == demand.StatusActive {
			stats.MyActiveDemands++
		}
	}
	m.mu.Unlock()

	if m.proposals != nil {
		m.proposals.mu.Lock()
		for _, p := range m.proposals.Proposals {
			if p.OffererID == userID {
				stats.MyProposals++
				if p.Status == demand.ProposalAccepted {
					stats.MyAccepted++
				}
			}
			if mine[p.DemandID] {
				stats.ReceivedProposals++
			}
		}
		m.proposals.mu.Unlock()
	}
	return stats, nil
}

func (m *MockDemandRepository) BoardReport(ctx context.Context, recent, top int) (*demand.BoardReport, error) {
	m.mu.Lock()
	report := &demand.BoardReport{DemandsByStatus: map[demand.Status]int64{}}
	var all []*demand.Demand
	creators := map[string]int64{}
	types := map[string]int64{}
	cities := map[string]int64{}
	for _, d := range m.Demands {
		report.TotalDemands++
		report.DemandsByStatus[d.Status]++
		all = append(all, cloneDemand(d))
		creators[d.CreatorName]++
		types[d.PropertyType]++
		if d.City != "" {
			cities[d.City]++
		}
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > recent {
		all = all[:recent]
	}
	report.RecentDemands = all
	report.TopCreators = topBuckets(creators, top)
	report.ByPropertyType = topBuckets(types, 0)
	report.TopCities = topBuckets(cities, top)

	if m.proposals != nil {
		m.proposals.mu.Lock()
		for _, p := range m.proposals.Proposals {
			report.TotalProposals++
			if p.Status == demand.ProposalAccepted {
				report.AcceptedProposals++
			}
		}
		m.proposals.mu.Unlock()
	}
	return report, nil
}

func topBuckets(counts map[string]int64, limit int) []demand.Bucket {
	out := make([]demand.Bucket, 0, len(counts))
	for k, v := range counts {
		out = append(out, demand.Bucket{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MockProposalRepository is an in-memory demand.ProposalRepository bound to
// a MockDemandRepository for counters and status changes
type MockProposalRepository struct {
	mu        sync.Mutex
	Proposals map[string]*demand.Proposal
	demands   *MockDemandRepository
	seq       int
}

func NewMockProposalRepository(demands *MockDemandRepository) *MockProposalRepository {
	m := &MockProposalRepository{Proposals: make(map[string]*demand.Proposal), demands: demands}
	demands.proposals = m
	return m
}

func (m *MockProposalRepository) Create(ctx context.Context, p *demand.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Proposals {
		if existing.DemandID == p.DemandID && existing.OffererID == p.OffererID {
			return errors.Conflict("You have already submitted a proposal for this demand")
		}
	}

	m.demands.mu.Lock()
	d, ok := m.demands.Demands[p.DemandID]
	if !ok || d.Status != demand.StatusActive {
		m.demands.mu.Unlock()
		return errors.ValidationError("Demand is not active", map[string]string{"field": "status"})
	}
	d.ProposalCount++
	m.demands.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = demand.ProposalPending
	}
	m.seq++
	p.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Millisecond)
	c := *p
	m.Proposals[p.ID] = &c
	return nil
}

func (m *MockProposalRepository) GetByID(ctx context.Context, id string) (*demand.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Proposals[id]
	if !ok {
		return nil, errors.NotFound("Proposal")
	}
	c := *p
	return &c, nil
}

func (m *MockProposalRepository) ListByDemand(ctx context.Context, demandID string) ([]*demand.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*demand.Proposal{}
	for _, p := range m.Proposals {
		if p.DemandID == demandID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockProposalRepository) Exists(ctx context.Context, demandID, offererID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Proposals {
		if p.DemandID == demandID && p.OffererID == offererID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockProposalRepository) Accept(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Proposals[id]
	if !ok || p.Status != demand.ProposalPending {
		return errors.ValidationError("Proposal is not pending", map[string]string{"field": "status"})
	}

	m.demands.mu.Lock()
	defer m.demands.mu.Unlock()
	d, ok := m.demands.Demands[p.DemandID]
	if !ok || (d.Status != demand.StatusActive && d.Status != demand.StatusInNegotiation) {
		return errors.ValidationError("Demand is no longer open for negotiation", map[string]string{"field": "status"})
	}
	p.Status = demand.ProposalAccepted
	p.UpdatedAt = &now
	d.Status = demand.StatusInNegotiation
	d.UpdatedAt = &now
	return nil
}

func (m *MockProposalRepository) Reject(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Proposals[id]
	if !ok || p.Status != demand.ProposalPending {
		return errors.ValidationError("Proposal is not pending", map[string]string{"field": "status"})
	}
	p.Status = demand.ProposalRejected
	p.UpdatedAt = &now
	return nil
}

func (m *MockProposalRepository) RejectPending(ctx context.Context, demandID, exceptID string, now time.Time) ([]*demand.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*demand.Proposal
	for _, p := range m.Proposals {
		if p.DemandID == demandID && p.ID != exceptID && p.Status == demand.ProposalPending {
			p.Status = demand.ProposalRejected
			p.UpdatedAt = &now
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockProposalRepository) deleteByDemand(demandID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.Proposals {
		if p.DemandID == demandID {
			delete(m.Proposals, id)
		}
	}
}

// MockNotificationRepository is an in-memory notification.Repository
type MockNotificationRepository struct {
	mu            sync.Mutex
	Notifications []*notification.Notification
	CreateError   error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

// ForUser returns copies of the user's notifications in insertion order
func (m *MockNotificationRepository) ForUser(userID string) []*notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Notification
	for _, n := range m.Notifications {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}

// Count returns the number of stored notifications
func (m *MockNotificationRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}

func (m *MockNotificationRepository) insert(n *notification.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	c := *n
	m.Notifications = append(m.Notifications, &c)
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.insert(n)
	return nil
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, n := range ns {
		m.insert(n)
	}
	return nil
}

func (m *MockNotificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.Notifications {
		if n.ID == id {
			c := *n
			return &c, nil
		}
	}
	return nil, errors.NotFound("Notification")
}

func (m *MockNotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*notification.Notification{}
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		n := m.Notifications[i]
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.Read) {
			continue
		}
		c := *n
		out = append(out, &c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, x := range m.Notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.Notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return errors.NotFound("Notification")
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.Notifications {
		if n.ID == id {
			m.Notifications = append(m.Notifications[:i], m.Notifications[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("Notification")
}

func (m *MockNotificationRepository) CountBroadcasts(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, x := range m.Notifications {
		if x.Broadcast {
			n++
		}
	}
	return n, nil
}

// MockPaymentRepository is an in-memory payment.Repository. Approve writes
// the plan activation through to Users.
type MockPaymentRepository struct {
	mu       sync.Mutex
	Payments map[string]*payment.Payment
	Users    *MockUserRepository
	seq      int
}

func NewMockPaymentRepository(users *MockUserRepository) *MockPaymentRepository {
	return &MockPaymentRepository{Payments: make(map[string]*payment.Payment), Users: users}
}

// Get returns a copy of the stored payment or nil
func (m *MockPaymentRepository) Get(id string) *payment.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func (m *MockPaymentRepository) hasOpen(userID, exceptID string) bool {
	for _, p := range m.Payments {
		if p.UserID == userID && p.ID != exceptID && p.Status.IsOpen() {
			return true
		}
	}
	return false
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Status.IsOpen() && m.hasOpen(p.UserID, "") {
		return errors.Conflict("You already have a payment in progress")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.seq++
	p.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Millisecond)
	p.UpdatedAt = p.CreatedAt
	c := *p
	m.Payments[p.ID] = &c
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	if p := m.Get(id); p != nil {
		return p, nil
	}
	return nil, errors.NotFound("Payment")
}

func (m *MockPaymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*payment.Payment{}
	for _, p := range m.Payments {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Skip >= len(out) {
		return []*payment.Payment{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockPaymentRepository) ListOpenByUser(ctx context.Context, userID string) ([]*payment.Payment, error) {
	all, _ := m.List(ctx, payment.Filter{UserID: userID})
	var out []*payment.Payment
	for _, p := range all {
		if p.Status.IsOpen() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPaymentRepository) LatestApproved(ctx context.Context, userID string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *payment.Payment
	for _, p := range m.Payments {
		if p.UserID != userID || p.Status != payment.StatusApproved || p.ApprovedAt == nil {
			continue
		}
		if latest == nil || p.ApprovedAt.After(*latest.ApprovedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (m *MockPaymentRepository) Transition(ctx context.Context, id string, from []payment.Status, to payment.Status, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = now
	return true, nil
}

func (m *MockPaymentRepository) AttachReceipt(ctx context.Context, id, receiptURL string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok || !p.Status.AcceptsReceipt() {
		return false, nil
	}
	if m.hasOpen(p.UserID, p.ID) {
		return false, errors.Conflict("You already have a payment in progress")
	}
	p.ReceiptURL = receiptURL
	p.Status = payment.StatusAwaitingApproval
	p.UpdatedAt = now
	return true, nil
}

func (m *MockPaymentRepository) Approve(ctx context.Context, id, adminID, notes string, now time.Time, a user.PlanActivation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok || p.Status != payment.StatusAwaitingApproval {
		return errors.ValidationError("Payment is not awaiting approval", map[string]string{"field": "status"})
	}
	if m.Users != nil {
		if err := m.Users.activate(p.UserID, a); err != nil {
			return err
		}
	}
	expires := a.ExpiresAt
	p.Status = payment.StatusApproved
	p.ApprovedBy = adminID
	p.ApprovedAt = &now
	p.AdminNotes = notes
	p.PlanExpiresAt = &expires
	p.UpdatedAt = now
	return nil
}

func (m *MockPaymentRepository) Reject(ctx context.Context, id, adminID, notes string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok || p.Status != payment.StatusAwaitingApproval {
		return errors.ValidationError("Payment is not awaiting approval", map[string]string{"field": "status"})
	}
	p.Status = payment.StatusRejected
	p.ApprovedBy = adminID
	p.ApprovedAt = &now
	p.AdminNotes = notes
	p.UpdatedAt = now
	return nil
}

func (m *MockPaymentRepository) CountByStatus(ctx context.Context) (map[payment.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[payment.Status]int64)
	for _, s := range payment.AllStatuses {
		counts[s] = 0
	}
	for _, p := range m.Payments {
		counts[p.Status]++
	}
	return counts, nil
}

func (m *MockPaymentRepository) Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, p := range m.Payments {
		if p.Status != payment.StatusApproved {
			continue
		}
		if since != nil && (p.ApprovedAt == nil || p.ApprovedAt.Before(*since)) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

// MockReceiptStore keeps uploaded receipts in memory
type MockReceiptStore struct {
	mu        sync.Mutex
	Files     map[string][]byte
	SaveError error
}

func NewMockReceiptStore() *MockReceiptStore {
	return &MockReceiptStore{Files: make(map[string][]byte)}
}

func (m *MockReceiptStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return "", m.SaveError
	}
	m.Files[key] = data
	return fmt.Sprintf("/uploads/receipts/%s", key), nil
}

func (m *MockReceiptStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, key)
	return nil
}
