package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateFunc                 func(ctx context.Context, user *domain.User) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFunc             func(ctx context.Context, email string) (*domain.User, error)
	UpdateFunc                 func(ctx context.Context, user *domain.User) error
	ListFunc                   func(ctx context.Context, limit, offset int) ([]*domain.User, error)
	ListIDsWithPendingFeesFunc func(ctx context.Context, asOf time.Time) ([]string, error)
	AdjustBalanceFunc          func(ctx context.Context, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser seeds a user into the backing map.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var users []*domain.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(users) >= limit {
			break
		}
		copied := *m.users[id]
		users = append(users, &copied)
	}
	return users, nil
}

func (m *MockUserRepository) ListIDsWithPendingFees(ctx context.Context, asOf time.Time) ([]string, error) {
	if m.ListIDsWithPendingFeesFunc != nil {
		return m.ListIDsWithPendingFeesFunc(ctx, asOf)
	}
	return nil, nil
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error) {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, id, amount, direction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	switch direction {
	case usecase.BalanceSubtract:
		if user.Balance.LessThan(amount) {
			return decimal.Zero, domain.ErrInsufficientBalance
		}
		user.Balance = user.Balance.Sub(amount)
	default:
		user.Balance = user.Balance.Add(amount)
	}
	return user.Balance, nil
}

func (m *MockUserRepository) AdjustBalanceTx(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error) {
	return m.AdjustBalance(ctx, id, amount, direction)
}

// Balance returns the current balance of a seeded user.
func (m *MockUserRepository) Balance(id string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.users[id]; ok {
		return user.Balance
	}
	return decimal.Zero
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mu      sync.RWMutex
	entries map[string][]*domain.LedgerEntry

	AppendFunc func(ctx context.Context, entry *domain.LedgerEntry) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		entries: make(map[string][]*domain.LedgerEntry),
	}
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.UserID] = append(m.entries[entry.UserID], entry)
	return nil
}

func (m *MockLedgerRepository) AppendTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return m.Append(ctx, entry)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, list := range m.entries {
		for _, entry := range list {
			if entry.ID == id {
				return entry, nil
			}
		}
	}
	return nil, domain.ErrNoLedgerEntries
}

func (m *MockLedgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.entries[userID]
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (m *MockLedgerRepository) GetAllByUser(ctx context.Context, userID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.LedgerEntry(nil), m.entries[userID]...), nil
}

func (m *MockLedgerRepository) LatestByUser(ctx context.Context, userID string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.entries[userID]
	if len(list) == 0 {
		return nil, domain.ErrNoLedgerEntries
	}
	return list[len(list)-1], nil
}

func (m *MockLedgerRepository) SumByTypesSince(ctx context.Context, userID string, types []domain.TransactionType, since time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[domain.TransactionType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	sum := decimal.Zero
	for _, entry := range m.entries[userID] {
		if wanted[entry.Type] && !entry.CreatedAt.Before(since) {
			sum = sum.Add(entry.Amount.Abs())
		}
	}
	return sum, nil
}

// EntriesFor returns every appended entry for the user.
func (m *MockLedgerRepository) EntriesFor(userID string) []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.LedgerEntry(nil), m.entries[userID]...)
}

// MockMonthlyFeeRepository is a mock implementation of MonthlyFeeRepository.
type MockMonthlyFeeRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.MonthlyFeeRecord
	byMonth map[string]string

	CreateIfAbsentFunc func(ctx context.Context, record *domain.MonthlyFeeRecord) (bool, error)
	FindPendingDueFunc func(ctx context.Context, userID string, asOf time.Time) ([]*domain.MonthlyFeeRecord, error)
	MarkChargedFunc    func(ctx context.Context, id, ledgerEntryID string, chargedAt time.Time) error
	MarkFailedFunc     func(ctx context.Context, id string, failedAt time.Time) error
}

func NewMockMonthlyFeeRepository() *MockMonthlyFeeRepository {
	return &MockMonthlyFeeRepository{
		records: make(map[string]*domain.MonthlyFeeRecord),
		byMonth: make(map[string]string),
	}
}

func monthKey(cardID string, billingMonth time.Time) string {
	return cardID + "|" + billingMonth.Format("2006-01")
}

// AddRecord seeds a fee record directly.
func (m *MockMonthlyFeeRepository) AddRecord(record *domain.MonthlyFeeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	m.byMonth[monthKey(record.CardID, record.BillingMonth)] = record.ID
}

func (m *MockMonthlyFeeRepository) CreateIfAbsent(ctx context.Context, record *domain.MonthlyFeeRecord) (bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := monthKey(record.CardID, record.BillingMonth)
	if _, ok := m.byMonth[key]; ok {
		return false, nil
	}
	m.records[record.ID] = record
	m.byMonth[key] = record.ID
	return true, nil
}

func (m *MockMonthlyFeeRepository) GetByID(ctx context.Context, id string) (*domain.MonthlyFeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, domain.ErrFeeRecordNotFound
}

func (m *MockMonthlyFeeRepository) FindPendingDue(ctx context.Context, userID string, asOf time.Time) ([]*domain.MonthlyFeeRecord, error) {
	if m.FindPendingDueFunc != nil {
		return m.FindPendingDueFunc(ctx, userID, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.MonthlyFeeRecord
	for _, record := range m.records {
		if record.UserID == userID && record.IsDue(asOf) {
			due = append(due, record)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (m *MockMonthlyFeeRepository) MarkCharged(ctx context.Context, id, ledgerEntryID string, chargedAt time.Time) error {
	if m.MarkChargedFunc != nil {
		return m.MarkChargedFunc(ctx, id, ledgerEntryID, chargedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return domain.ErrFeeRecordNotFound
	}
	if record.Status != domain.MonthlyFeeStatusPending {
		return domain.ErrFeeAlreadySettled
	}
	record.Status = domain.MonthlyFeeStatusCharged
	record.ChargedAt = &chargedAt
	if ledgerEntryID != "" {
		record.LedgerEntryID = &ledgerEntryID
	}
	record.UpdatedAt = chargedAt
	return nil
}

func (m *MockMonthlyFeeRepository) MarkFailed(ctx context.Context, id string, failedAt time.Time) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, failedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return domain.ErrFeeRecordNotFound
	}
	if record.Status != domain.MonthlyFeeStatusPending {
		return domain.ErrFeeAlreadySettled
	}
	record.Status = domain.MonthlyFeeStatusFailed
	record.UpdatedAt = failedAt
	return nil
}

func (m *MockMonthlyFeeRepository) SumPendingByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, record := range m.records {
		if record.UserID == userID && record.Status == domain.MonthlyFeeStatusPending {
			sum = sum.Add(record.FeeAmount)
		}
	}
	return sum, nil
}

func (m *MockMonthlyFeeRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MonthlyFeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.MonthlyFeeRecord
	for _, record := range m.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if offset >= len(records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end], nil
}

// Record returns a seeded or created record by id.
func (m *MockMonthlyFeeRepository) Record(id string) *domain.MonthlyFeeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[id]
}

// Count returns how many fee records exist.
func (m *MockMonthlyFeeRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockTierRepository is a mock implementation of TierRepository.
type MockTierRepository struct {
	mu    sync.RWMutex
	tiers map[string]*domain.Tier

	GetByIDFunc func(ctx context.Context, id string) (*domain.Tier, error)
}

func NewMockTierRepository() *MockTierRepository {
	return &MockTierRepository{
		tiers: make(map[string]*domain.Tier),
	}
}

// AddTier seeds a tier.
func (m *MockTierRepository) AddTier(tier *domain.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[tier.ID] = tier
}

func (m *MockTierRepository) GetByID(ctx context.Context, id string) (*domain.Tier, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tier, ok := m.tiers[id]; ok {
		return tier, nil
	}
	return nil, domain.ErrTierNotFound
}

func (m *MockTierRepository) List(ctx context.Context) ([]*domain.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tiers []*domain.Tier
	for _, tier := range m.tiers {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })
	return tiers, nil
}

// MockCardRepository is a mock implementation of CardRepository.
type MockCardRepository struct {
	mu    sync.RWMutex
	cards map[string]*domain.Card

	CreateFunc       func(ctx context.Context, card *domain.Card) error
	ListActiveFunc   func(ctx context.Context, limit, offset int) ([]*domain.Card, error)
	UpdateStatusFunc func(ctx context.Context, id string, status domain.CardStatus, updatedAt time.Time) error
}

func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{
		cards: make(map[string]*domain.Card),
	}
}

// AddCard seeds a card.
func (m *MockCardRepository) AddCard(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
}

func (m *MockCardRepository) Create(ctx context.Context, card *domain.Card) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, card)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
	return nil
}

func (m *MockCardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if card, ok := m.cards[id]; ok {
		copied := *card
		return &copied, nil
	}
	return nil, domain.ErrCardNotFound
}

func (m *MockCardRepository) GetByProviderCardID(ctx context.Context, providerCardID string) (*domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, card := range m.cards {
		if card.ProviderCardID == providerCardID {
			copied := *card
			return &copied, nil
		}
	}
	return nil, domain.ErrCardNotFound
}

func (m *MockCardRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cards []*domain.Card
	for _, card := range m.cards {
		if card.UserID == userID {
			cards = append(cards, card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return paginateCards(cards, limit, offset), nil
}

func (m *MockCardRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Card, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cards []*domain.Card
	for _, card := range m.cards {
		if card.Status == domain.CardStatusActive {
			cards = append(cards, card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return paginateCards(cards, limit, offset), nil
}

func (m *MockCardRepository) UpdateStatus(ctx context.Context, id string, status domain.CardStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return domain.ErrCardNotFound
	}
	card.Status = status
	card.UpdatedAt = updatedAt
	return nil
}

// Card returns a stored card by id.
func (m *MockCardRepository) Card(id string) *domain.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cards[id]
}

func paginateCards(cards []*domain.Card, limit, offset int) []*domain.Card {
	if offset >= len(cards) {
		return nil
	}
	end := offset + limit
	if end > len(cards) {
		end = len(cards)
	}
	return cards[offset:end]
}

// MockWebhookRepository is a mock implementation of WebhookRepository.
type MockWebhookRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.WebhookEvent

	CreateFunc func(ctx context.Context, event *domain.WebhookEvent) error
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{
		events: make(map[string]*domain.WebhookEvent),
	}
}

// AddEvent seeds an event.
func (m *MockWebhookRepository) AddEvent(event *domain.WebhookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
}

func (m *MockWebhookRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *MockWebhookRepository) GetUnprocessed(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.WebhookEvent
	for _, event := range m.events {
		if !event.Processed {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return fmt.Errorf("webhook event %s not found", id)
	}
	event.Processed = true
	event.ProcessedAt = &processedAt
	return nil
}

func (m *MockWebhookRepository) IncrementAttempts(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return fmt.Errorf("webhook event %s not found", id)
	}
	event.Attempts++
	return nil
}

func (m *MockWebhookRepository) DeleteProcessed(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, event := range m.events {
		if event.Processed && event.ProcessedAt != nil && event.ProcessedAt.Before(before) {
			delete(m.events, id)
		}
	}
	return nil
}

// Event returns a stored event by id.
func (m *MockWebhookRepository) Event(id string) *domain.WebhookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[id]
}

// MockCardIssuer is a mock implementation of CardIssuer.
type MockCardIssuer struct {
	mu         sync.Mutex
	issued     int
	terminated []string

	IssueCardFunc     func(ctx context.Context, req usecase.IssueCardRequest) (*usecase.IssuedCard, error)
	GetCardFunc       func(ctx context.Context, providerCardID string) (*usecase.IssuedCard, error)
	TerminateCardFunc func(ctx context.Context, providerCardID string) error
}

func (m *MockCardIssuer) IssueCard(ctx context.Context, req usecase.IssueCardRequest) (*usecase.IssuedCard, error) {
	if m.IssueCardFunc != nil {
		return m.IssueCardFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return &usecase.IssuedCard{
		ProviderCardID: fmt.Sprintf("prov-card-%d", m.issued),
		Last4:          "4242",
		Brand:          "visa",
		Status:         domain.CardStatusActive,
		Currency:       req.Currency,
	}, nil
}

func (m *MockCardIssuer) GetCard(ctx context.Context, providerCardID string) (*usecase.IssuedCard, error) {
	if m.GetCardFunc != nil {
		return m.GetCardFunc(ctx, providerCardID)
	}
	return &usecase.IssuedCard{
		ProviderCardID: providerCardID,
		Last4:          "4242",
		Brand:          "visa",
		Status:         domain.CardStatusActive,
	}, nil
}

func (m *MockCardIssuer) TerminateCard(ctx context.Context, providerCardID string) error {
	if m.TerminateCardFunc != nil {
		return m.TerminateCardFunc(ctx, providerCardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = append(m.terminated, providerCardID)
	return nil
}

// Terminated lists provider card ids terminated through the mock.
func (m *MockCardIssuer) Terminated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.terminated...)
}

// MockCryptoProcessor is a mock implementation of CryptoProcessor.
type MockCryptoProcessor struct {
	mu      sync.Mutex
	payouts int

	CreateDepositAddressFunc func(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error)
	CreatePayoutFunc         func(ctx context.Context, req usecase.PayoutRequest) (*usecase.Payout, error)
}

func (m *MockCryptoProcessor) CreateDepositAddress(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
	if m.CreateDepositAddressFunc != nil {
		return m.CreateDepositAddressFunc(ctx, userID, asset)
	}
	return &usecase.DepositAddress{
		Address: "addr-" + userID,
		Asset:   asset,
		Network: "mainnet",
	}, nil
}

func (m *MockCryptoProcessor) CreatePayout(ctx context.Context, req usecase.PayoutRequest) (*usecase.Payout, error) {
	if m.CreatePayoutFunc != nil {
		return m.CreatePayoutFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts++
	return &usecase.Payout{
		ProviderRef: fmt.Sprintf("payout-%d", m.payouts),
		Status:      "submitted",
		Amount:      req.Amount,
	}, nil
}

// MockBillingLocker is a mock implementation of BillingLocker.
type MockBillingLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	Acquired []string

	AcquireFunc func(ctx context.Context, userID string, ttl time.Duration) (func(), error)
}

func NewMockBillingLocker() *MockBillingLocker {
	return &MockBillingLocker{
		held: make(map[string]bool),
	}
}

func (m *MockBillingLocker) Acquire(ctx context.Context, userID string, ttl time.Duration) (func(), error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, userID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[userID] {
		return nil, domain.ErrBillingInProgress
	}
	m.held[userID] = true
	m.Acquired = append(m.Acquired, userID)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, userID)
	}, nil
}

// MockSessionStore is a mock implementation of SessionStore.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string

	SaveFunc func(ctx context.Context, sessionID, userID string, ttl time.Duration) error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]string),
	}
}

func (m *MockSessionStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sessionID, userID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = userID
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockSessionStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

// Has reports whether a session exists.
func (m *MockSessionStore) Has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu   sync.Mutex
	Last *MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Last = &MockTransaction{}
	return m.Last, nil
}

// MockIDGenerator is a mock implementation of IDGenerator producing
// deterministic sequential ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%06d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response == nil {
		response = []byte("processing")
	}
	m.data[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Value returns the stored bytes for key, if any.
func (m *MockIdempotencyStore) Value(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// MockRetrier runs the operation once without retries.
type MockRetrier struct{}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}
