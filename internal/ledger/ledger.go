package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/erazemk/inventario/internal/metrics"
	"github.com/erazemk/inventario/internal/model"
)

// Store keys of the two persisted namespaces.
const (
	KeyInventory    = "inventory"
	KeyTransactions = "transactions"
)

// KeyValueStore persists JSON documents by key. Set must write all values or none.
type KeyValueStore interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, values map[string]any) error
}

// Ledger owns the item collection and the append-only transaction log.
// Mutations are serialised and persisted before they return.
type Ledger struct {
	mu           sync.RWMutex
	kv           KeyValueStore
	items        []model.Item
	transactions []model.Transaction // most recent first

	now      func() time.Time
	newID    func() string
	metrics  *metrics.Ledger
	validate *validator.Validate
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the identifier generator for items and transactions.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithMetrics records ledger activity on m.
func WithMetrics(m *metrics.Ledger) Option {
	return func(l *Ledger) { l.metrics = m }
}

// Open loads the ledger state from kv.
func Open(ctx context.Context, kv KeyValueStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		kv:       kv,
		now:      time.Now,
		newID:    uuid.NewString,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(l)
	}

	if _, err := kv.Get(ctx, KeyInventory, &l.items); err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	if _, err := kv.Get(ctx, KeyTransactions, &l.transactions); err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if l.items == nil {
		l.items = []model.Item{}
	}
	if l.transactions == nil {
		l.transactions = []model.Transaction{}
	}

	l.recordStock(l.items)
	slog.Info("ledger loaded", "items", len(l.items), "transactions", len(l.transactions))
	return l, nil
}

// AddItem creates an item from the draft and records its initial stock as an
// Entrada transaction.
func (l *Ledger) AddItem(ctx context.Context, d model.Draft) (model.Item, error) {
	d = normalizeDraft(d)
	quantity, err := l.validateDraft(d)
	if err != nil {
		l.metrics.Observe("add", metrics.ResultRejected)
		return model.Item{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if d.SerialNumber != "" {
		if _, ok := findBySerial(l.items, d.SerialNumber); ok {
			l.metrics.Observe("add", metrics.ResultRejected)
			return model.Item{}, fmt.Errorf("%w: %s", ErrDuplicateSerial, d.SerialNumber)
		}
	}

	now := l.now()
	item := model.Item{
		ID:           l.newID(),
		Name:         d.Name,
		Description:  d.Description,
		DeviceType:   d.DeviceType,
		SerialNumber: d.SerialNumber,
		Location:     d.Location,
		Quantity:     quantity,
		LastUpdated:  now,
	}
	tx := l.newTransaction(item, model.TransactionEntrada, quantity, now)

	items := append(slices.Clone(l.items), item)
	if err := l.commit(ctx, "add", items, tx); err != nil {
		return model.Item{}, err
	}

	slog.Info("item added", "item", item.Name, "serial", item.SerialNumber, "quantity", item.Quantity)
	return item, nil
}

// AdjustQuantity adds delta to the item's quantity and records an Entrada
// (delta > 0) or Salida (delta < 0) transaction of |delta| units.
func (l *Ledger) AdjustQuantity(ctx context.Context, itemID string, delta int) (model.Item, error) {
	if delta == 0 {
		l.metrics.Observe("adjust", metrics.ResultRejected)
		return model.Item{}, fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(itemID)
	if i < 0 {
		l.metrics.Observe("adjust", metrics.ResultRejected)
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	current := l.items[i]
	switch {
	case delta == math.MinInt:
		l.metrics.Observe("adjust", metrics.ResultRejected)
		return model.Item{}, fmt.Errorf("%w: delta %d out of range", ErrInvalidInput, delta)
	case delta > 0 && current.Quantity > math.MaxInt-delta:
		l.metrics.Observe("adjust", metrics.ResultRejected)
		return model.Item{}, fmt.Errorf("%w: adding %d to %d overflows", ErrInvalidInput, delta, current.Quantity)
	}
	if delta < 0 && -delta > current.Quantity {
		l.metrics.Observe("adjust", metrics.ResultRejected)
		return model.Item{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, current.Quantity, -delta)
	}

	now := l.now()
	updated := current
	updated.Quantity += delta
	updated.LastUpdated = now

	txType, magnitude := model.TransactionEntrada, delta
	if delta < 0 {
		txType, magnitude = model.TransactionSalida, -delta
	}
	tx := l.newTransaction(updated, txType, magnitude, now)

	items := slices.Clone(l.items)
	items[i] = updated
	if err := l.commit(ctx, "adjust", items, tx); err != nil {
		return model.Item{}, err
	}

	slog.Info("stock adjusted", "item", updated.Name, "type", txType, "quantity", magnitude, "on_hand", updated.Quantity)
	return updated, nil
}

// DecommissionItem records a Baja transaction for the quantity on hand and
// permanently removes the item. The transaction outlives the item.
func (l *Ledger) DecommissionItem(ctx context.Context, itemID string) (model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(itemID)
	if i < 0 {
		l.metrics.Observe("decommission", metrics.ResultRejected)
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return l.decommissionAt(ctx, i)
}

// DecommissionBySerial decommissions the first item whose serial number
// matches serial, ignoring case and surrounding whitespace.
func (l *Ledger) DecommissionBySerial(ctx context.Context, serial string) (model.Transaction, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		l.metrics.Observe("decommission", metrics.ResultRejected)
		return model.Transaction{}, fmt.Errorf("%w: serial number is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := findBySerial(l.items, serial)
	if !ok {
		l.metrics.Observe("decommission", metrics.ResultRejected)
		return model.Transaction{}, fmt.Errorf("%w: no item with serial number %s", ErrItemNotFound, serial)
	}
	return l.decommissionAt(ctx, i)
}

func (l *Ledger) decommissionAt(ctx context.Context, i int) (model.Transaction, error) {
	item := l.items[i]
	tx := l.newTransaction(item, model.TransactionBaja, item.Quantity, l.now())

	items := slices.Delete(slices.Clone(l.items), i, i+1)
	if err := l.commit(ctx, "decommission", items, tx); err != nil {
		return model.Transaction{}, err
	}

	slog.Info("item decommissioned", "item", item.Name, "serial", item.SerialNumber, "quantity", item.Quantity)
	return tx, nil
}

// FindBySerial returns the first item whose serial number equals serial,
// ignoring case. Blank serials never match.
func (l *Ledger) FindBySerial(serial string) (model.Item, bool) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return model.Item{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := findBySerial(l.items, serial)
	if !ok {
		return model.Item{}, false
	}
	return l.items[i], true
}

// Item returns the item with the given identifier.
func (l *Ledger) Item(itemID string) (model.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOf(itemID)
	if i < 0 {
		return model.Item{}, false
	}
	return l.items[i], true
}

// Items returns a copy of the item collection in insertion order.
func (l *Ledger) Items() []model.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Transactions returns a copy of the transaction log, most recent first.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.transactions)
}

// commit persists items together with the log extended by tx, then swaps the
// in-memory state. On failure nothing changes.
func (l *Ledger) commit(ctx context.Context, op string, items []model.Item, tx model.Transaction) error {
	transactions := make([]model.Transaction, 0, len(l.transactions)+1)
	transactions = append(transactions, tx)
	transactions = append(transactions, l.transactions...)

	err := l.kv.Set(ctx, map[string]any{
		KeyInventory:    items,
		KeyTransactions: transactions,
	})
	if err != nil {
		l.metrics.Observe(op, metrics.ResultError)
		slog.Error("failed to persist ledger", "operation", op, "error", err)
		return fmt.Errorf("persisting %s: %w", op, err)
	}

	l.items = items
	l.transactions = transactions
	l.metrics.Observe(op, metrics.ResultOK)
	l.recordStock(items)
	return nil
}

func (l *Ledger) newTransaction(item model.Item, typ model.TransactionType, quantity int, at time.Time) model.Transaction {
	return model.Transaction{
		ID:        l.newID(),
		ItemID:    item.ID,
		ItemName:  item.Name,
		Type:      typ,
		Quantity:  quantity,
		Timestamp: at,
	}
}

func (l *Ledger) validateDraft(d model.Draft) (int, error) {
	if err := l.validate.Struct(d); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return 0, fmt.Errorf("%w: %s is required", ErrInvalidInput, strings.ToLower(errs[0].Field()))
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	quantity, err := strconv.Atoi(d.Quantity)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a whole number", ErrInvalidInput, d.Quantity)
	}
	if quantity < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	return quantity, nil
}

func (l *Ledger) indexOf(itemID string) int {
	return slices.IndexFunc(l.items, func(it model.Item) bool { return it.ID == itemID })
}

func (l *Ledger) recordStock(items []model.Item) {
	units := 0
	for _, it := range items {
		units += it.Quantity
	}
	l.metrics.SetStock(len(items), units)
}

func findBySerial(items []model.Item, serial string) (int, bool) {
	i := slices.IndexFunc(items, func(it model.Item) bool {
		return strings.EqualFold(it.SerialNumber, serial)
	})
	return i, i >= 0
}

func normalizeDraft(d model.Draft) model.Draft {
	return model.Draft{
		Name:         strings.TrimSpace(d.Name),
		Description:  strings.TrimSpace(d.Description),
		DeviceType:   strings.TrimSpace(d.DeviceType),
		SerialNumber: strings.TrimSpace(d.SerialNumber),
		Quantity:     strings.TrimSpace(d.Quantity),
		Location:     strings.TrimSpace(d.Location),
	}
}
