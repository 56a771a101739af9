package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// Observer receives a fresh snapshot after every state-changing mutation.
type Observer func(Snapshot)

// Aggregator holds one shopper's selected items in insertion order. The
// zero value is ready to use.
type Aggregator struct {
	mu    sync.Mutex
	lines []Line

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]Observer
}

func NewAggregator() *Aggregator {
	return &Aggregator{observers: map[int]Observer{}}
}

// AddItem appends a line for item or grows the existing one by qty.
// Quantities below 1 are treated as 1.
func (a *Aggregator) AddItem(item Item, qty int) {
	if qty < 1 {
		qty = 1
	}

	a.mu.Lock()
	if idx := a.indexOf(item.ID); idx >= 0 {
		a.lines[idx].Quantity += qty
	} else {
		a.lines = append(a.lines, Line{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  qty,
			ImageRef:  item.ImageRef,
		})
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.notify(snap)
}

// RemoveItem drops the line for itemID. Absent ids are ignored.
func (a *Aggregator) RemoveItem(itemID string) {
	a.mu.Lock()
	changed := a.removeLocked(itemID)
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if changed {
		a.notify(snap)
	}
}

// SetQuantity replaces the line quantity; qty <= 0 removes the line.
func (a *Aggregator) SetQuantity(itemID string, qty int) {
	if qty <= 0 {
		a.RemoveItem(itemID)
		return
	}

	a.mu.Lock()
	idx := a.indexOf(itemID)
	changed := idx >= 0 && a.lines[idx].Quantity != qty
	if changed {
		a.lines[idx].Quantity = qty
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if changed {
		a.notify(snap)
	}
}

// Clear empties the cart.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	changed := len(a.lines) > 0
	a.lines = nil
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if changed {
		a.notify(snap)
	}
}

// Total is recomputed from the lines on every call.
func (a *Aggregator) Total() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return totalOf(a.lines)
}

// LineCount returns the number of distinct lines, not the summed quantity.
func (a *Aggregator) LineCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lines)
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Subscribe registers fn and returns a function that removes it.
func (a *Aggregator) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	a.obsMu.Lock()
	if a.observers == nil {
		a.observers = map[int]Observer{}
	}
	id := a.nextObsID
	a.nextObsID++
	a.observers[id] = fn
	a.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.obsMu.Lock()
			delete(a.observers, id)
			a.obsMu.Unlock()
		})
	}
}

// notify runs observers without holding the line lock so they may read
// the aggregator back.
func (a *Aggregator) notify(snap Snapshot) {
	a.obsMu.Lock()
	ids := make([]int, 0, len(a.observers))
	for id := range a.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	targets := make([]Observer, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, a.observers[id])
	}
	a.obsMu.Unlock()

	for _, fn := range targets {
		fn(snap)
	}
}

func (a *Aggregator) indexOf(itemID string) int {
	for i := range a.lines {
		if a.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (a *Aggregator) removeLocked(itemID string) bool {
	idx := a.indexOf(itemID)
	if idx < 0 {
		return false
	}
	a.lines = append(a.lines[:idx], a.lines[idx+1:]...)
	return true
}

func (a *Aggregator) snapshotLocked() Snapshot {
	lines := make([]Line, len(a.lines))
	copy(lines, a.lines)
	qty := 0
	for _, l := range lines {
		qty += l.Quantity
	}
	return Snapshot{
		Lines:     lines,
		Total:     totalOf(lines),
		LineCount: len(lines),
		Quantity:  qty,
	}
}

func totalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
