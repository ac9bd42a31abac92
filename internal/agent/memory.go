// memory.go - Rolling context window shared across agent calls
//
// Memory is an explicit dependency injected into the orchestrator rather
// than process-global state, so concurrent agents (and tests) can hold
// independent windows.

package agent

import (
	"sync"

	"github.com/smartspend/expense-agent/internal/storage"
)

// memoryWindow caps how many expenses the agents see as context
const memoryWindow = 50

// BudgetSnapshot is the most recent budget the advisor produced, kept so
// later insight calls can reference it
type BudgetSnapshot struct {
	MonthlyIncome float64            `json:"monthly_income"`
	Allocations   map[string]float64 `json:"allocations"`
	SavingsTarget float64            `json:"savings_target"`
}

// Memory holds the recent expense window and the latest budget snapshot.
// Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	expenses []storage.ExpenseRecord
	budget   *BudgetSnapshot
}

func NewMemory() *Memory {
	return &Memory{expenses: []storage.ExpenseRecord{}}
}

// Remember appends a processed expense, evicting the oldest entries beyond
// the window
func (m *Memory) Remember(rec storage.ExpenseRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expenses = append(m.expenses, rec)
	if len(m.expenses) > memoryWindow {
		m.expenses = m.expenses[len(m.expenses)-memoryWindow:]
	}
}

// Expenses returns a copy of the remembered window, oldest first
func (m *Memory) Expenses() []storage.ExpenseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]storage.ExpenseRecord, len(m.expenses))
	copy(out, m.expenses)
	return out
}

// RecentCategories returns the categories of up to n most recent expenses,
// oldest first
func (m *Memory) RecentCategories(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if len(m.expenses) > n {
		start = len(m.expenses) - n
	}
	out := make([]string, 0, len(m.expenses)-start)
	for _, rec := range m.expenses[start:] {
		if rec.Category != "" {
			out = append(out, rec.Category)
		}
	}
	return out
}

// SetBudget records the latest budget the advisor produced
func (m *Memory) SetBudget(b BudgetSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budget = &b
}

// Budget returns the remembered budget snapshot, or nil when none exists
func (m *Memory) Budget() *BudgetSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.budget == nil {
		return nil
	}
	b := *m.budget
	return &b
}

// Len reports how many expenses are currently remembered
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expenses)
}
