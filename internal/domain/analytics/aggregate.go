package analytics

import (
	"context"
	"slices"
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SnapshotReader loads the records an aggregation needs. Reads need no locks;
// a slightly stale snapshot is acceptable.
type SnapshotReader interface {
	Snapshot(ctx context.Context, w Window) (*Snapshot, error)
}

// Totals is the income/expense summary of a window
type Totals struct {
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	Balance        decimal.Decimal
	MonthlyIncome  decimal.Decimal
	MonthlyExpense decimal.Decimal
	MonthlyBalance decimal.Decimal
}

// CategoryBreakdown sums one category's movements
type CategoryBreakdown struct {
	Category ledger.Category
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

// MonthBucket sums the movements of one calendar month
type MonthBucket struct {
	Year    int
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// RankedEntry is one row of a top-N list
type RankedEntry struct {
	Key    string
	Label  string
	Amount decimal.Decimal
	Count  int
}

// Pipeline summarizes sales records by status
type Pipeline struct {
	Counts                 map[sales.Status]int64
	OutstandingReceivables decimal.Decimal
	CollectedRevenue       decimal.Decimal
}

func counted(t *ledger.Transaction) bool {
	return t.Status != ledger.StatusCancelled
}

// ComputeTotals sums entrée and sortie amounts. The monthly variants only
// count movements dated in the month of now.
func ComputeTotals(txs []ledger.Transaction, now time.Time) Totals {
	out := Totals{
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		MonthlyIncome:  decimal.Zero,
		MonthlyExpense: decimal.Zero,
	}
	for i := range txs {
		t := &txs[i]
		if !counted(t) {
			continue
		}
		thisMonth := t.Date.Year() == now.Year() && t.Date.Month() == now.Month()
		switch t.Type {
		case ledger.TypeIncome:
			out.TotalIncome = out.TotalIncome.Add(t.Amount)
			if thisMonth {
				out.MonthlyIncome = out.MonthlyIncome.Add(t.Amount)
			}
		case ledger.TypeExpense:
			out.TotalExpense = out.TotalExpense.Add(t.Amount)
			if thisMonth {
				out.MonthlyExpense = out.MonthlyExpense.Add(t.Amount)
			}
		}
	}
	out.Balance = out.TotalIncome.Sub(out.TotalExpense)
	out.MonthlyBalance = out.MonthlyIncome.Sub(out.MonthlyExpense)
	return out
}

// ByCategory groups movements by category in catalogue order. Categories
// without activity are omitted.
func ByCategory(txs []ledger.Transaction) []CategoryBreakdown {
	sums := make(map[ledger.Category]*CategoryBreakdown)
	for i := range txs {
		t := &txs[i]
		if !counted(t) {
			continue
		}
		b, ok := sums[t.Category]
		if !ok {
			b = &CategoryBreakdown{Category: t.Category, Income: decimal.Zero, Expense: decimal.Zero}
			sums[t.Category] = b
		}
		if t.Type == ledger.TypeIncome {
			b.Income = b.Income.Add(t.Amount)
		} else {
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	out := make([]CategoryBreakdown, 0, len(sums))
	for _, c := range ledger.AllCategories {
		if b, ok := sums[c]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// ByMonth buckets the last n months ending with the month of now.
// Only months with activity appear, in chronological order.
func ByMonth(txs []ledger.Transaction, n int, now time.Time) []MonthBucket {
	return ByMonthIn(txs, MonthsBack(now, n))
}

// ByMonthIn buckets the counted entries dated inside w by calendar month
func ByMonthIn(txs []ledger.Transaction, w Window) []MonthBucket {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthBucket)
	for i := range txs {
		t := &txs[i]
		if !counted(t) || !w.Contains(t.Date) {
			continue
		}
		k := key{t.Date.Year(), t.Date.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[k] = b
		}
		if t.Type == ledger.TypeIncome {
			b.Income = b.Income.Add(t.Amount)
		} else {
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		b.Balance = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthBucket) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return int(a.Month) - int(b.Month)
	})
	return out
}

// ranker accumulates amounts per key, remembering first-seen order
type ranker struct {
	order   []string
	entries map[string]*RankedEntry
}

func newRanker() *ranker {
	return &ranker{entries: make(map[string]*RankedEntry)}
}

func (r *ranker) add(key, label string, amount decimal.Decimal) {
	e, ok := r.entries[key]
	if !ok {
		e = &RankedEntry{Key: key, Label: label, Amount: decimal.Zero}
		r.entries[key] = e
		r.order = append(r.order, key)
	}
	e.Amount = e.Amount.Add(amount)
	e.Count++
}

// top sorts descending by amount. Ties keep first-seen order.
func (r *ranker) top(limit int) []RankedEntry {
	out := make([]RankedEntry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, *r.entries[k])
	}
	slices.SortStableFunc(out, func(a, b RankedEntry) int {
		return b.Amount.Cmp(a.Amount)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopSuppliers ranks sortie counterparties by amount paid
func TopSuppliers(txs []ledger.Transaction, limit int) []RankedEntry {
	r := newRanker()
	for i := range txs {
		t := &txs[i]
		if !counted(t) || t.Type != ledger.TypeExpense || t.Counterparty == "" {
			continue
		}
		r.add(t.Counterparty, t.Counterparty, t.Amount)
	}
	return r.top(limit)
}

// TopExpenseCategories ranks categories by sortie amount
func TopExpenseCategories(txs []ledger.Transaction, limit int) []RankedEntry {
	r := newRanker()
	for i := range txs {
		t := &txs[i]
		if !counted(t) || t.Type != ledger.TypeExpense {
			continue
		}
		r.add(string(t.Category), string(t.Category), t.Amount)
	}
	return r.top(limit)
}

// TopProducts ranks products by sold amount over non-cancelled records
func TopProducts(records []sales.SalesRecord, limit int) []RankedEntry {
	r := newRanker()
	for i := range records {
		rec := &records[i]
		if rec.Status() == sales.StatusCancelled {
			continue
		}
		for _, l := range rec.Lines {
			label := l.Description
			if label == "" {
				label = l.ProductRef
			}
			r.add(l.ProductRef, label, l.Amount())
		}
	}
	return r.top(limit)
}

// ComputePipeline counts records per status and sums invoice amounts still
// due (facture) and collected (payé)
func ComputePipeline(records []sales.SalesRecord) Pipeline {
	p := Pipeline{
		Counts:                 make(map[sales.Status]int64, len(sales.AllStatuses)),
		OutstandingReceivables: decimal.Zero,
		CollectedRevenue:       decimal.Zero,
	}
	for _, s := range sales.AllStatuses {
		p.Counts[s] = 0
	}
	for i := range records {
		rec := &records[i]
		p.Counts[rec.Status()]++
		switch rec.Status() {
		case sales.StatusInvoiced:
			p.OutstandingReceivables = p.OutstandingReceivables.Add(rec.Total)
		case sales.StatusPaid:
			p.CollectedRevenue = p.CollectedRevenue.Add(rec.Total)
		}
	}
	return p
}
