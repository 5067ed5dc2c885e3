package analytics

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/analytics"
	"github.com/btp-erp/backend/internal/domain/shared/valueobject"
)

// StatsQuery holds the query parameters of the stats endpoints
type StatsQuery struct {
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02"`
	ClientID string     `form:"client_id" binding:"omitempty,max=100"`
	Category string     `form:"category"`
	Months   int        `form:"months" binding:"omitempty,min=1,max=120"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=100"`
}

// TotalsResponse is the income/expense summary
type TotalsResponse struct {
	TotalIncome    valueobject.Money `json:"total_income"`
	TotalExpense   valueobject.Money `json:"total_expense"`
	Balance        valueobject.Money `json:"balance"`
	MonthlyIncome  valueobject.Money `json:"monthly_income"`
	MonthlyExpense valueobject.Money `json:"monthly_expense"`
	MonthlyBalance valueobject.Money `json:"monthly_balance"`
}

// CategoryResponse is one row of the category breakdown
type CategoryResponse struct {
	Category string            `json:"category"`
	Income   valueobject.Money `json:"income"`
	Expense  valueobject.Money `json:"expense"`
}

// MonthResponse is one monthly bucket
type MonthResponse struct {
	Month   string            `json:"month"`
	Year    int               `json:"year"`
	Income  valueobject.Money `json:"income"`
	Expense valueobject.Money `json:"expense"`
	Balance valueobject.Money `json:"balance"`
}

// RankedResponse is one row of a top-N list
type RankedResponse struct {
	Key    string            `json:"key"`
	Label  string            `json:"label"`
	Amount valueobject.Money `json:"amount"`
	Count  int               `json:"count"`
}

// StatsResponse is the /finance/stats payload
type StatsResponse struct {
	From       *time.Time         `json:"from,omitempty"`
	To         *time.Time         `json:"to,omitempty"`
	Totals     TotalsResponse     `json:"totals"`
	ByMonth    []MonthResponse    `json:"by_month"`
	ByCategory []CategoryResponse `json:"by_category"`
}

// PipelineResponse summarizes sales records by status
type PipelineResponse struct {
	Counts                 map[string]int64  `json:"counts"`
	OutstandingReceivables valueobject.Money `json:"outstanding_receivables"`
	CollectedRevenue       valueobject.Money `json:"collected_revenue"`
}

// DashboardStatsResponse is the /finance/dashboard-stats payload
type DashboardStatsResponse struct {
	StatsResponse
	TopSuppliers         []RankedResponse `json:"top_suppliers"`
	TopProducts          []RankedResponse `json:"top_products"`
	TopExpenseCategories []RankedResponse `json:"top_expense_categories"`
	Pipeline             PipelineResponse `json:"pipeline"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

func toTotalsResponse(t analytics.Totals) TotalsResponse {
	return TotalsResponse{
		TotalIncome:    valueobject.NewMoney(t.TotalIncome),
		TotalExpense:   valueobject.NewMoney(t.TotalExpense),
		Balance:        valueobject.NewMoney(t.Balance),
		MonthlyIncome:  valueobject.NewMoney(t.MonthlyIncome),
		MonthlyExpense: valueobject.NewMoney(t.MonthlyExpense),
		MonthlyBalance: valueobject.NewMoney(t.MonthlyBalance),
	}
}

func toMonthResponses(buckets []analytics.MonthBucket) []MonthResponse {
	out := make([]MonthResponse, len(buckets))
	for i, b := range buckets {
		out[i] = MonthResponse{
			Month:   time.Date(b.Year, b.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Year:    b.Year,
			Income:  valueobject.NewMoney(b.Income),
			Expense: valueobject.NewMoney(b.Expense),
			Balance: valueobject.NewMoney(b.Balance),
		}
	}
	return out
}

func toCategoryResponses(rows []analytics.CategoryBreakdown) []CategoryResponse {
	out := make([]CategoryResponse, len(rows))
	for i, r := range rows {
		out[i] = CategoryResponse{
			Category: string(r.Category),
			Income:   valueobject.NewMoney(r.Income),
			Expense:  valueobject.NewMoney(r.Expense),
		}
	}
	return out
}

func toRankedResponses(rows []analytics.RankedEntry) []RankedResponse {
	out := make([]RankedResponse, len(rows))
	for i, r := range rows {
		out[i] = RankedResponse{
			Key:    r.Key,
			Label:  r.Label,
			Amount: valueobject.NewMoney(r.Amount),
			Count:  r.Count,
		}
	}
	return out
}

func toPipelineResponse(p analytics.Pipeline) PipelineResponse {
	counts := make(map[string]int64, len(p.Counts))
	for s, n := range p.Counts {
		counts[s.String()] = n
	}
	return PipelineResponse{
		Counts:                 counts,
		OutstandingReceivables: valueobject.NewMoney(p.OutstandingReceivables),
		CollectedRevenue:       valueobject.NewMoney(p.CollectedRevenue),
	}
}
