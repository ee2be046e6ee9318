package recurrence

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/normalize"
	"github.com/tomin-mx/tomin/internal/store"
)

// Named reporting periods for recurring-bill queries.
const (
	PeriodWeekly     = "weekly"
	PeriodBiWeekly   = "biweekly"
	PeriodLastMonth  = "last_month"
	PeriodLast3Month = "last_3_months"
)

// BillQuery selects the reporting window. Period wins when set; otherwise
// Month/Year select a calendar month, defaulting to the current one.
type BillQuery struct {
	Period string
	Month  int
	Year   int
}

// Reporter computes recurring-bill summaries. Bills are derived on every
// query and never stored.
type Reporter struct {
	transactions store.TransactionStore
	now          func() time.Time
}

// NewReporter creates a reporter over the given transaction store.
func NewReporter(transactions store.TransactionStore) *Reporter {
	return &Reporter{transactions: transactions, now: time.Now}
}

// Bills aggregates the user's recurring transactions within the query window
// into per-merchant bills, most expensive first.
func (r *Reporter) Bills(ctx context.Context, userID string, q BillQuery) ([]domain.RecurringBill, error) {
	start, end := r.window(q)

	all, err := r.transactions.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]domain.Transaction)
	for _, tx := range all {
		if !tx.Recurring || tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		name := tx.MerchantName
		if name == "" {
			name = tx.Description
		}
		key := normalize.Merchant(name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}

	bills := make([]domain.RecurringBill, 0, len(groups))
	for key, group := range groups {
		bills = append(bills, r.buildBill(key, group))
	}
	sort.Slice(bills, func(i, j int) bool {
		if bills[i].TotalAmount != bills[j].TotalAmount {
			return bills[i].TotalAmount > bills[j].TotalAmount
		}
		return bills[i].MerchantName < bills[j].MerchantName
	})
	return bills, nil
}

func (r *Reporter) buildBill(key string, group []domain.Transaction) domain.RecurringBill {
	sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

	total := 0.0
	for _, tx := range group {
		total += tx.Amount
	}
	last := group[len(group)-1]

	bill := domain.RecurringBill{
		MerchantName: key,
		AvgAmount:    math.Round(total/float64(len(group))*100) / 100,
		LastAmount:   last.Amount,
		TotalAmount:  math.Round(total*100) / 100,
		Frequency:    domain.FrequencyUnknown,
		Occurrences:  len(group),
		Transactions: group,
		Status:       domain.BillStatusActive,
	}

	// The detector's analysis rides on each flagged transaction; the latest
	// one carries the freshest cadence and next-expected date.
	if last.Recurrence != nil {
		bill.Frequency = last.Recurrence.Frequency
		bill.NextExpected = last.Recurrence.NextExpected
		bill.Status = r.billStatus(last.Recurrence)
	}
	return bill
}

// billStatus derives the lifecycle status from how overdue the next expected
// charge is: past due by more than half an interval is potential churn, past
// due by more than two intervals is cancelled.
func (r *Reporter) billStatus(analysis *domain.RecurringAnalysis) domain.BillStatus {
	interval := cadenceDays(analysis.Frequency)
	if interval == 0 || analysis.NextExpected.IsZero() {
		return domain.BillStatusActive
	}

	overdue := r.now().Sub(analysis.NextExpected)
	intervalDur := time.Duration(interval) * 24 * time.Hour
	switch {
	case overdue > 2*intervalDur:
		return domain.BillStatusCancelled
	case overdue > intervalDur/2:
		return domain.BillStatusPotentialChurn
	default:
		return domain.BillStatusActive
	}
}

// cadenceDays is the nominal interval per cadence bucket, the midpoint of
// its day range.
func cadenceDays(f domain.Frequency) int {
	bounds, ok := domain.FrequencyDays[f]
	if !ok {
		return 0
	}
	return (bounds[0] + bounds[1]) / 2
}

// window resolves a bill query to a concrete date range relative to now.
func (r *Reporter) window(q BillQuery) (time.Time, time.Time) {
	now := r.now()
	switch q.Period {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), now
	case PeriodBiWeekly:
		return now.AddDate(0, 0, -15), now
	case PeriodLastMonth:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := firstOfThis.Add(-time.Second)
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, end
	case PeriodLast3Month:
		return now.AddDate(0, 0, -90), now
	}

	month := q.Month
	year := q.Year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
