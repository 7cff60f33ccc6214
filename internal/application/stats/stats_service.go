package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/identity"
	"github.com/tierhub/backend/internal/domain/shared"
)

// Range is a reporting window
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// ParseRange validates a range name
func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case RangeWeek, RangeMonth, RangeYear:
		return r, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown range %q, expected week, month or year", s))
}

// TimeSeries is a labelled series of bucket values
type TimeSeries struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// RevenueTotal is the sum of completed payments
type RevenueTotal struct {
	AmountMinor int64
	Amount      decimal.Decimal
}

// StatsService computes admin dashboard aggregates
type StatsService struct {
	paymentRepo billing.PaymentRepository
	userRepo    identity.UserRepository
	currency    string
	now         func() time.Time
}

// NewStatsService creates a new StatsService. currency is used to render totals.
func NewStatsService(paymentRepo billing.PaymentRepository, userRepo identity.UserRepository, currency string) *StatsService {
	return &StatsService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		currency:    currency,
		now:         time.Now,
	}
}

// TotalRevenue returns the sum of completed payments
func (s *StatsService) TotalRevenue(ctx context.Context) (*RevenueTotal, error) {
	total, err := s.paymentRepo.SumCompleted(ctx)
	if err != nil {
		return nil, err
	}
	return &RevenueTotal{AmountMinor: total, Amount: billing.ToMajorUnits(total, s.currency)}, nil
}

// Revenue buckets completed payment amounts (minor units) over the range
func (s *StatsService) Revenue(ctx context.Context, r Range) (*TimeSeries, error) {
	buckets := newBuckets(r, s.now())
	payments, err := s.paymentRepo.ListCompletedSince(ctx, buckets.start)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		buckets.add(payments[i].PaymentDate, payments[i].Amount)
	}
	return buckets.series(), nil
}

// NewUsers buckets user signups over the range
func (s *StatsService) NewUsers(ctx context.Context, r Range) (*TimeSeries, error) {
	buckets := newBuckets(r, s.now())
	stamps, err := s.userRepo.ListFirstConnectionsSince(ctx, buckets.start)
	if err != nil {
		return nil, err
	}
	for _, at := range stamps {
		buckets.add(at, 1)
	}
	return buckets.series(), nil
}

// buckets holds contiguous UTC day or month buckets ending with the current one
type buckets struct {
	monthly bool
	start   time.Time
	starts  []time.Time
	values  []int64
}

func newBuckets(r Range, now time.Time) *buckets {
	now = now.UTC()
	b := &buckets{}
	switch r {
	case RangeYear:
		b.monthly = true
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
		for i := 0; i < 12; i++ {
			b.starts = append(b.starts, first.AddDate(0, i, 0))
		}
	default:
		days := 7
		if r == RangeMonth {
			days = 30
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		first := today.AddDate(0, 0, -(days - 1))
		for i := 0; i < days; i++ {
			b.starts = append(b.starts, first.AddDate(0, 0, i))
		}
	}
	b.start = b.starts[0]
	b.values = make([]int64, len(b.starts))
	return b
}

func (b *buckets) add(at time.Time, v int64) {
	at = at.UTC()
	if at.Before(b.start) {
		return
	}
	var idx int
	if b.monthly {
		idx = (at.Year()-b.start.Year())*12 + int(at.Month()) - int(b.start.Month())
	} else {
		idx = int(at.Sub(b.start) / (24 * time.Hour))
	}
	if idx >= 0 && idx < len(b.values) {
		b.values[idx] += v
	}
}

func (b *buckets) series() *TimeSeries {
	labels := make([]string, len(b.starts))
	for i, t := range b.starts {
		labels[i] = t.Format("2006-01-02")
	}
	return &TimeSeries{Labels: labels, Data: b.values}
}
