package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/smallbiznis/kontera/internal/clock"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/kontera/internal/observability/metrics"
	recdomain "github.com/smallbiznis/kontera/internal/reconciliation/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// reconciledEpsilon is one minor currency unit: totals agreeing to the cent
// reconcile.
const reconciledEpsilon = int64(1)

var glSources = []ledgerdomain.SourceType{
	ledgerdomain.SourceTypePurchase,
	ledgerdomain.SourceTypePayment,
	ledgerdomain.SourceTypeTransfer,
	ledgerdomain.SourceTypeLandedCost,
}

var dimensionAxes = []ledgerdomain.DimensionType{
	ledgerdomain.DimensionCostCenter,
	ledgerdomain.DimensionProject,
	ledgerdomain.DimensionDepartment,
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	TxRepo     txdomain.Repository
	LedgerRepo ledgerdomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	txRepo     txdomain.Repository
	ledgerRepo ledgerdomain.Repository
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) recdomain.Engine {
	return &Service{
		log:        p.Log.Named("reconciliation.service"),
		clock:      p.Clock,
		txRepo:     p.TxRepo,
		ledgerRepo: p.LedgerRepo,
		metrics:    p.Metrics,
	}
}

// Reconcile compares posted-transaction totals against the debit side of the
// general ledger for one "YYYY-MM" period, once per dimension axis: cost
// center, project and department each partition the same activity. It reads
// under the store's snapshot isolation and stamps the report with the as-of
// time instead of assuming a frozen world; it never mutates ledger state.
func (s *Service) Reconcile(ctx context.Context, period string) (*recdomain.VarianceReport, error) {
	from, to, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	asOf := s.clock.Now()

	report := &recdomain.VarianceReport{
		Period: period,
		AsOf:   asOf,
		Rows:   make([]recdomain.VarianceRow, 0, 8),
	}

	type bucket struct {
		subledger int64
		gl        int64
	}
	for _, axis := range dimensionAxes {
		subledger, err := s.txRepo.PostedTotalsByDimension(ctx, from, to, axis)
		if err != nil {
			return nil, fmt.Errorf("subledger totals by %s: %w", axis, err)
		}
		gl, err := s.ledgerRepo.DebitTotalsByDimension(ctx, from, to, glSources, axis)
		if err != nil {
			return nil, fmt.Errorf("general ledger totals by %s: %w", axis, err)
		}

		buckets := make(map[string]*bucket)
		get := func(key string) *bucket {
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			return b
		}
		for _, row := range subledger {
			key := ""
			if row.DimensionID != nil {
				key = row.DimensionID.String()
			}
			get(key).subledger += row.Total
		}
		for _, row := range gl {
			key := ""
			if row.DimensionID != nil {
				key = row.DimensionID.String()
			}
			get(key).gl += row.Total
		}

		keys := make([]string, 0, len(buckets))
		for key := range buckets {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			b := buckets[key]
			variance := b.gl - b.subledger
			report.Rows = append(report.Rows, recdomain.VarianceRow{
				DimensionType:  string(axis),
				DimensionID:    key,
				SubledgerTotal: b.subledger,
				GLTotal:        b.gl,
				Variance:       variance,
				Reconciled:     abs(variance) < reconciledEpsilon,
			})
			// Each axis covers the whole period, so the aggregate
			// comes from the cost-center axis alone.
			if axis == ledgerdomain.DimensionCostCenter {
				report.SubledgerTotal += b.subledger
				report.GLTotal += b.gl
			}
		}
	}
	report.TotalVariance = report.GLTotal - report.SubledgerTotal
	report.Reconciled = abs(report.TotalVariance) < reconciledEpsilon
	for _, row := range report.Rows {
		if !row.Reconciled {
			report.Reconciled = false
			break
		}
	}

	s.metrics.RecordReconciliation()
	s.log.Info("reconciliation run",
		zap.String("period", period),
		zap.Int("rows", len(report.Rows)),
		zap.Int64("total_variance", report.TotalVariance),
	)
	return report, nil
}

func parsePeriod(period string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", period, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%q: %w", period, recdomain.ErrInvalidPeriod)
	}
	return start, start.AddDate(0, 1, 0), nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
