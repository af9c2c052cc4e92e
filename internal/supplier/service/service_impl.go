package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kontera/internal/clock"
	obsmetrics "github.com/smallbiznis/kontera/internal/observability/metrics"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    supplierdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    supplierdomain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) supplierdomain.Evaluator {
	return &Service{
		log:     p.Log.Named("supplier.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Evaluate scores a supplier's procurement events over [periodStart,
// periodEnd) and persists the snapshot. Scores are percentages; the overall
// blend uses the fixed documented weights. A snapshot for the same period
// already existing is an explicit rejection, keeping history immutable.
func (s *Service) Evaluate(ctx context.Context, supplierID snowflake.ID, periodStart, periodEnd time.Time) (*supplierdomain.PerformanceSnapshot, error) {
	if _, err := s.repo.FindSupplier(ctx, supplierID); err != nil {
		return nil, err
	}

	orders, err := s.repo.OrdersInPeriod(ctx, supplierID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	invites, err := s.repo.SolicitationsInPeriod(ctx, supplierID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	inviteIDs := make([]snowflake.ID, 0, len(invites))
	for _, invite := range invites {
		inviteIDs = append(inviteIDs, invite.ID)
	}
	quotes, err := s.repo.QuotesBySolicitation(ctx, supplierID, inviteIDs)
	if err != nil {
		return nil, err
	}

	snapshot := &supplierdomain.PerformanceSnapshot{
		ID:             s.genID.Generate(),
		SupplierID:     supplierID,
		PeriodStart:    periodStart.UTC(),
		PeriodEnd:      periodEnd.UTC(),
		OnTime:         onTimeScore(orders),
		Quality:        qualityScore(orders),
		Responsiveness: responsivenessScore(invites, quotes),
		Compliance:     complianceScore(orders, quotes),
		AsOf:           s.clock.Now(),
	}
	snapshot.Overall = supplierdomain.WeightOnTime*snapshot.OnTime +
		supplierdomain.WeightQuality*snapshot.Quality +
		supplierdomain.WeightResponsiveness*snapshot.Responsiveness +
		supplierdomain.WeightCompliance*snapshot.Compliance

	if err := s.repo.InsertSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	s.metrics.RecordSnapshot()
	s.log.Info("supplier evaluated",
		zap.String("supplier_id", supplierID.String()),
		zap.Time("period_start", snapshot.PeriodStart),
		zap.Float64("overall", snapshot.Overall),
	)
	return snapshot, nil
}

// onTimeScore is the share of received orders delivered by their expected
// date.
func onTimeScore(orders []supplierdomain.PurchaseOrder) float64 {
	var received, onTime int
	for _, order := range orders {
		if order.ReceivedAt == nil {
			continue
		}
		received++
		if !order.ReceivedAt.After(order.ExpectedDeliveryAt) {
			onTime++
		}
	}
	return percent(onTime, received)
}

// qualityScore averages the received-goods ratings present on orders.
func qualityScore(orders []supplierdomain.PurchaseOrder) float64 {
	var sum float64
	var rated int
	for _, order := range orders {
		if order.QualityRating == nil {
			continue
		}
		rated++
		sum += *order.QualityRating
	}
	if rated == 0 {
		return 0
	}
	return sum / float64(rated)
}

// responsivenessScore is the share of invites answered with a quote within
// the response window.
func responsivenessScore(invites []supplierdomain.Solicitation, quotes map[snowflake.ID][]supplierdomain.Quote) float64 {
	var answered int
	for _, invite := range invites {
		deadline := invite.IssuedAt.Add(supplierdomain.QuoteResponseWindow)
		for _, quote := range quotes[invite.ID] {
			if !quote.SubmittedAt.After(deadline) {
				answered++
				break
			}
		}
	}
	return percent(answered, len(invites))
}

// complianceScore averages quote completeness and order approval rates.
func complianceScore(orders []supplierdomain.PurchaseOrder, quotes map[snowflake.ID][]supplierdomain.Quote) float64 {
	var quoteCount, completeQuotes int
	for _, batch := range quotes {
		for _, quote := range batch {
			quoteCount++
			if quote.Complete {
				completeQuotes++
			}
		}
	}
	var approved int
	for _, order := range orders {
		if order.Approved {
			approved++
		}
	}
	return (percent(completeQuotes, quoteCount) + percent(approved, len(orders))) / 2
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
