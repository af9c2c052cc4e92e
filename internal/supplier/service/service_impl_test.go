package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/kontera/internal/clock"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
	supplierrepo "github.com/smallbiznis/kontera/internal/supplier/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	repo      supplierdomain.Repository
	evaluator supplierdomain.Evaluator
}

func setupHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&supplierdomain.Supplier{},
		&supplierdomain.PurchaseOrder{},
		&supplierdomain.Solicitation{},
		&supplierdomain.Quote{},
		&supplierdomain.PerformanceSnapshot{},
	))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	repo := supplierrepo.NewRepository(gdb)

	evaluator := NewService(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  repo,
	})

	return &harness{db: gdb, node: node, clock: fakeClock, repo: repo, evaluator: evaluator}
}

func (h *harness) createSupplier(t *testing.T) snowflake.ID {
	t.Helper()
	supplier := supplierdomain.Supplier{ID: h.node.Generate(), Name: "Acme Industrial"}
	require.NoError(t, h.db.Create(&supplier).Error)
	return supplier.ID
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(f float64) *float64 { return &f }

func TestEvaluateScoresAndWeights(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)
	supplierID := h.createSupplier(t)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	expected := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	orders := []supplierdomain.PurchaseOrder{
		// On time, approved, rated 90.
		{SupplierID: supplierID, OrderedAt: start.AddDate(0, 0, 1), ExpectedDeliveryAt: expected, ReceivedAt: ptrTime(expected.AddDate(0, 0, -1)), Approved: true, QualityRating: ptrFloat(90)},
		// Late, approved, rated 70.
		{SupplierID: supplierID, OrderedAt: start.AddDate(0, 0, 2), ExpectedDeliveryAt: expected, ReceivedAt: ptrTime(expected.AddDate(0, 0, 3)), Approved: true, QualityRating: ptrFloat(70)},
		// Still in transit, not approved, unrated: excluded from on-time
		// and quality, counted against approval.
		{SupplierID: supplierID, OrderedAt: start.AddDate(0, 0, 3), ExpectedDeliveryAt: expected},
		// Late, approved, unrated.
		{SupplierID: supplierID, OrderedAt: start.AddDate(0, 0, 4), ExpectedDeliveryAt: expected, ReceivedAt: ptrTime(expected.AddDate(0, 0, 10)), Approved: true},
	}
	for i := range orders {
		orders[i].ID = h.node.Generate()
		require.NoError(t, h.db.Create(&orders[i]).Error)
	}

	issued := start.AddDate(0, 0, 5)
	invites := []supplierdomain.Solicitation{
		{SupplierID: supplierID, IssuedAt: issued},
		{SupplierID: supplierID, IssuedAt: issued},
	}
	for i := range invites {
		invites[i].ID = h.node.Generate()
		require.NoError(t, h.db.Create(&invites[i]).Error)
	}

	quotes := []supplierdomain.Quote{
		// Within the 7-day window, complete.
		{SolicitationID: invites[0].ID, SupplierID: supplierID, SubmittedAt: issued.AddDate(0, 0, 3), Complete: true},
		// Past the window, incomplete: the invite counts as unanswered.
		{SolicitationID: invites[1].ID, SupplierID: supplierID, SubmittedAt: issued.AddDate(0, 0, 9)},
	}
	for i := range quotes {
		quotes[i].ID = h.node.Generate()
		require.NoError(t, h.db.Create(&quotes[i]).Error)
	}

	snapshot, err := h.evaluator.Evaluate(ctx, supplierID, start, end)
	require.NoError(t, err)

	// 1 of 3 received orders on time.
	assert.InDelta(t, 100.0/3.0, snapshot.OnTime, 0.0001)
	// (90+70)/2 across the two rated orders.
	assert.InDelta(t, 80, snapshot.Quality, 0.0001)
	// 1 of 2 invites answered within the window.
	assert.InDelta(t, 50, snapshot.Responsiveness, 0.0001)
	// (1/2 complete quotes + 3/4 approved orders) / 2.
	assert.InDelta(t, 62.5, snapshot.Compliance, 0.0001)

	expectedOverall := 0.40*snapshot.OnTime + 0.20*snapshot.Quality + 0.25*snapshot.Responsiveness + 0.15*snapshot.Compliance
	assert.InDelta(t, expectedOverall, snapshot.Overall, 0.0001)
	assert.True(t, snapshot.AsOf.Equal(h.clock.Now()))
}

func TestEvaluateNoActivityScoresZero(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)
	supplierID := h.createSupplier(t)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	snapshot, err := h.evaluator.Evaluate(ctx, supplierID, start, end)
	require.NoError(t, err)
	assert.Zero(t, snapshot.OnTime)
	assert.Zero(t, snapshot.Quality)
	assert.Zero(t, snapshot.Responsiveness)
	assert.Zero(t, snapshot.Compliance)
	assert.Zero(t, snapshot.Overall)
}

func TestEvaluateUnknownSupplier(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := h.evaluator.Evaluate(ctx, h.node.Generate(), start, end)
	assert.ErrorIs(t, err, supplierdomain.ErrSupplierNotFound)
}

func TestEvaluateSnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)
	supplierID := h.createSupplier(t)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := h.evaluator.Evaluate(ctx, supplierID, start, end)
	require.NoError(t, err)

	// New procurement data arriving later must not rewrite the period.
	order := supplierdomain.PurchaseOrder{
		ID:                 h.node.Generate(),
		SupplierID:         supplierID,
		OrderedAt:          start.AddDate(0, 0, 1),
		ExpectedDeliveryAt: start.AddDate(0, 0, 10),
		ReceivedAt:         ptrTime(start.AddDate(0, 0, 9)),
		Approved:           true,
	}
	require.NoError(t, h.db.Create(&order).Error)

	_, err = h.evaluator.Evaluate(ctx, supplierID, start, end)
	assert.ErrorIs(t, err, supplierdomain.ErrSnapshotExists)

	stored, err := h.repo.FindSnapshot(ctx, supplierID, start, end)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, first.Overall, stored.Overall)

	// A different period is a fresh snapshot.
	_, err = h.evaluator.Evaluate(ctx, supplierID, end, end.AddDate(0, 1, 0))
	require.NoError(t, err)
}
