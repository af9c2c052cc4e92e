package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	accountsrepo "github.com/smallbiznis/kontera/internal/accounts/repository"
	accountsservice "github.com/smallbiznis/kontera/internal/accounts/service"
	"github.com/smallbiznis/kontera/internal/clock"
	"github.com/smallbiznis/kontera/internal/config"
	landedcostdomain "github.com/smallbiznis/kontera/internal/landedcost/domain"
	landedcostservice "github.com/smallbiznis/kontera/internal/landedcost/service"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/kontera/internal/ledger/repository"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	postingservice "github.com/smallbiznis/kontera/internal/posting/service"
	productdomain "github.com/smallbiznis/kontera/internal/product/domain"
	productrepo "github.com/smallbiznis/kontera/internal/product/repository"
	recdomain "github.com/smallbiznis/kontera/internal/reconciliation/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	txrepo "github.com/smallbiznis/kontera/internal/transaction/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db          *gorm.DB
	node        *snowflake.Node
	clock       *clock.FakeClock
	txRepo      txdomain.Repository
	productRepo productdomain.Repository
	posting     postingdomain.Service
	allocator   landedcostdomain.Allocator
	engine      recdomain.Engine
}

func setupHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&ledgerdomain.AccountingCode{},
		&ledgerdomain.EntryGroup{},
		&ledgerdomain.JournalLine{},
		&txdomain.Transaction{},
		&txdomain.PurchaseLine{},
		&txdomain.TransferDetail{},
		&txdomain.LandedCostDoc{},
		&productdomain.Product{},
	))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	accounts := []ledgerdomain.AccountingCode{
		{Code: "1100", Name: "Cash", Type: ledgerdomain.AccountTypeAsset},
		{Code: "1110", Name: "Bank", Type: ledgerdomain.AccountTypeAsset},
		{Code: "1200", Name: "Inventory", Type: ledgerdomain.AccountTypeAsset},
		{Code: "1300", Name: "VAT Receivable", Type: ledgerdomain.AccountTypeAsset},
		{Code: "2100", Name: "Accounts Payable", Type: ledgerdomain.AccountTypeLiability},
		{Code: "2200", Name: "Landed Cost Clearing", Type: ledgerdomain.AccountTypeLiability},
		{Code: "5100", Name: "Operating Expenses", Type: ledgerdomain.AccountTypeExpense},
	}
	for i := range accounts {
		accounts[i].ID = node.Generate()
		require.NoError(t, gdb.Create(&accounts[i]).Error)
	}

	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	roles := accountsdomain.DefaultRoleMap()
	resolver := accountsservice.NewResolver(accountsservice.Params{
		Repo:  accountsrepo.NewRepository(gdb),
		Roles: roles,
		Log:   log,
	})
	transactions := txrepo.NewRepository(gdb, log)
	ledger := ledgerrepo.NewRepository(gdb, log, node)

	products := productrepo.NewRepository(gdb)
	assigner := postingservice.NewDimensionAssigner(config.Config{})

	posting := postingservice.NewService(postingservice.Params{
		DB:          gdb,
		Log:         log,
		GenID:       node,
		Clock:       fakeClock,
		Resolver:    resolver,
		Roles:       roles,
		Assigner:    assigner,
		TxRepo:      transactions,
		LedgerRepo:  ledger,
		ProductRepo: products,
	})
	allocator := landedcostservice.NewService(landedcostservice.Params{
		DB:          gdb,
		Log:         log,
		Clock:       fakeClock,
		Resolver:    resolver,
		Assigner:    assigner,
		TxRepo:      transactions,
		LedgerRepo:  ledger,
		ProductRepo: products,
	})
	engine := NewService(Params{
		Log:        log,
		Clock:      fakeClock,
		TxRepo:     transactions,
		LedgerRepo: ledger,
	})

	return &harness{
		db:          gdb,
		node:        node,
		clock:       fakeClock,
		txRepo:      transactions,
		productRepo: products,
		posting:     posting,
		allocator:   allocator,
		engine:      engine,
	}
}

func rowsByAxis(report *recdomain.VarianceReport, axis ledgerdomain.DimensionType) map[string]recdomain.VarianceRow {
	rows := make(map[string]recdomain.VarianceRow)
	for _, row := range report.Rows {
		if row.DimensionType == string(axis) {
			rows[row.DimensionID] = row
		}
	}
	return rows
}

func TestReconcilePostedActivityMatches(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	branchA := h.node.Generate()
	branchB := h.node.Generate()

	// Purchase with VAT booked against branch A.
	purchase, err := txdomain.NewPurchase(
		h.node, h.node.Generate(), h.clock.Now(), txdomain.PaymentMethodCredit, decimal.NewFromInt(10),
		txdomain.Dimensions{CostCenterID: &branchA},
		[]txdomain.PurchaseLine{
			{ProductID: h.node.Generate(), Quantity: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("85.00"), IsInventory: false, Taxable: true},
		},
	)
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreatePurchase(ctx, purchase))
	_, err = h.posting.Post(ctx, purchase.ID, "alice")
	require.NoError(t, err)

	// Stock transfer from branch A to branch B.
	transfer, err := txdomain.NewTransfer(h.node, h.node.Generate(), decimal.NewFromInt(5), 25000, branchA, branchB, h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreateTransfer(ctx, transfer))
	_, err = h.posting.Post(ctx, transfer.ID, "alice")
	require.NoError(t, err)

	report, err := h.engine.Reconcile(ctx, "2025-03")
	require.NoError(t, err)

	assert.True(t, report.Reconciled)
	assert.Zero(t, report.TotalVariance)
	assert.Equal(t, "2025-03", report.Period)
	assert.True(t, report.AsOf.Equal(h.clock.Now()))
	require.Len(t, report.Rows, 4)

	byCC := rowsByAxis(report, ledgerdomain.DimensionCostCenter)
	require.Len(t, byCC, 2)
	rowA := byCC[branchA.String()]
	assert.Equal(t, int64(93500), rowA.SubledgerTotal)
	assert.Equal(t, int64(93500), rowA.GLTotal)
	assert.True(t, rowA.Reconciled)

	rowB := byCC[branchB.String()]
	assert.Equal(t, int64(25000), rowB.SubledgerTotal)
	assert.Equal(t, int64(25000), rowB.GLTotal)
	assert.True(t, rowB.Reconciled)

	// Nothing carries project or department tags, so each of those axes
	// collapses to one reconciled untagged bucket.
	for _, axis := range []ledgerdomain.DimensionType{ledgerdomain.DimensionProject, ledgerdomain.DimensionDepartment} {
		rows := rowsByAxis(report, axis)
		require.Len(t, rows, 1)
		row := rows[""]
		assert.Equal(t, int64(118500), row.SubledgerTotal)
		assert.Equal(t, int64(118500), row.GLTotal)
		assert.True(t, row.Reconciled)
	}
}

func TestReconcileSurfacesDriftAsUnreconciledRow(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	// A posted transaction with no ledger entries behind it: the kind of
	// drift reconciliation exists to find.
	branch := h.node.Generate()
	require.NoError(t, h.db.Create(&txdomain.Transaction{
		ID:            h.node.Generate(),
		Kind:          txdomain.KindPurchase,
		PostingStatus: txdomain.StatusPosted,
		Amount:        40000,
		Currency:      "USD",
		OccurredAt:    h.clock.Now(),
		CostCenterID:  &branch,
	}).Error)

	report, err := h.engine.Reconcile(ctx, "2025-03")
	require.NoError(t, err)

	assert.False(t, report.Reconciled)
	assert.Equal(t, int64(-40000), report.TotalVariance)
	require.Len(t, report.Rows, 3)
	for _, row := range report.Rows {
		assert.False(t, row.Reconciled)
		assert.Equal(t, int64(-40000), row.Variance)
	}
	ccRows := rowsByAxis(report, ledgerdomain.DimensionCostCenter)
	require.Contains(t, ccRows, branch.String())
}

func TestReconcileScopesToPeriod(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	branch := h.node.Generate()
	purchase, err := txdomain.NewPurchase(
		h.node, h.node.Generate(), time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), txdomain.PaymentMethodCredit, decimal.Zero,
		txdomain.Dimensions{CostCenterID: &branch},
		[]txdomain.PurchaseLine{
			{ProductID: h.node.Generate(), Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("100.00"), IsInventory: false},
		},
	)
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreatePurchase(ctx, purchase))
	_, err = h.posting.Post(ctx, purchase.ID, "alice")
	require.NoError(t, err)

	// February activity is invisible to the March report.
	report, err := h.engine.Reconcile(ctx, "2025-03")
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Reconciled)

	report, err = h.engine.Reconcile(ctx, "2025-02")
	require.NoError(t, err)
	ccRows := rowsByAxis(report, ledgerdomain.DimensionCostCenter)
	require.Len(t, ccRows, 1)
	assert.Equal(t, int64(10000), ccRows[branch.String()].SubledgerTotal)
}

func TestReconcileIncludesLandedCostAllocations(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	branch := h.node.Generate()
	productID := h.node.Generate()
	require.NoError(t, h.productRepo.Create(ctx, &productdomain.Product{
		ID:             productID,
		SKU:            "SKU-LC",
		Name:           "Widget",
		QuantityOnHand: decimal.NewFromInt(10),
		AverageCost:    decimal.RequireFromString("85.00"),
	}))

	purchase, err := txdomain.NewPurchase(
		h.node, h.node.Generate(), h.clock.Now(), txdomain.PaymentMethodCredit, decimal.Zero,
		txdomain.Dimensions{CostCenterID: &branch},
		[]txdomain.PurchaseLine{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("85.00"), IsInventory: true},
		},
	)
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreatePurchase(ctx, purchase))
	_, err = h.posting.Post(ctx, purchase.ID, "alice")
	require.NoError(t, err)

	// Freight booked against the same branch; allocation both journals the
	// cost and flips its header to posted, so it lands on both sides.
	lc, err := txdomain.NewLandedCost(h.node, purchase.ID, 3000, h.clock.Now(), txdomain.Dimensions{CostCenterID: &branch})
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreateLandedCost(ctx, lc))
	allocated, err := h.allocator.Allocate(ctx, lc.ID)
	require.NoError(t, err)
	require.True(t, allocated)

	report, err := h.engine.Reconcile(ctx, "2025-03")
	require.NoError(t, err)

	assert.True(t, report.Reconciled)
	assert.Zero(t, report.TotalVariance)

	byCC := rowsByAxis(report, ledgerdomain.DimensionCostCenter)
	require.Len(t, byCC, 1)
	row := byCC[branch.String()]
	assert.Equal(t, int64(88000), row.SubledgerTotal)
	assert.Equal(t, int64(88000), row.GLTotal)
	assert.True(t, row.Reconciled)
}

func TestReconcileGroupsByProjectAxis(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	project := h.node.Generate()
	purchase, err := txdomain.NewPurchase(
		h.node, h.node.Generate(), h.clock.Now(), txdomain.PaymentMethodCredit, decimal.Zero,
		txdomain.Dimensions{ProjectID: &project},
		[]txdomain.PurchaseLine{
			{ProductID: h.node.Generate(), Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("100.00"), IsInventory: false},
		},
	)
	require.NoError(t, err)
	require.NoError(t, h.txRepo.CreatePurchase(ctx, purchase))
	_, err = h.posting.Post(ctx, purchase.ID, "alice")
	require.NoError(t, err)

	report, err := h.engine.Reconcile(ctx, "2025-03")
	require.NoError(t, err)
	assert.True(t, report.Reconciled)

	byProject := rowsByAxis(report, ledgerdomain.DimensionProject)
	require.Len(t, byProject, 1)
	row := byProject[project.String()]
	assert.Equal(t, int64(10000), row.SubledgerTotal)
	assert.Equal(t, int64(10000), row.GLTotal)
	assert.True(t, row.Reconciled)

	// The same activity shows up untagged on the cost-center axis.
	byCC := rowsByAxis(report, ledgerdomain.DimensionCostCenter)
	require.Len(t, byCC, 1)
	assert.Equal(t, int64(10000), byCC[""].SubledgerTotal)
}

func TestReconcileInvalidPeriod(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	_, err := h.engine.Reconcile(ctx, "March 2025")
	assert.ErrorIs(t, err, recdomain.ErrInvalidPeriod)
}
