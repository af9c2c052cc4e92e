package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	"github.com/smallbiznis/kontera/internal/clock"
	landedcostdomain "github.com/smallbiznis/kontera/internal/landedcost/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/kontera/internal/observability/metrics"
	postingservice "github.com/smallbiznis/kontera/internal/posting/service"
	productdomain "github.com/smallbiznis/kontera/internal/product/domain"
	"github.com/smallbiznis/kontera/internal/tax"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Resolver    accountsdomain.Resolver
	Assigner    *postingservice.DimensionAssigner
	TxRepo      txdomain.Repository
	LedgerRepo  ledgerdomain.Repository
	ProductRepo productdomain.Repository
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	resolver    accountsdomain.Resolver
	assigner    *postingservice.DimensionAssigner
	txRepo      txdomain.Repository
	ledgerRepo  ledgerdomain.Repository
	productRepo productdomain.Repository
	metrics     *obsmetrics.Metrics
}

func NewService(p Params) landedcostdomain.Allocator {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("landedcost.service"),
		clock:       p.Clock,
		resolver:    p.Resolver,
		assigner:    p.Assigner,
		txRepo:      p.TxRepo,
		ledgerRepo:  p.LedgerRepo,
		productRepo: p.ProductRepo,
		metrics:     p.Metrics,
	}
}

// Allocate spreads the doc total across the purchase lines in proportion to
// their quantities, recomputes per-line unit cost and the product moving
// average, and journals one zero-quantity cost-adjustment line per purchase
// line that receives at least a cent inside its own balanced entry group,
// tagged with the doc's dimensions. The doc flips draft->allocated exactly
// once; the bounded set of row updates shares one transaction.
func (s *Service) Allocate(ctx context.Context, docID snowflake.ID) (bool, error) {
	lc, err := s.txRepo.LoadLandedCost(ctx, docID)
	if err != nil {
		return false, err
	}
	if lc.Doc.Status != txdomain.LandedCostDraft {
		s.metrics.RecordAllocation("rejected")
		return false, landedcostdomain.ErrAlreadyAllocated
	}

	purchase, err := s.txRepo.LoadPurchase(ctx, lc.Doc.PurchaseID)
	if err != nil {
		return false, err
	}

	totalQty := decimal.Zero
	for _, line := range purchase.Lines {
		if line.Quantity.Sign() > 0 {
			totalQty = totalQty.Add(line.Quantity)
		}
	}
	if totalQty.Sign() == 0 {
		// Nothing to spread the cost over. Benign no-op, not an error.
		s.log.Info("landed cost allocation skipped, purchase has no quantity",
			zap.String("doc_id", docID.String()),
			zap.String("purchase_id", lc.Doc.PurchaseID.String()),
		)
		return false, nil
	}

	total := ledgerdomain.FromCents(lc.Amount)
	costPerUnit := total.Div(totalQty)

	inventory, err := s.resolver.Resolve(ctx, accountsdomain.RoleInventory, ledgerdomain.AccountTypeAsset)
	if err != nil {
		return false, err
	}
	clearing, err := s.resolver.Resolve(ctx, accountsdomain.RoleLandedCostClearing, ledgerdomain.AccountTypeLiability)
	if err != nil {
		return false, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		lines := make([]ledgerdomain.JournalLine, 0, len(purchase.Lines)+1)
		var allocatedSum int64

		withQty := make([]txdomain.PurchaseLine, 0, len(purchase.Lines))
		for _, line := range purchase.Lines {
			if line.Quantity.Sign() > 0 {
				withQty = append(withQty, line)
			}
		}
		for i, line := range withQty {
			allocated := ledgerdomain.Cents(tax.Round2(costPerUnit.Mul(line.Quantity)))
			// Rounding remainder lands on the last line so the group
			// stays balanced to the cent; no line may allocate more
			// than what is still unallocated.
			if remaining := lc.Amount - allocatedSum; i == len(withQty)-1 || allocated > remaining {
				allocated = remaining
			}
			if allocated == 0 {
				// A share that rounds below one cent gets no
				// adjustment line and leaves its costs untouched.
				continue
			}
			allocatedSum += allocated

			// newUnitCost = (cost*qty + allocated) / qty
			allocatedDec := ledgerdomain.FromCents(allocated)
			newUnitCost := line.UnitCost.Mul(line.Quantity).Add(allocatedDec).Div(line.Quantity)

			if err := s.txRepo.UpdateLineUnitCost(ctx, tx, line.ID, newUnitCost); err != nil {
				return err
			}
			if line.IsInventory {
				if err := s.productRepo.AbsorbCost(ctx, tx, line.ProductID, allocatedDec); err != nil {
					return err
				}
			}

			lines = append(lines, ledgerdomain.JournalLine{
				AccountID:   inventory.ID,
				DebitAmount: allocated,
				Quantity:    decimal.Zero,
				UnitCost:    newUnitCost,
				Memo:        fmt.Sprintf("landed cost adjustment, purchase line %s", line.ID),
			})
		}

		lines = append(lines, ledgerdomain.JournalLine{
			AccountID:    clearing.ID,
			CreditAmount: lc.Amount,
			Memo:         "landed cost clearing",
		})

		if err := s.assigner.Assign(lines, txdomain.Dimensions{
			CostCenterID: lc.CostCenterID,
			ProjectID:    lc.ProjectID,
			DepartmentID: lc.DepartmentID,
		}); err != nil {
			return err
		}

		group := &ledgerdomain.EntryGroup{
			SourceType: ledgerdomain.SourceTypeLandedCost,
			SourceID:   lc.ID,
			EntryDate:  lc.OccurredAt,
			CreatedBy:  "system",
		}
		if err := s.ledgerRepo.AppendEntryGroup(ctx, tx, group, lines); err != nil {
			return err
		}

		claimed, err := s.txRepo.MarkAllocated(ctx, tx, lc.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if !claimed {
			return landedcostdomain.ErrAlreadyAllocated
		}
		posted, err := s.txRepo.MarkPosted(ctx, tx, lc.ID, s.clock.Now(), "system")
		if err != nil {
			return err
		}
		if !posted {
			return landedcostdomain.ErrAlreadyAllocated
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordAllocation("failed")
		return false, err
	}

	s.metrics.RecordAllocation("allocated")
	s.log.Info("landed cost allocated",
		zap.String("doc_id", docID.String()),
		zap.String("purchase_id", lc.Doc.PurchaseID.String()),
		zap.Int64("total_amount", lc.Amount),
	)
	return true, nil
}
