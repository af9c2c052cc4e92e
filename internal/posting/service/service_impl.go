package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	"github.com/smallbiznis/kontera/internal/clock"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/kontera/internal/observability/metrics"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	productdomain "github.com/smallbiznis/kontera/internal/product/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Resolver    accountsdomain.Resolver
	Roles       accountsdomain.RoleMap
	Assigner    *DimensionAssigner
	TxRepo      txdomain.Repository
	LedgerRepo  ledgerdomain.Repository
	ProductRepo productdomain.Repository
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	builder     *JournalBuilder
	assigner    *DimensionAssigner
	txRepo      txdomain.Repository
	ledgerRepo  ledgerdomain.Repository
	productRepo productdomain.Repository
	metrics     *obsmetrics.Metrics
}

func NewService(p Params) postingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("posting.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		builder:     NewJournalBuilder(p.Resolver, p.Roles),
		assigner:    p.Assigner,
		txRepo:      p.TxRepo,
		ledgerRepo:  p.LedgerRepo,
		productRepo: p.ProductRepo,
		metrics:     p.Metrics,
	}
}

// Post converts one draft transaction into a persisted EntryGroup. Account
// resolution, tax computation, line building, dimension assignment, the
// ledger append and the draft->posted claim all share one database
// transaction; any failure rolls the whole attempt back and the transaction
// is marked failed outside it.
func (s *Service) Post(ctx context.Context, transactionID snowflake.ID, postedBy string) (*postingdomain.PostResult, error) {
	started := time.Now()

	header, err := s.txRepo.FindHeader(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch header.PostingStatus {
	case txdomain.StatusPosted:
		return nil, postingdomain.ErrAlreadyPosted
	case txdomain.StatusFailed:
		return nil, postingdomain.ErrNotPostable
	}
	if postedBy == "" {
		postedBy = "system"
	}

	var (
		group *ledgerdomain.EntryGroup
		lines []ledgerdomain.JournalLine
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var buildErr error
		lines, buildErr = s.buildLines(ctx, tx, header)
		if buildErr != nil {
			return buildErr
		}
		if assignErr := s.assigner.Assign(lines, txdomain.Dimensions{
			CostCenterID: header.CostCenterID,
			ProjectID:    header.ProjectID,
			DepartmentID: header.DepartmentID,
		}); assignErr != nil {
			return assignErr
		}

		group = &ledgerdomain.EntryGroup{
			SourceType: ledgerdomain.SourceType(header.Kind),
			SourceID:   header.ID,
			EntryDate:  header.OccurredAt,
			CreatedBy:  postedBy,
		}
		if appendErr := s.ledgerRepo.AppendEntryGroup(ctx, tx, group, lines); appendErr != nil {
			if errors.Is(appendErr, ledgerdomain.ErrDuplicateEntryGroup) {
				return postingdomain.ErrAlreadyPosted
			}
			return appendErr
		}

		claimed, claimErr := s.txRepo.MarkPosted(ctx, tx, header.ID, s.clock.Now(), postedBy)
		if claimErr != nil {
			return claimErr
		}
		if !claimed {
			return postingdomain.ErrAlreadyPosted
		}
		return nil
	})
	if err != nil {
		s.recordPosting(string(header.Kind), "failed", 0, started)
		if !errors.Is(err, postingdomain.ErrAlreadyPosted) {
			if failErr := s.txRepo.MarkFailed(ctx, header.ID, err.Error()); failErr != nil {
				s.log.Warn("could not mark transaction failed",
					zap.String("transaction_id", header.ID.String()),
					zap.Error(failErr),
				)
			}
		}
		return nil, err
	}

	warnings := s.applySideEffects(ctx, header)

	s.recordPosting(string(header.Kind), "posted", len(lines), started)
	s.log.Info("transaction posted",
		zap.String("transaction_id", header.ID.String()),
		zap.String("kind", string(header.Kind)),
		zap.String("entry_group_id", group.ID.String()),
		zap.Int64("total_amount", header.Total()),
	)

	return result(group, lines, header.Total(), warnings), nil
}

func (s *Service) buildLines(ctx context.Context, tx *gorm.DB, header *txdomain.Transaction) ([]ledgerdomain.JournalLine, error) {
	switch header.Kind {
	case txdomain.KindPurchase:
		purchase, err := s.txRepo.LoadPurchase(ctx, header.ID)
		if err != nil {
			return nil, err
		}
		return s.builder.BuildPurchaseEntries(ctx, purchase)

	case txdomain.KindPayment:
		payment, err := s.txRepo.LoadPayment(ctx, header.ID)
		if err != nil {
			return nil, err
		}
		outstanding, err := s.outstandingBalance(ctx, tx, payment.AppliesTo)
		if err != nil {
			return nil, err
		}
		return s.builder.BuildPaymentEntries(ctx, payment, outstanding)

	case txdomain.KindTransfer:
		transfer, err := s.txRepo.LoadTransfer(ctx, header.ID)
		if err != nil {
			return nil, err
		}
		return s.builder.BuildTransferEntries(ctx, transfer)

	case txdomain.KindLandedCost:
		// Landed-cost docs post through the allocator, which owns the
		// cost redistribution.
		return nil, postingdomain.ErrUnsupportedKind

	default:
		return nil, postingdomain.ErrUnsupportedKind
	}
}

func (s *Service) outstandingBalance(ctx context.Context, tx *gorm.DB, purchaseID snowflake.ID) (int64, error) {
	purchase, err := s.txRepo.FindHeader(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, txdomain.ErrNotFound) {
			return 0, postingdomain.ErrRelatedNotFound
		}
		return 0, err
	}
	settled, err := s.txRepo.SettledAmount(ctx, tx, purchaseID)
	if err != nil {
		return 0, err
	}
	return purchase.Total() - settled, nil
}

// applySideEffects runs best-effort bookkeeping after the posting committed.
// Failures never unwind the posting; they come back as warnings on the
// result so the caller can act on them.
func (s *Service) applySideEffects(ctx context.Context, header *txdomain.Transaction) []string {
	if header.Kind != txdomain.KindPurchase {
		return nil
	}

	purchase, err := s.txRepo.LoadPurchase(ctx, header.ID)
	if err != nil {
		return []string{fmt.Sprintf("stock update skipped: %v", err)}
	}

	var warnings []string
	for _, line := range purchase.Lines {
		if !line.IsInventory || line.Quantity.Sign() <= 0 {
			continue
		}
		line := line
		err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.productRepo.ReceiveStock(ctx, tx, line.ProductID, line.Quantity, ledgerdomain.FromCents(line.LineTotal))
		})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("stock update failed for product %s: %v", line.ProductID, err))
		}
	}
	return warnings
}

// Reverse creates a new entry group mirroring the original with debit and
// credit sides swapped. A group can be reversed once; reversing a reversal
// is rejected.
func (s *Service) Reverse(ctx context.Context, entryGroupID snowflake.ID, memo, requestedBy string) (*postingdomain.PostResult, error) {
	original, err := s.ledgerRepo.FindGroupByID(ctx, entryGroupID)
	if err != nil {
		return nil, err
	}
	if original.SourceType == ledgerdomain.SourceTypeReversal {
		return nil, postingdomain.ErrAlreadyReversed
	}

	originalLines, err := s.ledgerRepo.LinesByGroup(ctx, entryGroupID)
	if err != nil {
		return nil, err
	}

	reversed := make([]ledgerdomain.JournalLine, 0, len(originalLines))
	for _, line := range originalLines {
		reversed = append(reversed, ledgerdomain.JournalLine{
			AccountID:    line.AccountID,
			DebitAmount:  line.CreditAmount,
			CreditAmount: line.DebitAmount,
			Quantity:     line.Quantity,
			UnitCost:     line.UnitCost,
			Memo:         memo,
			CostCenterID: line.CostCenterID,
			ProjectID:    line.ProjectID,
			DepartmentID: line.DepartmentID,
		})
	}

	group := &ledgerdomain.EntryGroup{
		SourceType: ledgerdomain.SourceTypeReversal,
		SourceID:   entryGroupID,
		EntryDate:  s.clock.Now(),
		Memo:       memo,
		CreatedBy:  requestedBy,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.ledgerRepo.AppendEntryGroup(ctx, tx, group, reversed)
	})
	if err != nil {
		if errors.Is(err, ledgerdomain.ErrDuplicateEntryGroup) {
			return nil, postingdomain.ErrAlreadyReversed
		}
		return nil, err
	}

	var total int64
	for _, line := range reversed {
		total += line.DebitAmount
	}
	s.log.Info("entry group reversed",
		zap.String("original_entry_group_id", entryGroupID.String()),
		zap.String("reversal_entry_group_id", group.ID.String()),
	)
	return result(group, reversed, total, nil), nil
}

func (s *Service) recordPosting(kind, status string, lines int, started time.Time) {
	s.metrics.RecordPosting(kind, status, lines, time.Since(started))
}

func result(group *ledgerdomain.EntryGroup, lines []ledgerdomain.JournalLine, total int64, warnings []string) *postingdomain.PostResult {
	lineIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.ID.String())
	}
	return &postingdomain.PostResult{
		Success:        true,
		EntryGroupID:   group.ID.String(),
		EntriesCreated: len(lines),
		JournalLineIDs: lineIDs,
		TotalAmount:    total,
		Warnings:       warnings,
	}
}
