package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	"github.com/smallbiznis/kontera/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type repository struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewRepository(gdb *gorm.DB, log *zap.Logger, genID *snowflake.Node) ledgerdomain.Repository {
	return &repository{db: gdb, log: log.Named("ledger.repository"), genID: genID}
}

func (r *repository) AppendEntryGroup(ctx context.Context, tx *gorm.DB, group *ledgerdomain.EntryGroup, lines []ledgerdomain.JournalLine) error {
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return err
	}

	if group.ID == 0 {
		group.ID = r.genID.Generate()
	}
	now := time.Now().UTC()
	group.CreatedAt = now

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO entry_groups (
			id, source_type, source_id, entry_date, memo, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		group.ID,
		string(group.SourceType),
		group.SourceID,
		group.EntryDate.UTC(),
		group.Memo,
		group.CreatedBy,
		now,
	).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return ledgerdomain.ErrDuplicateEntryGroup
		}
		return fmt.Errorf("insert entry group: %w", err)
	}

	for i := range lines {
		line := &lines[i]
		if line.ID == 0 {
			line.ID = r.genID.Generate()
		}
		line.EntryGroupID = group.ID
		if line.EntryDate.IsZero() {
			line.EntryDate = group.EntryDate
		}
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO journal_lines (
				id, entry_group_id, account_id, debit_amount, credit_amount,
				entry_date, quantity, unit_cost, memo,
				cost_center_id, project_id, department_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.EntryGroupID,
			line.AccountID,
			line.DebitAmount,
			line.CreditAmount,
			line.EntryDate.UTC(),
			line.Quantity,
			line.UnitCost,
			line.Memo,
			line.CostCenterID,
			line.ProjectID,
			line.DepartmentID,
			now,
		).Error; err != nil {
			return fmt.Errorf("insert journal line: %w", err)
		}
	}

	r.log.Info("entry group appended",
		zap.String("entry_group_id", group.ID.String()),
		zap.String("source_type", string(group.SourceType)),
		zap.Int("lines", len(lines)),
	)
	return nil
}

func (r *repository) FindGroup(ctx context.Context, sourceType ledgerdomain.SourceType, sourceID snowflake.ID) (*ledgerdomain.EntryGroup, error) {
	var group ledgerdomain.EntryGroup
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledgerdomain.ErrEntryGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) FindGroupByID(ctx context.Context, id snowflake.ID) (*ledgerdomain.EntryGroup, error) {
	var group ledgerdomain.EntryGroup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledgerdomain.ErrEntryGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) LinesByGroup(ctx context.Context, groupID snowflake.ID) ([]ledgerdomain.JournalLine, error) {
	var lines []ledgerdomain.JournalLine
	if err := r.db.WithContext(ctx).
		Where("entry_group_id = ?", groupID).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) DebitTotalsByDimension(ctx context.Context, from, to time.Time, sources []ledgerdomain.SourceType, dim ledgerdomain.DimensionType) ([]ledgerdomain.DimensionDebitTotal, error) {
	column := dim.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}
	sourceStrings := make([]string, 0, len(sources))
	for _, s := range sources {
		sourceStrings = append(sourceStrings, string(s))
	}

	var totals []ledgerdomain.DimensionDebitTotal
	err := r.db.WithContext(ctx).Raw(fmt.Sprintf(
		`SELECT jl.%[1]s AS dimension_id, SUM(jl.debit_amount) AS total
		 FROM journal_lines jl
		 JOIN entry_groups eg ON eg.id = jl.entry_group_id
		 WHERE eg.source_type IN ? AND jl.entry_date >= ? AND jl.entry_date < ?
		 GROUP BY jl.%[1]s`, column),
		sourceStrings,
		from.UTC(),
		to.UTC(),
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
