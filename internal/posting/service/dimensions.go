package service

import (
	"fmt"

	"github.com/smallbiznis/kontera/internal/config"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
)

// DimensionAssigner attaches cost-attribution tags to journal lines.
// Dimensions are optional unless the deployment marks one mandatory, in
// which case omission is surfaced to the caller, never defaulted.
type DimensionAssigner struct {
	required map[ledgerdomain.DimensionType]bool
}

func NewDimensionAssigner(cfg config.Config) *DimensionAssigner {
	required := make(map[ledgerdomain.DimensionType]bool, len(cfg.RequiredDimensions))
	for _, name := range cfg.RequiredDimensions {
		required[ledgerdomain.DimensionType(name)] = true
	}
	return &DimensionAssigner{required: required}
}

// Assign copies the transaction's dimension tags onto every line that does
// not already carry its own (transfer lines keep their branch tags), then
// enforces any mandatory dimensions.
func (a *DimensionAssigner) Assign(lines []ledgerdomain.JournalLine, dims txdomain.Dimensions) error {
	for i := range lines {
		line := &lines[i]
		if line.CostCenterID == nil {
			line.CostCenterID = dims.CostCenterID
		}
		if line.ProjectID == nil {
			line.ProjectID = dims.ProjectID
		}
		if line.DepartmentID == nil {
			line.DepartmentID = dims.DepartmentID
		}
	}

	for i := range lines {
		if err := a.check(&lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *DimensionAssigner) check(line *ledgerdomain.JournalLine) error {
	if a.required[ledgerdomain.DimensionCostCenter] && line.CostCenterID == nil {
		return fmt.Errorf("%s: %w", ledgerdomain.DimensionCostCenter, postingdomain.ErrMissingDimension)
	}
	if a.required[ledgerdomain.DimensionProject] && line.ProjectID == nil {
		return fmt.Errorf("%s: %w", ledgerdomain.DimensionProject, postingdomain.ErrMissingDimension)
	}
	if a.required[ledgerdomain.DimensionDepartment] && line.DepartmentID == nil {
		return fmt.Errorf("%s: %w", ledgerdomain.DimensionDepartment, postingdomain.ErrMissingDimension)
	}
	return nil
}
