package domain

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid_period")

// VarianceRow compares subledger and general-ledger totals for one value of
// one dimension axis within the period. Amounts are minor units. An empty
// DimensionID is the bucket for untagged activity.
type VarianceRow struct {
	DimensionType  string `json:"dimension_type"`
	DimensionID    string `json:"dimension_id,omitempty"`
	SubledgerTotal int64  `json:"subledger_total"`
	GLTotal        int64  `json:"gl_total"`
	Variance       int64  `json:"variance"`
	Reconciled     bool   `json:"reconciled"`
}

// VarianceReport is the full period comparison. Variances are data, never
// errors; a drift shows up as an unreconciled row, not a failure.
type VarianceReport struct {
	Period         string        `json:"period"`
	AsOf           time.Time     `json:"as_of"`
	Rows           []VarianceRow `json:"rows"`
	SubledgerTotal int64         `json:"subledger_total"`
	GLTotal        int64         `json:"gl_total"`
	TotalVariance  int64         `json:"total_variance"`
	Reconciled     bool          `json:"reconciled"`
}

// Engine is the read-only subledger vs general-ledger comparison.
type Engine interface {
	Reconcile(ctx context.Context, period string) (*VarianceReport, error)
}
