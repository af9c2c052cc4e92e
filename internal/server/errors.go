package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	landedcostdomain "github.com/smallbiznis/kontera/internal/landedcost/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	recdomain "github.com/smallbiznis/kontera/internal/reconciliation/domain"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
)

// respondError maps domain errors to HTTP statuses. Idempotency guards are
// conflicts, business-rule violations are unprocessable, configuration and
// invariant failures are 500s that should page someone.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, txdomain.ErrNotFound),
		errors.Is(err, supplierdomain.ErrSupplierNotFound),
		errors.Is(err, ledgerdomain.ErrEntryGroupNotFound),
		errors.Is(err, postingdomain.ErrRelatedNotFound):
		status = http.StatusNotFound
	case errors.Is(err, postingdomain.ErrAlreadyPosted),
		errors.Is(err, postingdomain.ErrAlreadyReversed),
		errors.Is(err, landedcostdomain.ErrAlreadyAllocated),
		errors.Is(err, supplierdomain.ErrSnapshotExists):
		status = http.StatusConflict
	case errors.Is(err, postingdomain.ErrOverpayment),
		errors.Is(err, postingdomain.ErrMissingDimension),
		errors.Is(err, postingdomain.ErrUnsupportedKind),
		errors.Is(err, postingdomain.ErrNotPostable),
		errors.Is(err, txdomain.ErrKindMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, recdomain.ErrInvalidPeriod):
		status = http.StatusBadRequest
	case errors.Is(err, accountsdomain.ErrNoAccountForRole),
		errors.Is(err, ledgerdomain.ErrUnbalancedEntry):
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
