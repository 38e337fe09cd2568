// controllers/srv.go
package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lablend/app"
	"lablend/db"
	"lablend/engine"
	"lablend/sequence"
)

type Srv struct {
	Repo     *db.Repo
	Ledger   *engine.Ledger
	Loans    *engine.Loans
	Coord    *engine.Coordinator
	Requests *engine.Requests
	Sweep    *engine.Sweep
	Resolver *engine.Resolver
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	ledger := engine.NewLedger(repo)
	loans := engine.NewLoans(repo, ledger, a.Clock)
	coord := engine.NewCoordinator(repo, ledger, loans)
	requests := engine.NewRequests(repo, loans, coord, a.Clock, sequence.NewRefCounter(a.RDB))
	return &Srv{
		Repo:     repo,
		Ledger:   ledger,
		Loans:    loans,
		Coord:    coord,
		Requests: requests,
		Sweep:    engine.NewSweep(repo, loans, a.Clock),
		Resolver: engine.NewResolver(repo),
	}
}

// bindOptionalJSON decodes a body that may legitimately be absent. Presence
// is judged by the decoder, not ContentLength: a chunked request reports
// length -1 but still carries a body. Only a clean EOF counts as "no body".
func bindOptionalJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// aborts with the status the engine error deserves
func fail(c *gin.Context, err error) {
	switch {
	case engine.IsValidation(err):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInsufficientStock),
		errors.Is(err, engine.ErrUnitOnLoan),
		errors.Is(err, engine.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, engine.ErrPartiallyApplied):
		// surfaced distinctly so the caller can retry the missing half
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error(), "partiallyApplied": true})
	case errors.Is(err, engine.ErrUpstream):
		c.JSON(http.StatusServiceUnavailable, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
