// controllers/loan_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lablend/app"
	"lablend/db"
	"lablend/engine"
	"lablend/models"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

type createLoanReq struct {
	ItemID       string    `json:"itemId" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,min=1"`
	BorrowerName string    `json:"borrowerName" binding:"required"`
	BorrowerRef  string    `json:"borrowerRef,omitempty"`
	DueOn        time.Time `json:"dueOn" binding:"required"`
	UnitCode     *string   `json:"specificUnitCode,omitempty"`
	Note         string    `json:"note,omitempty"`
}

func (lc *LoanController) CreateLoan(c *gin.Context) {
	var in createLoanReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	rec, err := lc.Loans.Create(c.Request.Context(), engine.CreateLoanInput{
		ItemID:       in.ItemID,
		Quantity:     in.Quantity,
		BorrowerName: in.BorrowerName,
		BorrowerRef:  in.BorrowerRef,
		DueOn:        in.DueOn,
		UnitCode:     in.UnitCode,
		Note:         in.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (lc *LoanController) CompleteLoan(c *gin.Context) {
	loanID := c.Param("id")
	var in struct {
		Disposition *models.Disposition `json:"disposition"` // omitted = all good
	}
	if err := bindOptionalJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	res, err := lc.Loans.Complete(c.Request.Context(), loanID, in.Disposition)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Applied {
		if err := lc.Coord.ResyncRequestStatus(c.Request.Context(), loanID); err != nil {
			fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, app.H{"loan": res.Record, "applied": res.Applied})
}

func (lc *LoanController) BulkComplete(c *gin.Context) {
	var in struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	outcomes := lc.Coord.BulkComplete(c.Request.Context(), in.IDs)
	c.JSON(http.StatusOK, app.H{"outcomes": outcomes})
}

func (lc *LoanController) DeleteLoan(c *gin.Context) {
	if err := lc.Coord.DeleteLoan(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (lc *LoanController) BulkDelete(c *gin.Context) {
	var in struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	outcomes := lc.Coord.BulkDeleteLoans(c.Request.Context(), in.IDs)
	c.JSON(http.StatusOK, app.H{"outcomes": outcomes})
}

func (lc *LoanController) ListLoans(c *gin.Context) {
	q := db.LoansQuery{
		ItemID:   c.Query("itemId"),
		Borrower: c.Query("borrower"),
		Status:   c.Query("status"), // "", "active", "borrowed", "overdue", "returned"
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	ls, total, err := lc.Repo.ListLoans(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ls, "total": total})
}

type SweepController struct{ *Srv }

func NewSweepController(s *Srv) *SweepController { return &SweepController{Srv: s} }

// on-demand pass, same engine call the scheduler makes
func (sc *SweepController) RunSweep(c *gin.Context) {
	report, err := sc.Sweep.Run(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
