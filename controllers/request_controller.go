// controllers/request_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lablend/app"
	"lablend/engine"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

type requestLineReq struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createRequestReq struct {
	BorrowerName    string           `json:"borrowerName" binding:"required"`
	BorrowerRef     string           `json:"borrowerRef,omitempty"`
	DesiredReturnOn time.Time        `json:"desiredReturnOn" binding:"required"`
	Lines           []requestLineReq `json:"lineItems" binding:"required,min=1,dive"`
}

func (rc *RequestController) CreateRequest(c *gin.Context) {
	var in createRequestReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	lines := make([]engine.RequestLineInput, 0, len(in.Lines))
	for _, ln := range in.Lines {
		lines = append(lines, engine.RequestLineInput{ItemID: ln.ItemID, Quantity: ln.Quantity})
	}
	req, err := rc.Requests.Create(c.Request.Context(), engine.CreateRequestInput{
		BorrowerName:    in.BorrowerName,
		BorrowerRef:     in.BorrowerRef,
		DesiredReturnOn: in.DesiredReturnOn,
		Lines:           lines,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (rc *RequestController) GetRequest(c *gin.Context) {
	req, err := rc.Repo.RequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (rc *RequestController) ListRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	reqs, total, err := rc.Repo.ListRequests(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": reqs, "total": total})
}

func (rc *RequestController) ApproveRequest(c *gin.Context) {
	req, err := rc.Requests.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		var halted *engine.ApprovalHaltedError
		if errors.As(err, &halted) {
			// converted lines keep their loans; the caller retries or
			// cancels, we do not roll back issued loans
			c.JSON(http.StatusConflict, app.H{
				"error":      err.Error(),
				"request":    req,
				"failedItem": halted.ItemID,
				"converted":  halted.Converted,
			})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (rc *RequestController) RejectRequest(c *gin.Context) {
	var in struct {
		Reason string `json:"reason,omitempty"`
	}
	if err := bindOptionalJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	req, err := rc.Requests.Reject(c.Request.Context(), c.Param("id"), in.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (rc *RequestController) DeleteRequest(c *gin.Context) {
	outcomes, err := rc.Requests.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if engine.IsNotFound(err) {
			c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
			return
		}
		// some loans survived: request kept, nothing orphaned
		c.JSON(http.StatusConflict, app.H{"error": err.Error(), "outcomes": outcomes})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "outcomes": outcomes})
}
