package routes

import (
	"github.com/gin-gonic/gin"

	"lablend/app"
	"lablend/controllers"
)

func RegisterRoutes(r *gin.Engine, a *app.App) *controllers.Srv {
	s := controllers.GetSrv(a)
	itemCtl := controllers.NewItemController(s)
	loanCtl := controllers.NewLoanController(s)
	reqCtl := controllers.NewRequestController(s)
	sweepCtl := controllers.NewSweepController(s)

	// ------------------------------
	// Catalog + scan
	// ------------------------------
	items := r.Group("/api/items")
	{
		items.GET("", itemCtl.ListItems)
		items.POST("", itemCtl.CreateItem)
		items.PATCH("/:id/cap", itemCtl.SetBorrowCap)
	}
	r.GET("/api/scan", itemCtl.ResolveScan)

	// ------------------------------
	// Loans (single + bulk)
	// ------------------------------
	loans := r.Group("/api/loans")
	{
		loans.GET("", loanCtl.ListLoans)
		loans.POST("", loanCtl.CreateLoan)
		loans.POST("/:id/return", loanCtl.CompleteLoan)
		loans.POST("/return", loanCtl.BulkComplete)
		loans.DELETE("/:id", loanCtl.DeleteLoan)
		loans.POST("/delete", loanCtl.BulkDelete)
	}

	// ------------------------------
	// Borrow requests
	// ------------------------------
	reqs := r.Group("/api/requests")
	{
		reqs.GET("", reqCtl.ListRequests)
		reqs.POST("", reqCtl.CreateRequest)
		reqs.GET("/:id", reqCtl.GetRequest)
		reqs.POST("/:id/approve", reqCtl.ApproveRequest)
		reqs.POST("/:id/reject", reqCtl.RejectRequest)
		reqs.DELETE("/:id", reqCtl.DeleteRequest)
	}

	// ------------------------------
	// Admin
	// ------------------------------
	r.POST("/admin/sweep", sweepCtl.RunSweep)

	return s
}
