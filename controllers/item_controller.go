// controllers/item_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lablend/app"
	"lablend/models"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

type itemView struct {
	models.InventoryItem
	Available int `json:"available"`
}

func viewOf(it models.InventoryItem) itemView {
	return itemView{InventoryItem: it, Available: it.AvailableQty()}
}

// catalog seeding; catalog management proper lives elsewhere
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in struct {
		ShortCode  string `json:"shortCode" binding:"required"`
		Name       string `json:"name" binding:"required"`
		TotalQty   int    `json:"totalQuantity" binding:"min=0"`
		BorrowCap  *int   `json:"borrowCap"`
		Consumable bool   `json:"consumable"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.BorrowCap != nil && (*in.BorrowCap < 0 || *in.BorrowCap > in.TotalQty) {
		c.JSON(http.StatusBadRequest, app.H{"error": "borrowCap must be between 0 and totalQuantity"})
		return
	}
	it := &models.InventoryItem{
		ID:         uuid.NewString(),
		ShortCode:  in.ShortCode,
		Name:       in.Name,
		TotalQty:   in.TotalQty,
		BorrowCap:  in.BorrowCap,
		Consumable: in.Consumable,
	}
	if err := ic.Repo.CreateItem(c.Request.Context(), it); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, viewOf(*it))
}

func (ic *ItemController) ListItems(c *gin.Context) {
	items, err := ic.Repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, viewOf(it))
	}
	c.JSON(http.StatusOK, app.H{"items": views})
}

func (ic *ItemController) SetBorrowCap(c *gin.Context) {
	itemID := c.Param("id")
	var in struct {
		BorrowCap *int `json:"borrowCap"` // null clears the cap
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err := ic.Repo.SetBorrowCap(c.Request.Context(), itemID, in.BorrowCap); err != nil {
		fail(c, err)
		return
	}
	it, err := ic.Repo.ItemByID(c.Request.Context(), itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*it))
}

// GET /api/scan?code=CHEM-BEAKER-007
func (ic *ItemController) ResolveScan(c *gin.Context) {
	code := c.Query("code")
	res, err := ic.Resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
