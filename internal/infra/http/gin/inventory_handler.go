package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/inventory"
	"stayhub/internal/domain/listing"
)

type InventoryHandler struct {
	Inventory *inventory.Service
}

type inventoryView struct {
	TotalUnits     int `json:"total_units"`
	AvailableUnits int `json:"available_units"`
	MinBookingDays int `json:"min_booking_days"`
	MaxBookingDays int `json:"max_booking_days"`
}

func newInventoryView(inv listing.Inventory) inventoryView {
	return inventoryView{
		TotalUnits:     inv.TotalUnits,
		AvailableUnits: inv.AvailableUnits,
		MinBookingDays: inv.MinBookingDays,
		MaxBookingDays: inv.MaxBookingDays,
	}
}

type inventoryPatchRequest struct {
	TotalUnits     *int `json:"total_units"`
	AvailableUnits *int `json:"available_units"`
	MinBookingDays *int `json:"min_booking_days"`
	MaxBookingDays *int `json:"max_booking_days"`
}

func (r inventoryPatchRequest) patch() listing.InventoryPatch {
	return listing.InventoryPatch{
		TotalUnits:     r.TotalUnits,
		AvailableUnits: r.AvailableUnits,
		MinBookingDays: r.MinBookingDays,
		MaxBookingDays: r.MaxBookingDays,
	}
}

func (h InventoryHandler) Update(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req inventoryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Inventory.Update(c.Request.Context(), p, listing.ListingID(c.Param("id")), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": l.ID, "inventory": newInventoryView(l.Inventory)})
}

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h InventoryHandler) Adjust(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Inventory.Adjust(c.Request.Context(), p, listing.ListingID(c.Param("id")), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": l.ID, "inventory": newInventoryView(l.Inventory)})
}

type bulkUpdateRequest struct {
	Items []struct {
		ListingID string `json:"listing_id" binding:"required"`
		inventoryPatchRequest
	} `json:"items" binding:"required"`
}

func (h InventoryHandler) BulkUpdate(c *gin.Context) {
	p, ok := requireAdmin(c)
	if !ok {
		return
	}
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items := make([]inventory.BulkItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, inventory.BulkItem{
			ListingID: listing.ListingID(item.ListingID),
			Patch:     item.patch(),
		})
	}
	result, err := h.Inventory.BulkUpdate(c.Request.Context(), p, items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
