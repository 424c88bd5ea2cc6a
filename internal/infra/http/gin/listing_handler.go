package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/catalog"
	"stayhub/internal/domain/listing"
)

type ListingHandler struct {
	Catalog *catalog.Service
}

type listingView struct {
	ID           string        `json:"id"`
	Owner        string        `json:"owner"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	PropertyType string        `json:"property_type,omitempty"`
	Inventory    inventoryView `json:"inventory"`
	BlockedDates []time.Time   `json:"blocked_dates"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func newListingView(l *listing.Listing) listingView {
	blocked := l.BlockedDates
	if blocked == nil {
		blocked = []time.Time{}
	}
	return listingView{
		ID:           string(l.ID),
		Owner:        string(l.Owner),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Inventory:    newInventoryView(l.Inventory),
		BlockedDates: blocked,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

type createListingRequest struct {
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	PropertyType string                 `json:"property_type"`
	Inventory    *inventoryPatchRequest `json:"inventory"`
}

func (h ListingHandler) Create(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var inv *listing.Inventory
	if req.Inventory != nil {
		merged, err := req.Inventory.patch().Apply(listing.DefaultInventory())
		if err != nil {
			respondError(c, err)
			return
		}
		inv = &merged
	}
	l, err := h.Catalog.Create(c.Request.Context(), p, catalog.CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Inventory:    inv,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newListingView(l))
}

func (h ListingHandler) Get(c *gin.Context) {
	l, err := h.Catalog.Get(c.Request.Context(), listing.ListingID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListingView(l))
}
