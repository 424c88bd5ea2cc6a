package ginserver

import (
	"encoding/json"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/idempotency"
	"stayhub/internal/app/reservation"
	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
)

type BookingHandler struct {
	Reservations *reservation.Service
	Idempotency  idempotency.Store
}

type bookingView struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ListingID string     `json:"listing_id"`
	Date      time.Time  `json:"date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Units     int        `json:"units"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newBookingView(b *booking.Booking) bookingView {
	view := bookingView{
		ID:        string(b.ID),
		UserID:    b.UserID,
		ListingID: string(b.ListingID),
		Date:      b.Date,
		Units:     b.Units,
		Status:    string(b.Status),
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if !b.EndDate.IsZero() {
		end := b.EndDate
		view.EndDate = &end
	}
	return view
}

type availabilityResponse struct {
	Available           bool          `json:"available"`
	AvailableUnits      int           `json:"available_units"`
	TotalUnits          int           `json:"total_units"`
	ConflictingBookings []bookingView `json:"conflicting_bookings"`
}

type checkAvailabilityRequest struct {
	StartDate time.Time `form:"start_date" binding:"required"`
	EndDate   time.Time `form:"end_date" binding:"required"`
	Units     int       `form:"units"`
}

func (h BookingHandler) CheckAvailability(c *gin.Context) {
	var req checkAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	avail, err := h.Reservations.CheckAvailability(c.Request.Context(), listing.ListingID(c.Param("id")), req.StartDate, req.EndDate, req.Units)
	if err != nil {
		respondError(c, err)
		return
	}
	conflicts := make([]bookingView, 0, len(avail.ConflictingBookings))
	for _, b := range avail.ConflictingBookings {
		conflicts = append(conflicts, newBookingView(b))
	}
	c.JSON(http.StatusOK, availabilityResponse{
		Available:           avail.Available,
		AvailableUnits:      avail.AvailableUnits,
		TotalUnits:          avail.TotalUnits,
		ConflictingBookings: conflicts,
	})
}

type createBookingRequest struct {
	ListingID string    `json:"listing_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	Units     int       `json:"units"`
	Notes     string    `json:"notes"`
}

type createBookingResponse struct {
	Booking        bookingView `json:"booking"`
	RemainingUnits int         `json:"remaining_units"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.GetHeader("Idempotency-Key")
	if key != "" && h.Idempotency != nil {
		rec, found, err := h.Idempotency.Get(c.Request.Context(), key)
		if err == nil && found {
			status := rec.Status
			if rec.Error != "" {
				if status == 0 {
					status = http.StatusConflict
				}
				c.JSON(status, gin.H{"error": rec.Error})
				return
			}
			c.Data(http.StatusCreated, "application/json", rec.Payload)
			return
		}
	}

	result, err := h.Reservations.Create(c.Request.Context(), p, reservation.CreateParams{
		ListingID: listing.ListingID(req.ListingID),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Units:     req.Units,
		Notes:     req.Notes,
	})
	if err != nil {
		h.remember(c, key, nil, err)
		respondError(c, err)
		return
	}
	resp := createBookingResponse{Booking: newBookingView(result.Booking), RemainingUnits: result.RemainingUnits}
	payload, marshalErr := json.Marshal(resp)
	if marshalErr == nil {
		h.remember(c, key, payload, nil)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h BookingHandler) remember(c *gin.Context, key string, payload []byte, cause error) {
	if key == "" || h.Idempotency == nil {
		return
	}
	rec := idempotency.Record{Key: key, Status: http.StatusCreated, Payload: payload, OccurredAt: time.Now().UTC()}
	if cause != nil {
		rec.Error = cause.Error()
		rec.Status = statusForError(cause)
	}
	_ = h.Idempotency.Save(c.Request.Context(), rec)
}

type createLegacyBookingRequest struct {
	ListingID string    `json:"listing_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Notes     string    `json:"notes"`
}

func (h BookingHandler) CreateLegacy(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createLegacyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.Reservations.CreateLegacy(c.Request.Context(), p, reservation.CreateLegacyParams{
		ListingID: listing.ListingID(req.ListingID),
		Date:      req.Date,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingView(b))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	b, err := h.Reservations.Cancel(c.Request.Context(), p, booking.BookingID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingView(b))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, valid := booking.ParseStatus(req.Status)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
		return
	}
	b, err := h.Reservations.UpdateStatus(c.Request.Context(), p, booking.BookingID(c.Param("id")), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingView(b))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	items, err := h.Reservations.ListMine(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]bookingView, 0, len(items))
	for _, b := range items {
		views = append(views, newBookingView(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}

func (h BookingHandler) ListForListing(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	items, err := h.Reservations.ListForListing(c.Request.Context(), p, listing.ListingID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]bookingView, 0, len(items))
	for _, b := range items {
		views = append(views, newBookingView(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}
