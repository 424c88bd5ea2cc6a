package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/calendarapp"
	"stayhub/internal/domain/listing"
)

type CalendarHandler struct {
	Calendar *calendarapp.Service
}

type blockDatesRequest struct {
	Dates []time.Time `json:"dates" binding:"required,min=1"`
}

func (h CalendarHandler) Block(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	set, err := h.Calendar.BlockDates(c.Request.Context(), p, listing.ListingID(c.Param("id")), req.Dates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked_dates": set})
}

func (h CalendarHandler) Unblock(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	set, err := h.Calendar.UnblockDates(c.Request.Context(), p, listing.ListingID(c.Param("id")), req.Dates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked_dates": set})
}

type calendarQuery struct {
	From  time.Time `form:"from"`
	To    time.Time `form:"to"`
	Month int       `form:"month"`
	Year  int       `form:"year"`
}

type calendarDayView struct {
	Date      time.Time `json:"date"`
	DayOfWeek string    `json:"day_of_week"`
	Available bool      `json:"is_available"`
}

func (h CalendarHandler) View(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := h.Calendar.Calendar(c.Request.Context(), listing.ListingID(c.Param("id")), calendarapp.Window{
		From:  q.From,
		To:    q.To,
		Month: time.Month(q.Month),
		Year:  q.Year,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]calendarDayView, 0, len(days))
	for _, d := range days {
		views = append(views, calendarDayView{Date: d.Date, DayOfWeek: d.DayOfWeek.String(), Available: d.Available})
	}
	c.JSON(http.StatusOK, gin.H{"days": views})
}

type rangeCheckQuery struct {
	CheckIn  time.Time `form:"check_in" binding:"required"`
	CheckOut time.Time `form:"check_out" binding:"required"`
}

func (h CalendarHandler) CheckRange(c *gin.Context) {
	var q rangeCheckQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Calendar.CheckRange(c.Request.Context(), listing.ListingID(c.Param("id")), q.CheckIn, q.CheckOut)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
