package ginserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stayhub/internal/app/calendarapp"
	"stayhub/internal/app/catalog"
	"stayhub/internal/app/events"
	"stayhub/internal/app/inventory"
	"stayhub/internal/app/reservation"
	"stayhub/internal/domain/listing"
	"stayhub/internal/infra/config"
	"stayhub/internal/infra/obs"
	"stayhub/internal/infra/storage/memory"
)

func buildTestServer(t *testing.T) (http.Handler, *memory.ListingRepository) {
	t.Helper()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	dispatcher := events.Dispatcher{Publisher: events.Noop{}}
	reservations := &reservation.Service{Listings: listings, Bookings: bookings, Events: dispatcher}
	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:   BookingHandler{Reservations: reservations, Idempotency: memory.NewIdempotencyStore()},
		Inventory: InventoryHandler{Inventory: &inventory.Service{Listings: listings}},
		Calendar:  CalendarHandler{Calendar: &calendarapp.Service{Listings: listings}},
		Listing:   ListingHandler{Catalog: &catalog.Service{Listings: listings}},
	})
	return server.Handler, listings
}

func seedListing(t *testing.T, listings *memory.ListingRepository, id string) {
	t.Helper()
	l := &listing.Listing{
		ID:        listing.ListingID(id),
		Owner:     "owner-1",
		Title:     "Test listing",
		Inventory: listing.Inventory{TotalUnits: 3, AvailableUnits: 3, MinBookingDays: 1, MaxBookingDays: 30},
	}
	if err := listings.Save(t.Context(), l); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func doJSON(handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func asCustomer(id string) map[string]string {
	return map[string]string{"X-User-ID": id, "X-User-Role": "customer"}
}

func TestCreateBookingRequiresIdentity(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")

	resp := doJSON(handler, http.MethodPost, "/api/v1/bookings", `{"listing_id":"l1","start_date":"2030-07-01T00:00:00Z","end_date":"2030-07-03T00:00:00Z"}`, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers, got %d", resp.Code)
	}
}

func TestCreateBookingAndAvailability(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")

	resp := doJSON(handler, http.MethodPost, "/api/v1/bookings", `{"listing_id":"l1","start_date":"2030-07-01T00:00:00Z","end_date":"2030-07-03T00:00:00Z","units":2}`, asCustomer("u1"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Booking struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"booking"`
		RemainingUnits int `json:"remaining_units"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Booking.Status != "pending" || created.RemainingUnits != 1 {
		t.Fatalf("unexpected response: %+v", created)
	}

	resp = doJSON(handler, http.MethodGet, "/api/v1/listings/l1/availability?start_date=2030-07-01T00:00:00Z&end_date=2030-07-03T00:00:00Z&units=2", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var avail struct {
		Available      bool `json:"available"`
		AvailableUnits int  `json:"available_units"`
		TotalUnits     int  `json:"total_units"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &avail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if avail.Available || avail.AvailableUnits != 1 || avail.TotalUnits != 3 {
		t.Fatalf("unexpected availability: %+v", avail)
	}

	// Cancel restores capacity.
	resp = doJSON(handler, http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/cancel", "", asCustomer("u1"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on cancel, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(handler, http.MethodGet, "/api/v1/listings/l1/availability?start_date=2030-07-01T00:00:00Z&end_date=2030-07-03T00:00:00Z&units=3", "", nil)
	if err := json.Unmarshal(resp.Body.Bytes(), &avail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !avail.Available || avail.AvailableUnits != 3 {
		t.Fatalf("expected full availability after cancel: %+v", avail)
	}
}

func TestCreateBookingIdempotencyReplay(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")

	headers := asCustomer("u1")
	headers["Idempotency-Key"] = "key-1"
	body := `{"listing_id":"l1","start_date":"2030-07-01T00:00:00Z","end_date":"2030-07-03T00:00:00Z"}`

	first := doJSON(handler, http.MethodPost, "/api/v1/bookings", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	second := doJSON(handler, http.MethodPost, "/api/v1/bookings", body, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 replay, got %d: %s", second.Code, second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("idempotent replay must return the original payload")
	}
}

func TestIdempotencyReplayKeepsErrorClass(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")

	headers := asCustomer("u1")
	headers["Idempotency-Key"] = "key-short"
	// Same-day range fails the duration minimum, a 400-class error.
	body := `{"listing_id":"l1","start_date":"2030-07-01T00:00:00Z","end_date":"2030-07-01T00:00:00Z"}`

	first := doJSON(handler, http.MethodPost, "/api/v1/bookings", body, headers)
	if first.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", first.Code, first.Body.String())
	}
	second := doJSON(handler, http.MethodPost, "/api/v1/bookings", body, headers)
	if second.Code != http.StatusBadRequest {
		t.Fatalf("replayed failure must keep its status class, got %d: %s", second.Code, second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("replayed failure must return the original error payload")
	}
}

func TestBulkInventoryIsAdminOnly(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")

	body := `{"items":[{"listing_id":"l1","min_booking_days":2}]}`
	resp := doJSON(handler, http.MethodPost, "/api/v1/admin/inventory/bulk", body, asCustomer("u1"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", resp.Code)
	}
	resp = doJSON(handler, http.MethodPost, "/api/v1/admin/inventory/bulk", body, map[string]string{"X-User-ID": "root", "X-User-Role": "admin"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCalendarBlockAndCheck(t *testing.T) {
	handler, listings := buildTestServer(t)
	seedListing(t, listings, "l1")
	ownerHeaders := map[string]string{"X-User-ID": "owner-1", "X-User-Role": "provider"}

	resp := doJSON(handler, http.MethodPost, "/api/v1/listings/l1/calendar/block", `{"dates":["2030-07-02T00:00:00Z"]}`, ownerHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(handler, http.MethodGet, "/api/v1/listings/l1/calendar/check?check_in=2030-07-01T00:00:00Z&check_out=2030-07-04T00:00:00Z", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var check struct {
		Available        bool        `json:"is_available"`
		ConflictingDates []time.Time `json:"conflicting_dates"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if check.Available || len(check.ConflictingDates) != 1 {
		t.Fatalf("unexpected check result: %+v", check)
	}
}
