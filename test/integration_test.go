package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

// TestHealthEndpoint verifies health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("Expected 'ok', got '%s'", string(body))
	}
}

// TestBookingFlow exercises the whole lifecycle over HTTP: create a
// restaurant, add tables, search availability, book, confirm, complete.
func TestBookingFlow(t *testing.T) {
	server := NewTestServer(t)
	base := server.URL() + "/api"

	// Create restaurant
	resp, body := postJSON(t, base+"/restaurants", map[string]any{
		"name":      "Osteria del Porto",
		"address":   "4 Harbour Way",
		"openTime":  "10:00",
		"closeTime": "23:00",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	restaurantID, _ := body["id"].(string)
	if restaurantID == "" {
		t.Fatalf("expected restaurant id, got %v", body)
	}

	// Add a two-top and a four-top
	resp, _ = postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 2, "location": "indoor",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	resp, body = postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 4, "location": "terrace",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	if body["number"] != float64(2) {
		t.Errorf("expected table number 2, got %v", body["number"])
	}

	// Availability for a party of 3 the next day: only the four-top fits
	var avail struct {
		Tables []map[string]any `json:"tables"`
		Best   map[string]any   `json:"best"`
	}
	query := "?date=2026-06-11&start=19:00&end=21:00&partySize=3"
	resp = getJSON(t, base+"/restaurants/"+restaurantID+"/availability"+query, &avail)
	AssertStatusCode(t, resp, http.StatusOK)
	if len(avail.Tables) != 1 {
		t.Fatalf("expected 1 available table, got %d", len(avail.Tables))
	}
	if avail.Best == nil || avail.Best["seats"] != float64(4) {
		t.Errorf("expected best table with 4 seats, got %v", avail.Best)
	}

	// Book it
	resp, body = postJSON(t, base+"/restaurants/"+restaurantID+"/reservations", map[string]any{
		"date":         "2026-06-11",
		"startTime":    "19:00",
		"endTime":      "21:00",
		"partySize":    3,
		"customerName": "Dana Reyes",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	slotID, _ := body["id"].(string)
	if slotID == "" {
		t.Fatalf("expected slot id, got %v", body)
	}
	if body["status"] != "AVAILABLE" {
		t.Errorf("expected new slot AVAILABLE, got %v", body["status"])
	}

	// The four-top no longer shows for the same window
	resp = getJSON(t, base+"/restaurants/"+restaurantID+"/availability"+query, &avail)
	AssertStatusCode(t, resp, http.StatusOK)
	if len(avail.Tables) != 0 {
		t.Errorf("expected no tables after booking, got %d", len(avail.Tables))
	}

	// Confirm then complete
	resp, body = postJSON(t, fmt.Sprintf("%s/restaurants/%s/reservations/%s/confirm", base, restaurantID, slotID), map[string]any{})
	AssertStatusCode(t, resp, http.StatusOK)
	if body["status"] != "CONFIRMED" {
		t.Errorf("expected CONFIRMED, got %v", body["status"])
	}

	resp, body = postJSON(t, fmt.Sprintf("%s/restaurants/%s/reservations/%s/complete", base, restaurantID, slotID), map[string]any{})
	AssertStatusCode(t, resp, http.StatusOK)
	if body["status"] != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %v", body["status"])
	}

	// Cancelling a completed reservation is a state conflict
	resp, _ = postJSON(t, fmt.Sprintf("%s/restaurants/%s/reservations/%s/cancel", base, restaurantID, slotID), map[string]any{})
	AssertStatusCode(t, resp, http.StatusConflict)
}

// TestDoubleBookingRejected verifies an overlapping booking on the same
// table comes back as a conflict.
func TestDoubleBookingRejected(t *testing.T) {
	server := NewTestServer(t)
	base := server.URL() + "/api"

	_, body := postJSON(t, base+"/restaurants", map[string]any{
		"name":      "Cafe Lumen",
		"address":   "9 Elm St",
		"openTime":  "10:00",
		"closeTime": "22:00",
	})
	restaurantID := body["id"].(string)

	resp, table := postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 4, "location": "indoor",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	tableID := table["id"].(string)

	booking := map[string]any{
		"tableId":   tableID,
		"date":      "2026-06-12",
		"startTime": "18:00",
		"endTime":   "20:00",
		"partySize": 2,
	}
	resp, _ = postJSON(t, base+"/restaurants/"+restaurantID+"/reservations", booking)
	AssertStatusCode(t, resp, http.StatusCreated)

	booking["startTime"] = "19:00"
	booking["endTime"] = "21:00"
	resp, errBody := postJSON(t, base+"/restaurants/"+restaurantID+"/reservations", booking)
	AssertStatusCode(t, resp, http.StatusConflict)
	if errBody["kind"] != "overlap" {
		t.Errorf("expected overlap error kind, got %v", errBody)
	}
}

// TestHoldFlow places a hold, verifies contention, and books through it.
func TestHoldFlow(t *testing.T) {
	server := NewTestServer(t)
	base := server.URL() + "/api"

	_, body := postJSON(t, base+"/restaurants", map[string]any{
		"name":      "The Brass Fig",
		"address":   "77 Canal Rd",
		"openTime":  "11:00",
		"closeTime": "23:00",
	})
	restaurantID := body["id"].(string)

	_, table := postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 6, "location": "private_room",
	})
	tableID := table["id"].(string)

	holdReq := map[string]any{
		"tableId":   tableID,
		"date":      "2026-06-13",
		"startTime": "19:00",
		"endTime":   "21:00",
		"partySize": 5,
	}
	resp, hold := postJSON(t, base+"/restaurants/"+restaurantID+"/holds", holdReq)
	AssertStatusCode(t, resp, http.StatusCreated)
	holdKey, _ := hold["key"].(string)
	if holdKey == "" {
		t.Fatalf("expected hold key, got %v", hold)
	}

	// Same window is contended
	resp, _ = postJSON(t, base+"/restaurants/"+restaurantID+"/holds", holdReq)
	AssertStatusCode(t, resp, http.StatusConflict)

	// Redeem the hold into a booking
	resp, slot := postJSON(t, base+"/restaurants/"+restaurantID+"/reservations", map[string]any{
		"tableId":   tableID,
		"date":      "2026-06-13",
		"startTime": "19:00",
		"endTime":   "21:00",
		"partySize": 5,
		"holdKey":   holdKey,
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	if slot["tableId"] != tableID {
		t.Errorf("expected booking on held table, got %v", slot["tableId"])
	}

	// Hold was consumed
	var holds []map[string]any
	resp = getJSON(t, base+"/restaurants/"+restaurantID+"/holds", &holds)
	AssertStatusCode(t, resp, http.StatusOK)
	if len(holds) != 0 {
		t.Errorf("expected hold consumed after booking, got %d", len(holds))
	}
}

// TestRatesAndAccommodate verifies the derived metrics endpoints.
func TestRatesAndAccommodate(t *testing.T) {
	server := NewTestServer(t)
	base := server.URL() + "/api"

	_, body := postJSON(t, base+"/restaurants", map[string]any{
		"name":      "Juniper & Sage",
		"address":   "15 Garden Ln",
		"openTime":  "10:00",
		"closeTime": "22:00",
	})
	restaurantID := body["id"].(string)

	_, t1 := postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 2, "location": "indoor",
	})
	postJSON(t, base+"/restaurants/"+restaurantID+"/tables", map[string]any{
		"seats": 8, "location": "terrace",
	})

	// Knock one table out of service
	req, _ := http.NewRequest("PUT",
		base+"/restaurants/"+restaurantID+"/tables/"+t1["id"].(string)+"/availability",
		bytes.NewReader([]byte(`{"available":false}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT availability failed: %v", err)
	}
	resp.Body.Close()

	var rates map[string]float64
	r := getJSON(t, base+"/restaurants/"+restaurantID+"/rates?date=2026-06-11&at=19:00", &rates)
	AssertStatusCode(t, r, http.StatusOK)
	if rates["availability_rate"] != 0.5 {
		t.Errorf("expected availability rate 0.5, got %v", rates["availability_rate"])
	}
	if rates["utilization_rate"] != 0 {
		t.Errorf("expected utilization rate 0, got %v", rates["utilization_rate"])
	}

	var accommodate map[string]bool
	r = getJSON(t, base+"/restaurants/"+restaurantID+"/accommodate?date=2026-06-11&partySize=7", &accommodate)
	AssertStatusCode(t, r, http.StatusOK)
	if !accommodate["canAccommodate"] {
		t.Error("expected the eight-top to accommodate a party of 7")
	}

	r = getJSON(t, base+"/restaurants/"+restaurantID+"/accommodate?date=2026-06-11&partySize=9", &accommodate)
	AssertStatusCode(t, r, http.StatusOK)
	if accommodate["canAccommodate"] {
		t.Error("party of 9 exceeds every table")
	}
}

// TestAuthFlow registers and logs in a staff account over HTTP.
func TestAuthFlow(t *testing.T) {
	server := NewTestServer(t)
	base := server.URL() + "/api"

	resp, body := postJSON(t, base+"/auth/register", map[string]any{
		"email":    "host@example.com",
		"username": "host",
		"password": "Password123",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	if body["token"] == "" {
		t.Error("expected a token on registration")
	}

	resp, body = postJSON(t, base+"/auth/login", map[string]any{
		"email":    "host@example.com",
		"password": "Password123",
	})
	AssertStatusCode(t, resp, http.StatusOK)
	if body["token"] == "" {
		t.Error("expected a token on login")
	}

	resp, _ = postJSON(t, base+"/auth/login", map[string]any{
		"email":    "host@example.com",
		"password": "wrong",
	})
	AssertStatusCode(t, resp, http.StatusUnauthorized)
}
