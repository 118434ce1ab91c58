//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestCreateOrder_MissingFields(t *testing.T) {
	resp := doPost(t, "/orders", createOrderRequest{PlanID: "1"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if e := decodeJSON[errorResponse](t, resp); !strings.Contains(e.Error, "phone") {
		t.Fatalf("expected error naming the missing field, got %q", e.Error)
	}
}

func TestCreateOrder_UnknownPlan(t *testing.T) {
	resp := doPost(t, "/orders", createOrderRequest{
		PlanID: "999", Phone: "+2348000000001", Email: "buyer@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_BadBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/orders", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// The compose environment points the payment gateway at an unreachable
// address, so a valid create request persists the pending order and then
// surfaces the gateway failure as a 500 with a diagnostic message.
func TestCreateOrder_GatewayUnreachable(t *testing.T) {
	resp := doPost(t, "/orders", createOrderRequest{
		PlanID: "1", Phone: "+2348000000001", Email: "buyer@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if e := decodeJSON[errorResponse](t, resp); !strings.Contains(e.Error, "payment gateway") {
		t.Fatalf("expected gateway diagnostic, got %q", e.Error)
	}
}

func TestVerifyOrder_MissingFields(t *testing.T) {
	resp := doPost(t, "/orders/verify", verifyOrderRequest{OrderID: "some-id"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVerifyOrder_UnknownOrder(t *testing.T) {
	resp := doPost(t, "/orders/verify", verifyOrderRequest{
		OrderID:   "00000000-0000-0000-0000-000000000000",
		Reference: "rromisim_1_deadbeef",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestESIMQR_UnknownOrder(t *testing.T) {
	resp := doGet(t, "/orders/00000000-0000-0000-0000-000000000000/esim/qr")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
