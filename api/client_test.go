package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shiv-telegram/models"

	"github.com/shopspring/decimal"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestFetchMenu(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/menu/get-item" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[{"_id":"a","name":"Dal Fry","price":120.5,"nonVeg":false,"availability":true}]`))
	}))
	defer srv.Close()

	items, err := client.FetchMenu(context.Background())
	if err != nil {
		t.Fatalf("FetchMenu: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].ID != "a" || items[0].Name != "Dal Fry" || !items[0].Available {
		t.Errorf("item: %+v", items[0])
	}
	if !items[0].Price.Equal(decimal.NewFromFloat(120.5)) {
		t.Errorf("price = %s, want 120.5", items[0].Price)
	}
}

func TestFetchCategories(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/menu/get-category" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[{"_id":"c1","name":"Starters"},{"_id":"c2","name":"Mains"}]`))
	}))
	defer srv.Close()

	cats, err := client.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("FetchCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Starters" {
		t.Errorf("categories: %+v", cats)
	}
}

func TestFetchKitchenStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kitchen/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"open":false,"note":"maintenance"}`))
	}))
	defer srv.Close()

	status, err := client.FetchKitchenStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchKitchenStatus: %v", err)
	}
	if status.Open {
		t.Error("kitchen should be closed")
	}
}

func TestRegisterUser(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/user/register" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := client.RegisterUser(context.Background(), "uid-123"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if gotBody["uid"] != "uid-123" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestPlaceOrder(t *testing.T) {
	var gotBody map[string]any
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/order" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"_id":"o1","status":"PLACED","totalAmount":25}`))
	}))
	defer srv.Close()

	input := models.PlaceOrderInput{
		CustomerName:    "Asha",
		CustomerPhoneNo: "9876543210",
		CustomerAddress: "12 Temple Road",
		Items: []models.PlaceOrderItem{
			{FoodItem: "a", Quantity: 2},
			{FoodItem: "b", Quantity: 1},
		},
		TotalAmount: decimal.NewFromInt(25),
	}
	order, err := client.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ID != "o1" || order.Status != models.OrderStatusPlaced {
		t.Errorf("order: %+v", order)
	}

	if gotBody["customerName"] != "Asha" {
		t.Errorf("customerName = %v", gotBody["customerName"])
	}
	// Prices must travel as JSON numbers, not strings.
	if _, ok := gotBody["totalAmount"].(float64); !ok {
		t.Errorf("totalAmount should be a JSON number, got %T", gotBody["totalAmount"])
	}
	items, _ := gotBody["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %v", gotBody["items"])
	}
	first, _ := items[0].(map[string]any)
	if first["foodItem"] != "a" || first["quantity"] != float64(2) {
		t.Errorf("first item = %v", first)
	}
}

func TestFetchOrderHistory(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["uid"] != "uid-123" {
			t.Errorf("body = %v (err %v)", body, err)
		}
		w.Write([]byte(`{"user":{"orders":[{"_id":"o1","status":"DELIVERED","totalAmount":25,` +
			`"items":[{"foodItem":{"_id":"a","name":"Dal Fry","price":12.5},"quantity":2}]}]}}`))
	}))
	defer srv.Close()

	orders, err := client.FetchOrderHistory(context.Background(), "uid-123")
	if err != nil {
		t.Fatalf("FetchOrderHistory: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	o := orders[0]
	if o.ID != "o1" || o.Status != models.OrderStatusDelivered {
		t.Errorf("order: %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].FoodItem.Name != "Dal Fry" || o.Items[0].Quantity != 2 {
		t.Errorf("items: %+v", o.Items)
	}
}

func TestNon2xxBecomesRequestError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.FetchMenu(context.Background())
	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("want RequestError, got %v", err)
	}
	if rerr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rerr.Status)
	}
}

func TestTransportFailureBecomesRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	client := New(url, 1*time.Second)
	_, err := client.FetchMenu(context.Background())
	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("want RequestError, got %v", err)
	}
	if rerr.Status != 0 {
		t.Errorf("transport failure should carry no HTTP status, got %d", rerr.Status)
	}
	if rerr.Err == nil {
		t.Error("transport failure should carry the underlying error")
	}
}
