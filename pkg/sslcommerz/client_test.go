package sslcommerz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "sslcommerz-test", Level: zerolog.Disabled})
	client, err := NewClient(config.SSLCommerzConfig{
		StoreID:       "teststore",
		StorePassword: "testpass",
		Sandbox:       true,
		Timeout:       2 * time.Second,
	}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = baseURL
	return client
}

func TestCreateSessionSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sessionPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostFormValue("store_id") != "teststore" {
			t.Errorf("missing store_id")
		}
		if r.PostFormValue("tran_id") != "GB-123" {
			t.Errorf("unexpected tran_id %s", r.PostFormValue("tran_id"))
		}
		json.NewEncoder(w).Encode(Session{
			Status:         "SUCCESS",
			SessionKey:     "sess-1",
			GatewayPageURL: "https://pay.example/sess-1",
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	session, err := client.CreateSession(context.Background(), SessionParams{
		TranID:   "GB-123",
		Amount:   "150.00",
		Currency: "BDT",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.GatewayPageURL != "https://pay.example/sess-1" {
		t.Fatalf("unexpected gateway url %s", session.GatewayPageURL)
	}
}

func TestCreateSessionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Session{Status: "FAILED", FailedReason: "store credentials invalid"})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	_, err := client.CreateSession(context.Background(), SessionParams{TranID: "GB-124", Amount: "10.00"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodePaymentInitFailed) {
		t.Fatalf("expected PAYMENT_INIT_FAILED, got %v", err)
	}
}

func TestValidateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != validatorPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("val_id") != "val-77" {
			t.Errorf("missing val_id")
		}
		json.NewEncoder(w).Encode(Validation{
			Status:     "VALID",
			TranID:     "GB-123",
			ValID:      "val-77",
			Amount:     "150.00",
			Currency:   "BDT",
			BankTranID: "bank-9",
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	validation, err := client.ValidateTransaction(context.Background(), "val-77")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !validation.Paid() {
		t.Fatalf("expected paid validation")
	}
	if validation.TranID != "GB-123" {
		t.Fatalf("unexpected tran_id %s", validation.TranID)
	}
}

func TestValidateTransactionRequiresValID(t *testing.T) {
	client := testClient(t, "http://unused")
	if _, err := client.ValidateTransaction(context.Background(), "  "); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestServerErrorMapsToDependency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	_, err := client.ValidateTransaction(context.Background(), "val-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}
