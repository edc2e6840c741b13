package redeem

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRedeemSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/topup", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req topupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "player-9", req.PlayerID)
		assert.Equal(t, "uc-60", req.SKU)
		assert.Equal(t, 2, req.Qty)

		_ = json.NewEncoder(w).Encode(topupResponse{Status: "ok", Code: "TX-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", 5*time.Second)
	out := c.Redeem(context.Background(), "player-9", "uc-60", 2)

	assert.True(t, out.Success)
	assert.Equal(t, "TX-42", out.Code)
	assert.Empty(t, out.Err)
}

func TestClientRedeemProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(topupResponse{Status: "error", Message: "player id not found"})
	}))
	defer srv.Close()

	out := NewClient(srv.URL, "", 5*time.Second).Redeem(context.Background(), "nobody", "uc-60", 1)

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "player id not found")
}

func TestClientRedeemServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := NewClient(srv.URL, "", 5*time.Second).Redeem(context.Background(), "player-9", "uc-60", 1)

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "unexpected status 500")
}

func TestClientRedeemTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out := NewClient(srv.URL, "", 5*time.Second).Redeem(ctx, "player-9", "uc-60", 1)

	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Err)
}

func TestSimulator(t *testing.T) {
	sim := &Simulator{FailSKUs: map[string]bool{"uc-broken": true}}

	ok := sim.Redeem(context.Background(), "p", "uc-60", 1)
	assert.True(t, ok.Success)
	assert.Contains(t, ok.Code, "SIM-")

	bad := sim.Redeem(context.Background(), "p", "uc-broken", 1)
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Err, "uc-broken")
}
