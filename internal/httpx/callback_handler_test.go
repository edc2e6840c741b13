package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucshop/internal/freekassa"
	"ucshop/internal/processor"
)

type stubProcessor struct {
	err   error
	calls []freekassa.Notification
}

func (s *stubProcessor) Process(ctx context.Context, n freekassa.Notification) error {
	s.calls = append(s.calls, n)
	return s.err
}

func newTestServer(p CallbackProcessor) *httptest.Server {
	r := NewRouter()
	h := &CallbackHandler{Processor: p}
	h.Register(r)
	return httptest.NewServer(r)
}

func postCallback(t *testing.T, srv *httptest.Server, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/callback", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func validForm() url.Values {
	return url.Values{
		"MERCHANT_ORDER_ID": {"A-100"},
		"AMOUNT":            {"500"},
		"SIGN":              {"deadbeef"},
		"intid":             {"776644"},
	}
}

func TestCallbackGetProbe(t *testing.T) {
	stub := &stubProcessor{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/callback")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "YES", body(t, resp))
	assert.Empty(t, stub.calls)
}

func TestCallbackMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubProcessor{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/callback", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method Not Allowed", body(t, resp))
}

func TestCallbackOptionsAnsweredOK(t *testing.T) {
	stub := &stubProcessor{}
	srv := newTestServer(stub)
	defer srv.Close()

	// no preflight headers on purpose; the gateway sends plain OPTIONS
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/callback", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, stub.calls)
}

func TestCallbackStatusProbeSkipsProcessing(t *testing.T) {
	stub := &stubProcessor{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp := postCallback(t, srv, url.Values{"status_check": {"1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "YES", body(t, resp))
	assert.Empty(t, stub.calls)
}

func TestCallbackMissingFields(t *testing.T) {
	stub := &stubProcessor{}
	srv := newTestServer(stub)
	defer srv.Close()

	form := validForm()
	form.Del("SIGN")
	resp := postCallback(t, srv, form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields", body(t, resp))
	assert.Empty(t, stub.calls)
}

func TestCallbackSuccess(t *testing.T) {
	stub := &stubProcessor{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp := postCallback(t, srv, validForm())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "YES", body(t, resp))

	require.Len(t, stub.calls, 1)
	assert.Equal(t, "A-100", stub.calls[0].OrderID)
	assert.Equal(t, "500", stub.calls[0].Amount)
	assert.Equal(t, "776644", stub.calls[0].PaymentID)
}

func TestCallbackErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"invalid signature", processor.ErrInvalidSignature, http.StatusForbidden, "Invalid signature"},
		{"order not found", processor.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
		{"not committed", processor.ErrNotCommitted, http.StatusInternalServerError, "Internal Server Error"},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubProcessor{err: tt.err})
			defer srv.Close()

			resp := postCallback(t, srv, validForm())
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantBody, body(t, resp))
		})
	}
}
