package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ucshop/internal/freekassa"
	"ucshop/internal/processor"
)

// CallbackProcessor is what the handler needs from the core: one call per
// delivery, typed errors for the response mapping.
type CallbackProcessor interface {
	Process(ctx context.Context, n freekassa.Notification) error
}

type CallbackHandler struct {
	Processor CallbackProcessor
}

func (h *CallbackHandler) Register(r *chi.Mux) {
	// GET is FreeKassa's merchant verification probe
	r.Get("/api/callback", h.probe)
	r.Post("/api/callback", h.callback)
	// a bare OPTIONS without preflight headers bypasses the CORS
	// middleware; answer 200 instead of falling through to 405
	r.Options("/api/callback", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writePlain(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

func (h *CallbackHandler) probe(w http.ResponseWriter, r *http.Request) {
	writePlain(w, http.StatusOK, freekassa.SuccessToken)
}

func (h *CallbackHandler) callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writePlain(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	n := freekassa.ParseForm(r.PostForm)

	// status probes are answered without touching any state
	if n.StatusProbe {
		writePlain(w, http.StatusOK, freekassa.SuccessToken)
		return
	}
	if !n.Complete() {
		writePlain(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := h.Processor.Process(r.Context(), n)
	switch {
	case err == nil:
		writePlain(w, http.StatusOK, freekassa.SuccessToken)
	case errors.Is(err, processor.ErrInvalidSignature):
		writePlain(w, http.StatusForbidden, "Invalid signature")
	case errors.Is(err, processor.ErrOrderNotFound):
		writePlain(w, http.StatusNotFound, "Order not found")
	default:
		// includes ErrNotCommitted: a 5xx makes the gateway redeliver
		slog.Error("callback processing failed", "order_id", n.OrderID, "error", err)
		writePlain(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writePlain(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
