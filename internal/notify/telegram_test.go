package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSend(t *testing.T) {
	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok123")
	tg.apiBase = srv.URL

	require.NoError(t, tg.Send(context.Background(), 4242, "payment received"))
	assert.Equal(t, "/bottok123/sendMessage", gotPath)
	assert.Equal(t, "4242", gotChat)
	assert.Equal(t, "payment received", gotText)
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("tok123")
	tg.apiBase = srv.URL

	err := tg.Send(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramSendWithoutToken(t *testing.T) {
	tg := NewTelegram("")
	assert.Error(t, tg.Send(context.Background(), 1, "hi"))
}
