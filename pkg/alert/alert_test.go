package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	name string
	err  error
	sent int
}

func (s *stubNotifier) Name() string { return s.name }
func (s *stubNotifier) Send(ctx context.Context, n *Notification) error {
	s.sent++
	return s.err
}

func TestManager_BroadcastContinuesPastFailures(t *testing.T) {
	bad := &stubNotifier{name: "bad", err: errors.New("boom")}
	good := &stubNotifier{name: "good"}
	m := NewManager([]Notifier{bad, good})

	err := m.Broadcast(context.Background(), &Notification{Title: "t"})

	assert.ErrorContains(t, err, "bad")
	assert.Equal(t, 1, bad.sent)
	assert.Equal(t, 1, good.sent) // failure upstream did not stop delivery
}

func TestManager_HasNotifiers(t *testing.T) {
	assert.False(t, NewManager(nil).HasNotifiers())
	assert.True(t, NewManager([]Notifier{&stubNotifier{}}).HasNotifiers())
}

func TestWebhook_SignsPayload(t *testing.T) {
	var gotSig string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature-256")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	wh := NewWebhook(server.URL, "topsecret")
	n := &Notification{PaperID: "arxiv:2608.01234", Title: "Paper", Score: 87.5, Trend: "rising"}
	require.NoError(t, wh.Send(context.Background(), n))

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)

	var decoded Notification
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "arxiv:2608.01234", decoded.PaperID)
}
