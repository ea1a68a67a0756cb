package http_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter_http "github.com/lherme-source/waba-panel/internal/webhook_service/adapters/http"
	"github.com/lherme-source/waba-panel/internal/webhook_service/app"
	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
	"github.com/lherme-source/waba-panel/internal/webhook_service/repository/memory"
)

// newPanelRouter wires the webhook and view endpoints against a real service
// and event log, the way cmd/panel_service does.
func newPanelRouter(secret string, capacity int) (http.Handler, *memory.EventLog) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eventLog := memory.NewEventLog(capacity)
	svc := app.NewWebhookService(eventLog, secret, "verify-me", nil, logger)

	r := chi.NewRouter()
	adapter_http.NewWebhookHandler(svc, logger).RegisterRoutes(r)
	adapter_http.NewViewsHandler(eventLog, logger).RegisterRoutes(r)
	return r, eventLog
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, router http.Handler, secret string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBuffer(body))
	if secret != "" {
		req.Header.Set(adapter_http.SignatureHeader, sign(secret, body))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func getConversations(t *testing.T, router http.Handler) adapter_http.ConversationsResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp adapter_http.ConversationsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func getStats(t *testing.T, router http.Handler) adapter_http.StatsResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp adapter_http.StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func inboundBody(msgID string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"wa_id": "5511999999999", "profile": {"name": "Maria"}}],
					"messages": [{"from": "5511999999999", "id": %q, "timestamp": "1700000000", "type": "text", "text": {"body": "oi"}}]
				}
			}]
		}]
	}`, msgID))
}

func statusBody(msgID, status, ts string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"statuses": [{"id": %q, "status": %q, "timestamp": %q, "recipient_id": "5511999999999"}]
				}
			}]
		}]
	}`, msgID, status, ts))
}

func TestViewsHandler_EmptyLog(t *testing.T) {
	router, _ := newPanelRouter("", 10)

	convs := getConversations(t, router)
	assert.True(t, convs.OK)
	assert.Empty(t, convs.Conversations)

	stats := getStats(t, router)
	assert.True(t, stats.OK)
	assert.Equal(t, 0, stats.Stats.Total)
}

func TestPanelFlow_SignedIngestAndIdempotentReplay(t *testing.T) {
	const secret = "topsecret"
	router, _ := newPanelRouter(secret, 1000)

	body := inboundBody("wamid.1")

	// First delivery.
	rr := postWebhook(t, router, secret, body)
	require.Equal(t, http.StatusOK, rr.Code)
	var ack adapter_http.ReceiveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	assert.True(t, ack.OK)
	assert.Equal(t, 1, ack.EntryCount)

	// Provider redelivery: acknowledged again, no duplicated derived state.
	rr = postWebhook(t, router, secret, body)
	require.Equal(t, http.StatusOK, rr.Code)

	convs := getConversations(t, router)
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, "Maria", convs.Conversations[0].Name)
	assert.Len(t, convs.Conversations[0].Messages, 1)
}

func TestPanelFlow_TamperedBodyRejected(t *testing.T) {
	const secret = "topsecret"
	router, eventLog := newPanelRouter(secret, 1000)

	body := inboundBody("wamid.1")
	signature := sign(secret, body)
	tampered := bytes.Replace(body, []byte("oi"), []byte("ataque"), 1)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBuffer(tampered))
	req.Header.Set(adapter_http.SignatureHeader, signature)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, eventLog.Len())

	// Same body with a recomputed signature passes.
	rr2 := postWebhook(t, router, secret, tampered)
	assert.Equal(t, http.StatusOK, rr2.Code)
	assert.Equal(t, 1, eventLog.Len())
}

func TestPanelFlow_StatusWithoutPriorMessageIsSynthesized(t *testing.T) {
	router, _ := newPanelRouter("", 1000)

	rr := postWebhook(t, router, "", statusBody("wamid.out.1", "delivered", "1700000100"))
	require.Equal(t, http.StatusOK, rr.Code)

	convs := getConversations(t, router)
	require.Len(t, convs.Conversations, 1)
	conv := convs.Conversations[0]
	assert.Equal(t, "5511999999999", conv.ContactID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, domain.DirectionOutbound, conv.Messages[0].Direction)
	assert.Equal(t, domain.MessageStatusDelivered, conv.Messages[0].Status)
}

func TestPanelFlow_EvictionBoundsDerivedViews(t *testing.T) {
	const capacity = 3
	router, eventLog := newPanelRouter("", capacity)

	for i := 0; i < capacity+1; i++ {
		rr := postWebhook(t, router, "", statusBody(fmt.Sprintf("wamid.%d", i), "delivered", "1700000100"))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	assert.Equal(t, capacity, eventLog.Len())
	stats := getStats(t, router)
	assert.Equal(t, capacity, stats.Stats.Delivered, "evicted events must drop out of derived views")
	assert.Equal(t, capacity, stats.Stats.Total)
}

func TestPanelFlow_StatsCountersMatchScenario(t *testing.T) {
	router, _ := newPanelRouter("", 1000)

	postWebhook(t, router, "", inboundBody("wamid.in.1"))
	postWebhook(t, router, "", statusBody("wamid.out.1", "sent", "1700000100"))
	postWebhook(t, router, "", statusBody("wamid.out.1", "delivered", "1700000200"))
	postWebhook(t, router, "", statusBody("wamid.out.1", "read", "1700000300"))
	postWebhook(t, router, "", statusBody("wamid.out.2", "failed", "1700000400"))

	stats := getStats(t, router)
	assert.True(t, stats.OK)
	assert.Equal(t, domain.StatsSnapshot{
		Sent: 1, Delivered: 1, Failed: 1, Read: 1, Replied: 1, Total: 5,
	}, stats.Stats)
}
