package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *GraphClient {
	return NewGraphClient(testLogger(), GraphClientConfig{
		BaseURL:       serverURL,
		APIVersion:    "v21.0",
		AccessToken:   "test-token",
		PhoneNumberID: "phone-1",
		WABAID:        "waba-1",
	}, nil)
}

func TestGraphClient_GetName(t *testing.T) {
	client := newTestClient("http://unused")
	assert.Equal(t, "whatsapp_graph", client.GetName())
}

func TestGraphClient_SendTemplate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v21.0/phone-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		bodyBytes, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var reqBody graphSendRequestBody
		require.NoError(t, json.Unmarshal(bodyBytes, &reqBody))
		assert.Equal(t, "whatsapp", reqBody.MessagingProduct)
		assert.Equal(t, "5511999999999", reqBody.To)
		assert.Equal(t, "template", reqBody.Type)
		assert.Equal(t, "boas_vindas_wj", reqBody.Template.Name)
		assert.Equal(t, "pt_BR", reqBody.Template.Language.Code)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.sent.1"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.SendTemplate(context.Background(), SendTemplateRequest{
		To:       "5511999999999",
		Template: "boas_vindas_wj",
		Language: "pt_BR",
	})

	require.NoError(t, err)
	assert.Equal(t, "wamid.sent.1", result.MessageID)
	assert.Equal(t, "5511999999999", result.Recipient)
	assert.False(t, result.Simulated)
}

func TestGraphClient_SendTemplate_GraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Template name does not exist",
				"type":    "OAuthException",
				"code":    132001,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendTemplate(context.Background(), SendTemplateRequest{
		To:       "5511999999999",
		Template: "nao_existe",
		Language: "pt_BR",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template name does not exist")
	assert.Contains(t, err.Error(), "132001")
}

func TestGraphClient_ListTemplates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/waba-1/message_templates", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "fields=")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"name": "boas_vindas_wj", "category": "MARKETING", "status": "APPROVED", "language": "pt_BR"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	templates, err := client.ListTemplates(context.Background())

	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "boas_vindas_wj", templates[0].Name)
	assert.Equal(t, "APPROVED", templates[0].Status)
}

func TestGraphClient_GetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/phone_numbers"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{
					{"id": "phone-1", "display_phone_number": "+55 11 99999-9999", "quality_rating": "GREEN"},
					{"id": "phone-2", "verified_name": "Loja WJ"},
				},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "waba-1", "name": "WJ Comercio"})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	account, err := client.GetAccount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "live", account.Source)
	assert.Equal(t, "WJ Comercio", account.Name)
	require.Len(t, account.Phones, 2)
	assert.Equal(t, "+55 11 99999-9999", account.Phones[0].Display)
	assert.Equal(t, "GREEN", account.Phones[0].Status)
	assert.Equal(t, "Loja WJ", account.Phones[1].Display, "verified name is the display fallback")
}

func TestGraphClient_FetchMedia_TwoStepDownload(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v21.0/media-1":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"url":       server.URL + "/binary/media-1",
				"mime_type": "image/jpeg",
			})
		case "/binary/media-1":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	media, err := client.FetchMedia(context.Background(), "media-1")

	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, "image/jpeg", media.ContentType)
	data, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestSimulatedDispatcher_SendTemplate(t *testing.T) {
	dispatcher := NewSimulatedDispatcher(testLogger(), "waba-1")

	result, err := dispatcher.SendTemplate(context.Background(), SendTemplateRequest{
		To:       "5511999999999",
		Template: "boas_vindas_wj",
		Language: "pt_BR",
	})

	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.True(t, strings.HasPrefix(result.MessageID, "sim_"))
}

func TestSimulatedDispatcher_MediaDisabled(t *testing.T) {
	dispatcher := NewSimulatedDispatcher(testLogger(), "waba-1")

	_, err := dispatcher.FetchMedia(context.Background(), "media-1")
	assert.Error(t, err)
}
