package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, 5*time.Second)
	return client, server
}

func TestDoDecodesListResponse(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/schedules", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"title":"晨跑","start_time":"2025-07-09T06:00:00Z"}]`))
	})
	defer server.Close()

	result := client.Do(context.Background(), http.MethodGet, "/api/schedules", nil)
	require.True(t, result.IsList())
	require.Len(t, result.Items, 1)
	require.Equal(t, "晨跑", result.Items[0]["title"])
	_, hasErr := result.ErrMessage()
	require.False(t, hasErr)
}

func TestDoDecodesObjectResponse(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"title":"晨跑"}`))
	})
	defer server.Close()

	result := client.Do(context.Background(), http.MethodPost, "/api/schedules", map[string]any{"title": "晨跑"})
	require.False(t, result.IsList())
	require.EqualValues(t, 7, result.Object["id"])
}

func TestDoEmptyBodyFallsBackToSuccess(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	result := client.Do(context.Background(), http.MethodDelete, "/api/schedules/3", nil)
	_, hasErr := result.ErrMessage()
	require.False(t, hasErr)
	require.Equal(t, true, result.Object["success"])
	require.Equal(t, successMessage, result.Object["message"])
}

func TestDoSurfacesHTTPErrorAsResult(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Schedule not found"}`))
	})
	defer server.Close()

	result := client.Do(context.Background(), http.MethodGet, "/api/schedules/99", nil)
	msg, hasErr := result.ErrMessage()
	require.True(t, hasErr)
	require.Equal(t, "Schedule not found", msg)
}

func TestDoTransportFailureNeverPanics(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond)

	result := client.Do(context.Background(), http.MethodGet, "/api/schedules", nil)
	_, hasErr := result.ErrMessage()
	require.True(t, hasErr)
}

func TestDoSendsRequestBody(t *testing.T) {
	var gotBody map[string]any
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(payload, &gotBody))
		w.Write([]byte(`{"id":1}`))
	})
	defer server.Close()

	client.Do(context.Background(), http.MethodPost, "/api/consumables", map[string]any{
		"name":     "濾心",
		"category": "kitchen",
	})
	require.Equal(t, "濾心", gotBody["name"])
}

func TestListSchedulesTyped(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":2,"title":"開會","start_time":"2025-07-10T09:00:00Z"}]`))
	})
	defer server.Close()

	schedules, err := client.ListSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, 2, schedules[0].ID)
	require.Equal(t, "開會", schedules[0].Title)
}

func TestListConsumablesTyped(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"濾心","category":"kitchen","installation_date":"2025-06-01","lifetime_days":90,"days_remaining":53}]`))
	})
	defer server.Close()

	consumables, err := client.ListConsumables(context.Background())
	require.NoError(t, err)
	require.Len(t, consumables, 1)
	require.Equal(t, 53, consumables[0].DaysRemaining)
}

func TestListSchedulesErrorPropagates(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	})
	defer server.Close()

	_, err := client.ListSchedules(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
