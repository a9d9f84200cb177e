package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jne-ops/opsboard-api/internal/models"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

func fastScriptConfig() ScriptConfig {
	return ScriptConfig{Timeout: time.Second, Retries: 2, Backoff: time.Millisecond, BackoffX: 1.5}
}

func newTestScriptStore(url string) *ScriptStore {
	return NewScriptStore(func() string { return url }, fastScriptConfig(), AlwaysOnline{}, nil)
}

func TestScriptStoreReadsFlatPayload(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		// The script backend serves JSON with a text/plain content type.
		w.Header().Set("Content-Type", "text/plain;charset=utf-8")
		io.WriteString(w, `{"jobs":[{"id":"j1","category":"Regular","jobType":"Rekonsiliasi","dateInput":"2024-05-01"}],"users":[],"validationLogs":[]}`) //nolint:errcheck
	}))
	defer server.Close()

	data, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Len(t, data.Jobs, 1)
	assert.Equal(t, "j1", data.Jobs[0].ID)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "read", q.Get("action"))
	assert.NotEmpty(t, q.Get("t"), "cache-busting timestamp must be present")
}

func TestScriptStoreUnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"jobs":[{"id":"j2","category":"Regular","jobType":"A","dateInput":"2024-05-01"}]}}`) //nolint:errcheck
	}))
	defer server.Close()

	data, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Len(t, data.Jobs, 1)
	assert.Equal(t, "j2", data.Jobs[0].ID)
}

func TestScriptStoreKeepsQueryStringOfOverrideURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("deployment"))
		assert.Equal(t, "read", q.Get("action"))
		io.WriteString(w, `{"jobs":[],"users":[],"validationLogs":[]}`) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestScriptStore(server.URL + "?deployment=1").GetData(context.Background())
	require.NoError(t, err)
}

func TestScriptStoreLogicalErrorMeansNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"Sheet not found"}`) //nolint:errcheck
	}))
	defer server.Close()

	data, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.NoError(t, err, "a logical script error is not a connection failure")
	assert.Nil(t, data, "caller keeps whatever it already has")
}

func TestScriptStoreHTMLBodyMeansMisconfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<!DOCTYPE html><html><body>Authorization needed</body></html>`) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRemoteMisconfigured.Code, appErrors.FromError(err).Code)
}

func TestScriptStoreRetriesTransportFaults(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			// Drop the connection to simulate a transport fault.
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close() //nolint:errcheck
			return
		}
		io.WriteString(w, `{"jobs":[],"users":[],"validationLogs":[]}`) //nolint:errcheck
	}))
	defer server.Close()

	data, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "two retries on top of the first attempt")
}

func TestScriptStoreRetryBudgetIsThreeAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close() //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, appErrors.ErrRemoteTransport.Code, appErrors.FromError(err).Code)
}

func TestScriptStoreDoesNotRetryProtocolErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "repeating a protocol error cannot help")
	assert.Equal(t, appErrors.ErrRemoteProtocol.Code, appErrors.FromError(err).Code)
}

func TestScriptStoreNotFoundHasDeploymentHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestScriptStore(server.URL).GetData(context.Background())
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "404")
}

func TestScriptStoreOfflineShortCircuits(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	store := NewScriptStore(func() string { return server.URL }, fastScriptConfig(), offlineProbe{}, nil)
	data, err := store.GetData(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, store.SaveData(context.Background(), &models.AppData{}))
}

func TestScriptStoreEmptyURLMeansNoData(t *testing.T) {
	store := newTestScriptStore("")
	data, err := store.GetData(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestScriptStoreSavePostsPlainText(t *testing.T) {
	var gotContentType atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotContentType.Store(r.Header.Get("Content-Type"))

		var payload models.AppData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload.Jobs, 1)

		io.WriteString(w, `{"status":"success"}`) //nolint:errcheck
	}))
	defer server.Close()

	data := &models.AppData{Jobs: []models.Job{{ID: "j1", Category: "Regular", JobType: "A", DateInput: "2024-05-01"}}}
	data.Normalize()
	ok := newTestScriptStore(server.URL).SaveData(context.Background(), data)
	assert.True(t, ok)
	assert.Equal(t, "text/plain;charset=utf-8", gotContentType.Load(), "anything else would trigger a preflight the script cannot answer")
}

func TestScriptStoreSaveRejectedByScript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"quota exceeded"}`) //nolint:errcheck
	}))
	defer server.Close()

	ok := newTestScriptStore(server.URL).SaveData(context.Background(), &models.AppData{})
	assert.False(t, ok)
}

type offlineProbe struct{}

func (offlineProbe) Online() bool { return false }
