package driver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dandantas/starling/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Token:       "secret-token",
		Timeout:     5 * time.Second,
		SuccessPath: "$.data.success",
		CommentPath: "$.data.comment",
		ContentPath: "$.data.post_text",
	}
}

func testProfile() model.Profile {
	return model.Profile{
		ID:                "p1",
		ExternalAccountID: "acct-1",
		Enabled:           true,
		DelayRange:        &model.DelayRange{MinSec: 10, MaxSec: 30},
	}
}

func TestExecuteSuccess(t *testing.T) {
	var captured engagementRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/engagements", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"success": true, "comment": "great point", "post_text": "original tweet"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	result, err := client.Execute(context.Background(), testProfile(), model.ActionComment, "corr-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, model.ActionComment, result.ActionType)
	assert.Equal(t, "great point", result.CommentText)
	assert.Equal(t, "original tweet", result.OriginalContent)

	assert.Equal(t, "acct-1", captured.ExternalAccountID)
	assert.Equal(t, "comment", captured.Action)
	assert.Equal(t, "corr-1", captured.CorrelationID)
	assert.Equal(t, 10, captured.DelayMinSec)
	assert.Equal(t, 30, captured.DelayMaxSec)
}

func TestExecuteDriverReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"success": false}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	result, err := client.Execute(context.Background(), testProfile(), model.ActionLike, "corr-2")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecuteNonSuccessStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "driver busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Execute(context.Background(), testProfile(), model.ActionLike, "corr-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "driver busy")
}

func TestExecuteMissingSuccessField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"comment": "hi"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Execute(context.Background(), testProfile(), model.ActionComment, "corr-4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "success")
}

func TestExecuteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Execute(context.Background(), testProfile(), model.ActionComment, "corr-5")
	require.Error(t, err)
}

func TestExecuteOmitsDelayRangeWhenUnset(t *testing.T) {
	var captured map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"data": {"success": true}}`))
	}))
	defer srv.Close()

	profile := testProfile()
	profile.DelayRange = nil

	client := NewClient(testConfig(srv.URL))
	_, err := client.Execute(context.Background(), profile, model.ActionRetweet, "corr-6")
	require.NoError(t, err)

	_, hasMin := captured["delay_min_sec"]
	assert.False(t, hasMin)
}

func TestTruthyCoercion(t *testing.T) {
	assert.True(t, truthy(true))
	assert.True(t, truthy(float64(1)))
	assert.True(t, truthy("true"))
	assert.True(t, truthy("OK"))
	assert.True(t, truthy(" success "))
	assert.True(t, truthy("1"))

	assert.False(t, truthy(false))
	assert.False(t, truthy(float64(0)))
	assert.False(t, truthy("false"))
	assert.False(t, truthy("no"))
	assert.False(t, truthy(nil))
	assert.False(t, truthy(map[string]interface{}{}))
}

func TestParseResultAlternatePaths(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.SuccessPath = "$.ok"
	cfg.CommentPath = "$.reply"
	cfg.ContentPath = "$.source"
	client := NewClient(cfg)

	body := []byte(`{"ok": "yes", "reply": "done"}`)
	result, err := client.parseResult(body, model.ActionComment)
	require.NoError(t, err)

	// "yes" is not an affirmative the coercion accepts
	assert.False(t, result.Success)
	assert.Equal(t, "done", result.CommentText)
	assert.Empty(t, result.OriginalContent)
}
