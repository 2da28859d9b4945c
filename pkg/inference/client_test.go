/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client_test.go
Description: Tests for the chat-completion client against an httptest server, covering request
shape, retries, permanent failures, schema rejection and model discovery.
*/

package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) inference.Config {
	cfg := inference.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Model = "local-model"
	cfg.APIKey = "secret"
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func loginRequest() inference.Request {
	filter := manifest.IntentFilter{Actions: []string{"android.intent.action.VIEW"}, Categories: []string{"android.intent.category.BROWSABLE"}}
	return inference.Request{
		Component: manifest.ComponentRecord{
			Kind:     manifest.KindActivity,
			Name:     "com.acme.x.Login",
			Package:  "com.acme.x",
			Exported: manifest.ExportedTrue,
			Filters:  []manifest.IntentFilter{filter},
		},
		Filter:     &filter,
		SourcePath: "Login.java",
		Source:     "String u = getIntent().getStringExtra(\"user\");\n",
	}
}

// TestClientInfer tests a successful round trip and the request payload
func TestClientInfer(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(chatReply("Here you go:\n```json\n{\"extras\": [{\"key\": \"user\", \"type\": \"string\", \"example\": \"alice\"}, {\"key\": \"age\", \"type\": \"int\", \"example\": 30}]}\n```")))
	}))
	defer server.Close()

	client := inference.NewClient(testConfig(server.URL + "/v1"))
	extras, err := client.Infer(context.Background(), loginRequest())
	require.NoError(t, err)
	assert.Equal(t, []intent.ExtraParameter{
		{Key: "user", Type: intent.ExtraString, Example: "alice", Source: intent.SourceInferred},
		{Key: "age", Type: intent.ExtraInt, Example: "30", Source: intent.SourceInferred},
	}, extras)

	assert.Equal(t, "local-model", got["model"])
	assert.Equal(t, 0.3, got["temperature"])
	assert.Equal(t, float64(4096), got["max_tokens"])
	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})
	user := messages[1].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], `{"extras"`)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "com.acme.x.Login")
	assert.Contains(t, user["content"], "android.intent.action.VIEW")
	assert.Contains(t, user["content"], "getStringExtra(\"user\")")
}

// TestClientRetriesTransientFailures tests backoff on 5xx replies
func TestClientRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(chatReply(`{"extras": []}`)))
	}))
	defer server.Close()

	extras, err := inference.NewClient(testConfig(server.URL)).Infer(context.Background(), loginRequest())
	require.NoError(t, err)
	assert.Empty(t, extras)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestClientRetriesExhausted tests the network error after the last attempt
func TestClientRetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := inference.NewClient(testConfig(server.URL)).Infer(context.Background(), loginRequest())
	var netErr *inference.NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.Equal(t, 3, netErr.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestClientPermanentFailure tests that 4xx replies are not retried
func TestClientPermanentFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := inference.NewClient(testConfig(server.URL)).Infer(context.Background(), loginRequest())
	var netErr *inference.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, 1, netErr.Attempts)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestClientMalformedReply tests schema rejection without retries
func TestClientMalformedReply(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(chatReply("I think it takes a user name.")))
	}))
	defer server.Close()

	extras, err := inference.NewClient(testConfig(server.URL)).Infer(context.Background(), loginRequest())
	assert.Nil(t, extras)
	var schemaErr *inference.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestClientCancelled tests that a cancelled context stops retries
func TestClientCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inference.NewClient(testConfig(server.URL)).Infer(ctx, loginRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

// TestListModels tests model discovery
func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [{"id": "qwen2.5-coder-7b"}, {"id": "llama-3.1-8b"}, {"id": ""}]}`))
	}))
	defer server.Close()

	models, err := inference.NewClient(testConfig(server.URL + "/v1/chat/completions")).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5-coder-7b", "llama-3.1-8b"}, models)
}

// TestSelectModel tests index and substring selection
func TestSelectModel(t *testing.T) {
	models := []string{"qwen2.5-coder-7b", "llama-3.1-8b", "llama-3.2-3b"}

	m, err := inference.SelectModel(models, "2")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b", m)

	m, err = inference.SelectModel(models, "QWEN")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder-7b", m)

	m, err = inference.SelectModel(models, "llama-3.2-3b")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.2-3b", m)

	_, err = inference.SelectModel(models, "llama")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "matches 2 models"))

	_, err = inference.SelectModel(models, "4")
	assert.Error(t, err)
	_, err = inference.SelectModel(models, "mistral")
	assert.Error(t, err)
	_, err = inference.SelectModel(nil, "1")
	assert.Error(t, err)
}

// TestConfigValidate tests configuration checks
func TestConfigValidate(t *testing.T) {
	cfg := inference.DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled())
	cfg.Model = "m"
	assert.True(t, cfg.Enabled())

	cfg.MaxRetries = -1
	assert.Error(t, cfg.Validate())
	cfg.MaxRetries = 0
	cfg.Temperature = 3
	assert.Error(t, cfg.Validate())
}
