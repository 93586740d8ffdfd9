package studio

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

func TestAddItem(t *testing.T) {
	var got addItemRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"object_id": 12}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", zap.NewNop())
	err := client.AddItem(context.Background(), domain.Coordinate{GroupNo: 1, CategoryNo: 2, ItemNo: 30})

	require.NoError(t, err)
	assert.Equal(t, addItemRequest{Group: 1, Category: 2, Item: 30}, got)
}

func TestAddItemHostRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no scene loaded", http.StatusConflict)
	}))
	defer server.Close()

	err := NewClient(server.URL, zap.NewNop()).AddItem(context.Background(), domain.Coordinate{})

	var hostErr *errors.HostError
	require.True(t, stderrors.As(err, &hostErr))
	assert.Equal(t, http.StatusConflict, hostErr.StatusCode)
	assert.Contains(t, hostErr.Context["body"], "no scene loaded")
}

func TestAddItemUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewClient(url, zap.NewNop()).AddItem(context.Background(), domain.Coordinate{})

	var hostErr *errors.HostError
	require.True(t, stderrors.As(err, &hostErr))
	assert.Error(t, hostErr.Unwrap())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"scene":"default","objects":3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	assert.True(t, client.Ping(context.Background()))

	status, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.Objects)
}
