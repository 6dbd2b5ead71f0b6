package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchProcessesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "dune part two", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":1,"title":"Dune: Part Two","mediaType":"movie","releaseDate":"2024-02-27"},
			{"id":2,"name":"Dune: Prophecy","mediaType":"tv","firstAirDate":"2024-11-17","mediaInfo":{"status":5}},
			{"id":3,"name":"Frank Herbert","mediaType":"person"}
		]}`))
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	results, err := client.Search("dune part two")
	require.NoError(t, err)
	require.Len(t, results, 2) // person hits are dropped

	assert.Equal(t, "Dune: Part Two", results[0].Title)
	assert.Equal(t, "2024", results[0].Year)
	assert.False(t, results[0].Available)

	// TV year comes from firstAirDate, and status 5 means available.
	assert.Equal(t, "Dune: Prophecy", results[1].Title)
	assert.Equal(t, "2024", results[1].Year)
	assert.True(t, results[1].Available)
}

func TestCreateRequestBody(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		// Cookie identity must win over the API key.
		assert.Equal(t, "connect.sid=abc", r.Header.Get("Cookie"))
		assert.Empty(t, r.Header.Get("X-Api-Key"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	err := client.CreateRequest(models.Identity{Cookie: "connect.sid=abc"}, 55, "tv")
	require.NoError(t, err)

	assert.Equal(t, 55, got.MediaID)
	assert.Equal(t, "tv", got.MediaType)
	assert.Equal(t, "all", got.Seasons)
	assert.Zero(t, got.UserID)
}

func TestCreateRequestOnBehalfOf(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	require.NoError(t, client.CreateRequest(models.Identity{OnBehalfOf: 42}, 7, "movie"))
	assert.Equal(t, 42, got.UserID)
	assert.Empty(t, got.Seasons)
}

func TestErrorClassification(t *testing.T) {
	status := http.StatusInternalServerError
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)

	_, err := client.Search("dune")
	assert.ErrorIs(t, err, models.ErrTransientBackend)

	status = http.StatusUnauthorized
	err = client.CreateRequest(models.Identity{Cookie: "connect.sid=stale"}, 1, "movie")
	assert.ErrorIs(t, err, models.ErrBadCredentials)
}

func TestLoginExtractsSessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body loginBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body.Email)
		http.SetCookie(w, &http.Cookie{Name: "connect.sid", Value: "s%3Aabc"})
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	token, err := client.Login("user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "connect.sid=s%3Aabc", token)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	_, err := client.Login("user@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrBadCredentials)
}

func TestListUsersFallsBackToUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"id":1,"displayName":"Alice"},
			{"id":2,"username":"bob"},
			{"id":3,"email":"carol@example.com"}
		]}`))
	}))
	defer server.Close()

	client := NewOverseerrAPI(server.URL, "test-key", time.Second)
	users, err := client.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Alice", users[0].DisplayName)
	assert.Equal(t, "bob", users[1].DisplayName)
	assert.Equal(t, "carol@example.com", users[2].DisplayName)
}
