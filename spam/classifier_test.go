package spam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifierClientParsesSpamScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var request classifierRequest

		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "buy now", request.Input)

		_ = json.NewEncoder(w).Encode(classifierResponse{
			Results: []classifierResult{
				{CategoryScores: map[string]float64{"spam": 0.93}},
			},
		})
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "secret", time.Second)

	score, err := client.SpamScore(context.Background(), "buy now")
	require.NoError(t, err)
	require.InDelta(t, 0.93, score, 0.0001)
}

func TestClassifierClientErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "", time.Second)

	_, err := client.SpamScore(context.Background(), "hello")
	require.ErrorIs(t, err, errClassifierUnavailable)
}

func TestClassifierClientMissingSpamCategory(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(classifierResponse{
			Results: []classifierResult{
				{CategoryScores: map[string]float64{"violence": 0.1}},
			},
		})
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, "", time.Second)

	_, err := client.SpamScore(context.Background(), "hello")
	require.ErrorIs(t, err, errClassifierUnavailable)
}
