package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutEndpoint(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestClassify(t *testing.T) {
	var gotAuth, gotContent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotContent = body.Content

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"flagged":true,"categories":{"hate":true},"scores":{"hate":0.97},"summary":"hate speech"}`))
	}))
	defer srv.Close()

	c, err := New(&config.Config{
		Classifier: config.ClassifierConfig{URL: srv.URL, Token: "t0ken", Timeout: 5 * time.Second},
	})
	require.NoError(t, err)
	require.NotNil(t, c)

	verdict, err := c.Classify(context.Background(), "some post")
	require.NoError(t, err)
	require.True(t, verdict.Flagged)
	require.True(t, verdict.Categories["hate"])
	require.InDelta(t, 0.97, verdict.Scores["hate"], 1e-9)
	require.Equal(t, "hate speech", verdict.Summary)

	require.Equal(t, "Bearer t0ken", gotAuth)
	require.Equal(t, "some post", gotContent)
}

func TestClassifyUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(&config.Config{
		Classifier: config.ClassifierConfig{URL: srv.URL, Timeout: 5 * time.Second},
	})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "some post")
	require.Error(t, err)
}
