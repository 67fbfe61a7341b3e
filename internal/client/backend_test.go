package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medforce/activity-agent/internal/model"
	apperrors "github.com/medforce/activity-agent/pkg/errors"
	"github.com/medforce/activity-agent/pkg/logger"
)

func testRecord() *model.ActivityRecord {
	return &model.ActivityRecord{
		ID:     uuid.New(),
		Type:   model.TypeLogin,
		Action: "Signed in",
		Metadata: model.RecordMetadata{
			LoggedAt: time.Now().UTC(),
		},
	}
}

func TestSubmitActivity(t *testing.T) {
	var gotAuth, gotPath, gotContentType string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"srv-1","status":"recorded"}`))
	}))
	defer srv.Close()

	b := NewBackend(srv.URL, 0, logger.FromZerolog(zerolog.Nop()))
	body, err := b.SubmitActivity(context.Background(), "tok-123", testRecord())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/api/activities", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "login", gotBody["type"])

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "recorded", decoded["status"])
}

func TestSubmitActivityNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewBackend(srv.URL, 0, logger.FromZerolog(zerolog.Nop()))
	_, err := b.SubmitActivity(context.Background(), "tok", testRecord())

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, apperrors.ErrTransient, apperrors.Code(err))
}

func TestSubmitActivityNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	b := NewBackend(srv.URL, 0, logger.FromZerolog(zerolog.Nop()))
	_, err := b.SubmitActivity(context.Background(), "tok", testRecord())

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestSubmitActivityTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	b := NewBackend(srv.URL, 20*time.Millisecond, logger.FromZerolog(zerolog.Nop()))
	_, err := b.SubmitActivity(context.Background(), "tok", testRecord())

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}
