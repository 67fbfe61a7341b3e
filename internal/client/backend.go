package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medforce/activity-agent/internal/model"
	apperrors "github.com/medforce/activity-agent/pkg/errors"
	"github.com/medforce/activity-agent/pkg/logger"
)

// DefaultSubmitTimeout bounds a single activity POST.
const DefaultSubmitTimeout = 10 * time.Second

const activitiesPath = "/api/activities"

// Backend posts activity records to the platform's ingestion endpoint. The
// backend is an external collaborator: the response body is passed through
// untyped and any 2xx counts as success.
type Backend struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func NewBackend(baseURL string, timeout time.Duration, log *logger.Logger) *Backend {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Backend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithComponent("backend"),
	}
}

// SubmitActivity posts one record with bearer auth. Network errors, timeouts
// and non-2xx statuses come back as transient errors so the caller queues
// them for retry.
func (b *Backend) SubmitActivity(ctx context.Context, token string, record *model.ActivityRecord) (json.RawMessage, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to marshal activity record: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+activitiesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, apperrors.Transient("activity submission failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transient("failed to read backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.logger.Warn("backend rejected activity",
			"status", resp.StatusCode, "type", string(record.Type))
		return nil, apperrors.Transient(
			fmt.Sprintf("backend rejected activity with status %d", resp.StatusCode), nil)
	}

	return json.RawMessage(body), nil
}
