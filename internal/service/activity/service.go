package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medforce/activity-agent/internal/client"
	"github.com/medforce/activity-agent/internal/device"
	"github.com/medforce/activity-agent/internal/geo"
	"github.com/medforce/activity-agent/internal/model"
	"github.com/medforce/activity-agent/pkg/logger"
	"github.com/medforce/activity-agent/pkg/metrics"
	"github.com/medforce/activity-agent/pkg/tokenstore"
)

// Config tunes the retry queue.
type Config struct {
	RetryInterval time.Duration
	MaxRetries    int
}

const (
	DefaultRetryInterval = 5 * time.Second
	DefaultMaxRetries    = 3
)

// Input carries one activity to log. Details are caller-supplied and merged
// with the ambient page context from Hints.
type Input struct {
	Type       model.ActivityType
	Action     string
	TargetType string
	TargetID   string
	TargetName string
	Details    map[string]interface{}
	Hints      model.ClientHints
}

// Service is the activity logging pipeline: enrich, submit, queue failures
// for bounded retry. It is constructed explicitly and injected into call
// sites; nothing here is package-global.
//
// LogActivity never propagates an error to the caller. Activity logging is
// best-effort and must never fail the business action it accompanies.
type Service struct {
	backend *client.Backend
	geo     *geo.Service
	tokens  tokenstore.Store
	cfg     Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu             sync.Mutex
	enabled        bool
	queue          []*model.RetryEntry
	lastSubmission time.Time
	lastError      string
}

func NewService(backend *client.Backend, geoSvc *geo.Service, tokens tokenstore.Store, cfg Config, log *logger.Logger, m *metrics.Metrics) *Service {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Service{
		backend: backend,
		geo:     geoSvc,
		tokens:  tokens,
		cfg:     cfg,
		enabled: true,
		logger:  log.WithComponent("activity"),
		metrics: m,
	}
}

// Enable turns logging back on after a Disable.
func (s *Service) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// Disable suppresses all logging, including retries. Used where logging
// must not happen, e.g. during automated tests of the surrounding app.
func (s *Service) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// LogActivity enriches and submits one activity record. It returns the
// backend's response body on success and nil on any failure or skip; errors
// are logged and queued internally, never returned.
func (s *Service) LogActivity(ctx context.Context, input Input) json.RawMessage {
	body, err := s.submit(ctx, input)
	if err != nil {
		s.recordFailure(input, err)
	}
	return body
}

// submit runs one enrich-and-post attempt. Skips (disabled, missing token)
// return nil, nil; failures worth retrying return a transient error.
func (s *Service) submit(ctx context.Context, input Input) (json.RawMessage, error) {
	if !s.Enabled() {
		s.metrics.RecordsSkipped.WithLabelValues("disabled").Inc()
		return nil, nil
	}

	token := s.tokens.Token()
	if token == "" {
		s.logger.Warn("no access token available, skipping activity log",
			"type", string(input.Type))
		s.metrics.RecordsSkipped.WithLabelValues("no_token").Inc()
		return nil, nil
	}

	// Location is resolved (or found unavailable) before the POST goes out.
	location := s.geo.CurrentSnapshot(ctx)
	record := s.buildRecord(input, location)

	timer := prometheus.NewTimer(s.metrics.SubmissionLatency)
	body, err := s.backend.SubmitActivity(ctx, token, record)
	timer.ObserveDuration()
	if err != nil {
		return nil, err
	}

	s.metrics.RecordsSubmitted.WithLabelValues(string(input.Type)).Inc()
	s.mu.Lock()
	s.lastSubmission = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Debug("activity logged", "type", string(input.Type), "target_id", input.TargetID)
	return body, nil
}

func (s *Service) recordFailure(input Input, err error) {
	s.logger.Error(err, "activity submission failed, queueing for retry",
		"type", string(input.Type), "target_id", input.TargetID)
	s.metrics.RecordsFailed.WithLabelValues(string(input.Type)).Inc()

	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()

	s.enqueue(&model.RetryEntry{
		Type:       input.Type,
		Action:     input.Action,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		TargetName: input.TargetName,
		Details:    input.Details,
		Hints:      input.Hints,
		Timestamp:  time.Now(),
		RetryCount: 0,
	})
}

// buildRecord assembles an immutable ActivityRecord. Caller details are
// copied and then overlaid with the ambient page context; ambient keys win
// on collision.
func (s *Service) buildRecord(input Input, location *model.GeoSnapshot) *model.ActivityRecord {
	details := make(map[string]interface{}, len(input.Details)+4)
	for k, v := range input.Details {
		details[k] = v
	}
	hints := input.Hints
	if hints.PageURL != "" {
		details["page_url"] = hints.PageURL
	}
	if hints.PageTitle != "" {
		details["page_title"] = hints.PageTitle
	}
	if hints.Referrer != "" {
		details["referrer"] = hints.Referrer
	}
	if hints.LocalStorageKeys > 0 {
		details["local_storage_keys"] = hints.LocalStorageKeys
	}
	if hints.SessionKeys > 0 {
		details["session_keys"] = hints.SessionKeys
	}

	return &model.ActivityRecord{
		ID:         uuid.New(),
		Type:       input.Type,
		Action:     input.Action,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		TargetName: input.TargetName,
		Location:   location,
		DeviceInfo: device.Snapshot(hints.UserAgent, hints),
		Details:    details,
		Metadata: model.RecordMetadata{
			LoggedAt:       time.Now().UTC(),
			UserAgent:      hints.UserAgent,
			ConnectionType: hints.ConnectionType,
			BatteryLevel:   hints.BatteryLevel,
		},
	}
}

// Status reports pipeline state for the status endpoint.
type Status struct {
	Enabled        bool               `json:"enabled"`
	QueueDepth     int                `json:"queue_depth"`
	LastSubmission *time.Time         `json:"last_submission,omitempty"`
	LastError      string             `json:"last_error,omitempty"`
	LastLocation   *model.GeoSnapshot `json:"last_location,omitempty"`
}

func (s *Service) Status() Status {
	s.mu.Lock()
	status := Status{
		Enabled:    s.enabled,
		QueueDepth: len(s.queue),
		LastError:  s.lastError,
	}
	if !s.lastSubmission.IsZero() {
		t := s.lastSubmission
		status.LastSubmission = &t
	}
	s.mu.Unlock()
	status.LastLocation = s.geo.LastSnapshot()
	return status
}
