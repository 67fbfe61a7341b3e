package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType tags an activity record. The set below is closed on the
// emitting side; the ingest endpoint and the typed helpers only produce
// these values. LogActivity still accepts unknown tags because the backend
// owns final validation.
type ActivityType string

const (
	TypeVisitRegistration  ActivityType = "visit_registration"
	TypeClinicRegistration ActivityType = "clinic_registration"
	TypeOrderCreation      ActivityType = "order_creation"
	TypeProductUpdate      ActivityType = "product_update"
	TypeUserCreation       ActivityType = "user_creation"
	TypeSystemAccess       ActivityType = "system_access"
	TypeLogin              ActivityType = "login"
)

var knownTypes = map[ActivityType]struct{}{
	TypeVisitRegistration:  {},
	TypeClinicRegistration: {},
	TypeOrderCreation:      {},
	TypeProductUpdate:      {},
	TypeUserCreation:       {},
	TypeSystemAccess:       {},
	TypeLogin:              {},
}

// Known reports whether t belongs to the closed emitting set.
func (t ActivityType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// GeoSnapshot is a point-in-time location reading plus the reverse-geocoded
// address. Pointer fields may be nil when the position source did not report
// them.
type GeoSnapshot struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Area      string    `json:"area"`
	Country   string    `json:"country"`
}

// DeviceSnapshot describes the device the activity originated on. The
// classification fields are derived from the user agent; the rest are
// client-reported hints.
type DeviceSnapshot struct {
	DeviceType       string `json:"device_type"`
	OperatingSystem  string `json:"operating_system"`
	Browser          string `json:"browser"`
	BrowserVersion   string `json:"browser_version"`
	UserAgent        string `json:"user_agent"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	ViewportSize     string `json:"viewport_size,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	Language         string `json:"language,omitempty"`
	Online           bool   `json:"online"`
}

// RecordMetadata carries submission-time ambient state.
type RecordMetadata struct {
	LoggedAt       time.Time `json:"logged_at"`
	UserAgent      string    `json:"user_agent,omitempty"`
	ConnectionType string    `json:"connection_type,omitempty"`
	BatteryLevel   *float64  `json:"battery_level,omitempty"`
}

// ActivityRecord is the wire shape posted to {API}/activities. Records are
// assembled once and never mutated afterwards.
type ActivityRecord struct {
	ID         uuid.UUID              `json:"id"`
	Type       ActivityType           `json:"type"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   string                 `json:"target_id,omitempty"`
	TargetName string                 `json:"target_name,omitempty"`
	Location   *GeoSnapshot           `json:"location,omitempty"`
	DeviceInfo DeviceSnapshot         `json:"device_info"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Metadata   RecordMetadata         `json:"metadata"`
}

// ClientHints are the fields only the originating client can sense. They
// ride in on the ingest request and merge into the assembled record.
type ClientHints struct {
	UserAgent        string   `json:"user_agent,omitempty"`
	ScreenResolution string   `json:"screen_resolution,omitempty"`
	ViewportSize     string   `json:"viewport_size,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	Language         string   `json:"language,omitempty"`
	Online           *bool    `json:"online,omitempty"`
	ConnectionType   string   `json:"connection_type,omitempty"`
	BatteryLevel     *float64 `json:"battery_level,omitempty"`
	PageURL          string   `json:"page_url,omitempty"`
	PageTitle        string   `json:"page_title,omitempty"`
	Referrer         string   `json:"referrer,omitempty"`
	LocalStorageKeys int      `json:"local_storage_keys,omitempty"`
	SessionKeys      int      `json:"session_keys,omitempty"`
}

// RetryEntry holds the original call parameters of a failed submission. The
// queue is process-local and lost on restart.
type RetryEntry struct {
	Type       ActivityType           `json:"type"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   string                 `json:"target_id,omitempty"`
	TargetName string                 `json:"target_name,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Hints      ClientHints            `json:"hints"`
	Timestamp  time.Time              `json:"timestamp"`
	RetryCount int                    `json:"retry_count"`
}
