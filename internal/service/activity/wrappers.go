package activity

import (
	"context"
	"encoding/json"

	"github.com/medforce/activity-agent/internal/model"
)

// Typed wrappers for the activities the sales-force dashboard emits. Each
// fixes the type/action pair and fills the default details the backend
// expects, so call sites cannot misspell a tag.

// VisitOptions carries the optional details of a clinic visit.
type VisitOptions struct {
	DurationMinutes *int
	SamplesGiven    int
	Notes           string
	Hints           model.ClientHints
}

func (s *Service) LogVisitRegistration(ctx context.Context, clinicID, clinicName string, opts *VisitOptions) json.RawMessage {
	details := map[string]interface{}{
		"visit_duration": nil,
		"samples_given":  0,
	}
	var hints model.ClientHints
	if opts != nil {
		if opts.DurationMinutes != nil {
			details["visit_duration"] = *opts.DurationMinutes
		}
		details["samples_given"] = opts.SamplesGiven
		if opts.Notes != "" {
			details["notes"] = opts.Notes
		}
		hints = opts.Hints
	}
	return s.LogActivity(ctx, Input{
		Type:       model.TypeVisitRegistration,
		Action:     "Registered a clinic visit",
		TargetType: "clinic",
		TargetID:   clinicID,
		TargetName: clinicName,
		Details:    details,
		Hints:      hints,
	})
}

// ClinicOptions carries the optional details of a clinic registration.
type ClinicOptions struct {
	Classification string
	Area           string
	Hints          model.ClientHints
}

func (s *Service) LogClinicRegistration(ctx context.Context, clinicID, clinicName string, opts *ClinicOptions) json.RawMessage {
	details := map[string]interface{}{
		"classification": "",
		"area":           "",
	}
	var hints model.ClientHints
	if opts != nil {
		details["classification"] = opts.Classification
		details["area"] = opts.Area
		hints = opts.Hints
	}
	return s.LogActivity(ctx, Input{
		Type:       model.TypeClinicRegistration,
		Action:     "Registered a new clinic",
		TargetType: "clinic",
		TargetID:   clinicID,
		TargetName: clinicName,
		Details:    details,
		Hints:      hints,
	})
}

// OrderOptions carries the optional details of an order creation.
type OrderOptions struct {
	ItemCount int
	Warehouse string
	Hints     model.ClientHints
}

func (s *Service) LogOrderCreation(ctx context.Context, orderID, clinicName string, opts *OrderOptions) json.RawMessage {
	details := map[string]interface{}{
		"item_count": 0,
		"warehouse":  "",
	}
	var hints model.ClientHints
	if opts != nil {
		details["item_count"] = opts.ItemCount
		details["warehouse"] = opts.Warehouse
		hints = opts.Hints
	}
	return s.LogActivity(ctx, Input{
		Type:       model.TypeOrderCreation,
		Action:     "Created an order",
		TargetType: "order",
		TargetID:   orderID,
		TargetName: clinicName,
		Details:    details,
		Hints:      hints,
	})
}

// ProductOptions carries the optional details of a product update.
type ProductOptions struct {
	ChangedFields []string
	Hints         model.ClientHints
}

func (s *Service) LogProductUpdate(ctx context.Context, productID, productName string, opts *ProductOptions) json.RawMessage {
	details := map[string]interface{}{
		"changed_fields": []string{},
	}
	var hints model.ClientHints
	if opts != nil {
		if opts.ChangedFields != nil {
			details["changed_fields"] = opts.ChangedFields
		}
		hints = opts.Hints
	}
	return s.LogActivity(ctx, Input{
		Type:       model.TypeProductUpdate,
		Action:     "Updated a product",
		TargetType: "product",
		TargetID:   productID,
		TargetName: productName,
		Details:    details,
		Hints:      hints,
	})
}

// UserOptions carries the optional details of a user creation.
type UserOptions struct {
	Role  string
	Hints model.ClientHints
}

func (s *Service) LogUserCreation(ctx context.Context, userID, username string, opts *UserOptions) json.RawMessage {
	details := map[string]interface{}{
		"role": "",
	}
	var hints model.ClientHints
	if opts != nil {
		details["role"] = opts.Role
		hints = opts.Hints
	}
	return s.LogActivity(ctx, Input{
		Type:       model.TypeUserCreation,
		Action:     "Created a user account",
		TargetType: "user",
		TargetID:   userID,
		TargetName: username,
		Details:    details,
		Hints:      hints,
	})
}

func (s *Service) LogSystemAccess(ctx context.Context, section string, hints model.ClientHints) json.RawMessage {
	return s.LogActivity(ctx, Input{
		Type:   model.TypeSystemAccess,
		Action: "Accessed the system",
		Details: map[string]interface{}{
			"section": section,
		},
		Hints: hints,
	})
}

func (s *Service) LogLogin(ctx context.Context, userID, username string, hints model.ClientHints) json.RawMessage {
	return s.LogActivity(ctx, Input{
		Type:       model.TypeLogin,
		Action:     "Signed in",
		TargetType: "user",
		TargetID:   userID,
		TargetName: username,
		Details: map[string]interface{}{
			"method": "password",
		},
		Hints: hints,
	})
}
