package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LegacyIDKey is the identifier key used by catalogs written before the rename to "id".
const LegacyIDKey = "case_id"

// UnmarshalJSON decodes a raw record, migrating the legacy identifier key and
// applying defaults to absent fields.
func (u *UseCase) UnmarshalJSON(data []byte) error {
	type plain UseCase
	aux := struct {
		*plain
		CaseID string `json:"case_id"`
	}{plain: (*plain)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if u.ID == "" {
		u.ID = aux.CaseID
	}
	u.applyDefaults()
	return nil
}

// Parse decodes a single raw record.
func Parse(raw []byte) (*UseCase, error) {
	var u UseCase
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode use case: %w", err)
	}
	return &u, nil
}

// RawID extracts the identifier of a raw record without decoding the rest,
// preferring "id" over the legacy alias. Returns "" when neither is a string.
func RawID(raw []byte) string {
	var ids struct {
		ID     any `json:"id"`
		CaseID any `json:"case_id"`
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return ""
	}
	if s, ok := ids.ID.(string); ok && s != "" {
		return s
	}
	if s, ok := ids.CaseID.(string); ok {
		return s
	}
	return ""
}

// Map returns the present fields keyed by their JSON names. Empty slices are
// kept so that clearing tags or examples survives serialization.
func (f Fields) Map() map[string]any {
	m := make(map[string]any)
	if f.Title != nil {
		m["title"] = *f.Title
	}
	if f.Description != nil {
		m["description"] = *f.Description
	}
	if f.Category != nil {
		m["category"] = *f.Category
	}
	if f.AIModel != nil {
		m["aiModel"] = *f.AIModel
	}
	if f.Prompt != nil {
		m["prompt"] = *f.Prompt
	}
	if f.Tags != nil {
		m["tags"] = f.Tags
	}
	if f.Status != nil {
		m["status"] = string(*f.Status)
	}
	if f.Priority != nil {
		m["priority"] = string(*f.Priority)
	}
	if f.Examples != nil {
		m["examples"] = f.Examples
	}
	if f.Notes != nil {
		m["notes"] = *f.Notes
	}
	if f.ImplementationEffort != nil {
		m["implementationEffort"] = *f.ImplementationEffort
	}
	if f.BusinessBenefit != nil {
		m["businessBenefit"] = *f.BusinessBenefit
	}
	if f.ImplementationStatus != nil {
		m["implementationStatus"] = string(*f.ImplementationStatus)
	}
	if f.GridX != nil {
		m["gridX"] = *f.GridX
	}
	if f.GridY != nil {
		m["gridY"] = *f.GridY
	}
	if f.ClearGridX {
		m["gridX"] = nil
	}
	if f.ClearGridY {
		m["gridY"] = nil
	}
	if f.UpdatedAt != nil {
		m["updatedAt"] = f.UpdatedAt.Format(time.RFC3339Nano)
	}
	return m
}

// Hash serialization
//
// Redis stores records as string-to-string hashes. Slice fields are JSON-encoded
// into single hash fields, timestamps use RFC3339Nano and an unset grid
// coordinate is stored as an empty string.

// ToHash converts a use case to a Redis hash.
func ToHash(u *UseCase) (map[string]interface{}, error) {
	tagsJSON, err := json.Marshal(u.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	examplesJSON, err := json.Marshal(u.Examples)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal examples: %w", err)
	}

	hash := map[string]interface{}{
		"id":                   u.ID,
		"title":                u.Title,
		"description":          u.Description,
		"category":             u.Category,
		"aiModel":              u.AIModel,
		"prompt":               u.Prompt,
		"tags":                 string(tagsJSON),
		"status":               string(u.Status),
		"createdAt":            u.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":            u.UpdatedAt.Format(time.RFC3339Nano),
		"priority":             string(u.Priority),
		"examples":             string(examplesJSON),
		"notes":                u.Notes,
		"implementationEffort": u.ImplementationEffort,
		"businessBenefit":      u.BusinessBenefit,
		"implementationStatus": string(u.ImplementationStatus),
		"gridX":                formatGrid(u.GridX),
		"gridY":                formatGrid(u.GridY),
	}

	return hash, nil
}

// FromHash converts a Redis hash back to a use case. Defaults are applied to
// absent fields exactly as for JSON input.
func FromHash(hash map[string]string) (*UseCase, error) {
	u := &UseCase{
		ID:                   hash["id"],
		Title:                hash["title"],
		Description:          hash["description"],
		Category:             hash["category"],
		AIModel:              hash["aiModel"],
		Prompt:               hash["prompt"],
		Status:               Status(hash["status"]),
		Priority:             Priority(hash["priority"]),
		Notes:                hash["notes"],
		ImplementationStatus: ImplementationStatus(hash["implementationStatus"]),
	}

	if raw := hash["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &u.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if raw := hash["examples"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &u.Examples); err != nil {
			return nil, fmt.Errorf("failed to unmarshal examples: %w", err)
		}
	}

	var err error
	if u.CreatedAt, err = parseTime(hash["createdAt"]); err != nil {
		return nil, fmt.Errorf("invalid createdAt field: %w", err)
	}
	if u.UpdatedAt, err = parseTime(hash["updatedAt"]); err != nil {
		return nil, fmt.Errorf("invalid updatedAt field: %w", err)
	}
	if u.ImplementationEffort, err = parseInt(hash["implementationEffort"]); err != nil {
		return nil, fmt.Errorf("invalid implementationEffort field: %w", err)
	}
	if u.BusinessBenefit, err = parseInt(hash["businessBenefit"]); err != nil {
		return nil, fmt.Errorf("invalid businessBenefit field: %w", err)
	}
	if u.GridX, err = parseGrid(hash["gridX"]); err != nil {
		return nil, fmt.Errorf("invalid gridX field: %w", err)
	}
	if u.GridY, err = parseGrid(hash["gridY"]); err != nil {
		return nil, fmt.Errorf("invalid gridY field: %w", err)
	}

	u.applyDefaults()
	return u, nil
}

func formatGrid(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseGrid(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
