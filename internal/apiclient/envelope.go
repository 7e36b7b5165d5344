package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageMeta carries paging information when the backend wraps a listing.
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Envelope is the single response shape call sites see. The backend
// answers either with a bare value, a bare array, or {"data":..,"meta":..};
// decodeEnvelope folds all three into this type.
type Envelope[T any] struct {
	Data T
	Meta *PageMeta
}

func decodeEnvelope[T any](body []byte) (Envelope[T], error) {
	var env Envelope[T]
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return env, nil
	}

	if body[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return env, fmt.Errorf("decode response: %w", err)
		}
		if data, ok := wrapper["data"]; ok && isWrapper(wrapper) {
			if err := json.Unmarshal(data, &env.Data); err != nil {
				return env, fmt.Errorf("decode response data: %w", err)
			}
			if meta, ok := wrapper["meta"]; ok && !bytes.Equal(bytes.TrimSpace(meta), []byte("null")) {
				env.Meta = &PageMeta{}
				if err := json.Unmarshal(meta, env.Meta); err != nil {
					return env, fmt.Errorf("decode response meta: %w", err)
				}
			}
			return env, nil
		}
	}

	if err := json.Unmarshal(body, &env.Data); err != nil {
		return env, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}

// isWrapper distinguishes {"data":..} envelopes from resources that happen
// to have a "data" field: an envelope carries nothing but data, meta and
// an optional message or pagination counters.
func isWrapper(fields map[string]json.RawMessage) bool {
	for key := range fields {
		switch key {
		case "data", "meta", "message", "success", "total", "page", "limit":
		default:
			return false
		}
	}
	if _, ok := fields["meta"]; !ok {
		if _, hasTotal := fields["total"]; hasTotal {
			fields["meta"] = flatMeta(fields)
		}
	}
	return true
}

func flatMeta(fields map[string]json.RawMessage) json.RawMessage {
	meta := map[string]json.RawMessage{}
	for _, key := range []string{"page", "limit", "total"} {
		if v, ok := fields[key]; ok {
			meta[key] = v
		}
	}
	raw, _ := json.Marshal(meta)
	return raw
}
