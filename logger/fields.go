package logger

import (
	"time"
)

// Standard field keys used across flowkit.
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldNodeID      = "node_id"
	FieldNodeType    = "node_type"
	FieldNodeLabel   = "node_label"
	FieldCacheResult = "cache"
	FieldCacheReason = "cache_reason"
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldAttempt     = "attempt"
)

// Fields builds a map from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("node_id", id, "cache", "hit"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
