package logger

import "time"

// Field names shared by every component so log queries stay uniform.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldSessionKey = "session_key"
	FieldStep       = "step"
	FieldCacheKey   = "cache_key"
	FieldOperation  = "operation"
	FieldOutcome    = "outcome"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
)

// Fields pairs up alternating keys and values. Non-string keys and a trailing
// key without a value are dropped.
//
//	log.Info("snapshot saved", logger.Fields(logger.FieldSessionKey, key))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if k, ok := kvs[i-1].(string); ok {
			m[k] = kvs[i]
		}
	}
	return m
}

// DurationFields records how long op took, in milliseconds.
func DurationFields(op string, d time.Duration) map[string]any {
	return Fields(FieldOperation, op, FieldDuration, d.Milliseconds())
}

// MergeWithError sets the error field on fields, allocating when nil.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields[FieldError] = err.Error()
	return fields
}
