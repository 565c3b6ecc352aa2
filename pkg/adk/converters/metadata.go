package converters

// Two metadata-key families coexist on A2A data parts. The ADK layer
// historically wrote "adk_"-prefixed keys; everything written by this bridge
// uses the "kagent_" prefix. Readers must accept both, preferring the
// kagent form, so sessions recorded by older versions stay readable.

const (
	kagentMetadataPrefix = "kagent_"
	adkMetadataPrefix    = "adk_"
)

// Logical metadata key names and type values carried on data parts.
const (
	MetadataKeyType          = "type"
	MetadataKeyIsLongRunning = "is_long_running"

	MetadataTypeFunctionCall     = "function_call"
	MetadataTypeFunctionResponse = "function_response"
)

// KAgentMetadataKey returns the current wire form of a logical metadata key.
// All metadata written by the bridge goes through this function.
func KAgentMetadataKey(key string) string {
	return kagentMetadataPrefix + key
}

// ADKMetadataKey returns the legacy wire form of a logical metadata key.
// It exists only for read compatibility; nothing in this module writes it.
func ADKMetadataKey(key string) string {
	return adkMetadataPrefix + key
}

// MetadataString reads a logical string key from part metadata, checking the
// kagent form first and falling back to the adk form.
func MetadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[KAgentMetadataKey(key)].(string); ok {
		return v
	}
	if v, ok := metadata[ADKMetadataKey(key)].(string); ok {
		return v
	}
	return ""
}

// MetadataBool reports whether a logical bool key is true under either the
// kagent or the adk form.
func MetadataBool(metadata map[string]interface{}, key string) bool {
	if metadata == nil {
		return false
	}
	if v, ok := metadata[KAgentMetadataKey(key)].(bool); ok && v {
		return true
	}
	if v, ok := metadata[ADKMetadataKey(key)].(bool); ok && v {
		return true
	}
	return false
}
