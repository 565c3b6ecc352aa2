package a2a

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

func longRunningCall(name, id string, args map[string]interface{}) *protocol.DataPart {
	payload := map[string]interface{}{"name": name}
	if args != nil {
		payload["args"] = args
	}
	if id != "" {
		payload["id"] = id
	}
	return &protocol.DataPart{
		Kind: protocol.KindData,
		Data: payload,
		Metadata: map[string]interface{}{
			"kagent_type":            "function_call",
			"kagent_is_long_running": true,
		},
	}
}

func TestExtractApprovalRequests(t *testing.T) {
	tests := []struct {
		name  string
		parts []protocol.Part
		want  []ApprovalRequest
	}{
		{
			name:  "no parts",
			parts: nil,
			want:  nil,
		},
		{
			name: "single long-running call",
			parts: []protocol.Part{
				longRunningCall("delete_pod", "call-1", map[string]interface{}{"pod": "api-0"}),
			},
			want: []ApprovalRequest{
				{ToolName: "delete_pod", Args: map[string]interface{}{"pod": "api-0"}, CallID: "call-1"},
			},
		},
		{
			name: "order is preserved",
			parts: []protocol.Part{
				longRunningCall("first", "1", nil),
				longRunningCall("second", "2", nil),
			},
			want: []ApprovalRequest{
				{ToolName: "first", CallID: "1"},
				{ToolName: "second", CallID: "2"},
			},
		},
		{
			name: "text parts are skipped",
			parts: []protocol.Part{
				&protocol.TextPart{Kind: protocol.KindText, Text: "please approve"},
				longRunningCall("tool", "1", nil),
			},
			want: []ApprovalRequest{{ToolName: "tool", CallID: "1"}},
		},
		{
			name: "non long-running calls are skipped",
			parts: []protocol.Part{
				&protocol.DataPart{
					Kind:     protocol.KindData,
					Data:     map[string]interface{}{"name": "fast_tool"},
					Metadata: map[string]interface{}{"kagent_type": "function_call"},
				},
			},
			want: nil,
		},
		{
			name: "legacy adk long-running marker is honored",
			parts: []protocol.Part{
				&protocol.DataPart{
					Kind:     protocol.KindData,
					Data:     map[string]interface{}{"name": "old_tool", "id": "7"},
					Metadata: map[string]interface{}{"adk_is_long_running": true},
				},
			},
			want: []ApprovalRequest{{ToolName: "old_tool", CallID: "7"}},
		},
		{
			name: "euc sentinel is never an approval",
			parts: []protocol.Part{
				longRunningCall(RequestEUCFunctionName, "euc-1", nil),
				longRunningCall("real_tool", "1", nil),
			},
			want: []ApprovalRequest{{ToolName: "real_tool", CallID: "1"}},
		},
		{
			name: "nameless part is dropped silently",
			parts: []protocol.Part{
				&protocol.DataPart{
					Kind:     protocol.KindData,
					Data:     map[string]interface{}{"args": map[string]interface{}{}},
					Metadata: map[string]interface{}{"kagent_is_long_running": true},
				},
			},
			want: nil,
		},
		{
			name: "non-map payload is dropped silently",
			parts: []protocol.Part{
				&protocol.DataPart{
					Kind:     protocol.KindData,
					Data:     "broken",
					Metadata: map[string]interface{}{"kagent_is_long_running": true},
				},
			},
			want: nil,
		},
		{
			name: "value form data part",
			parts: []protocol.Part{
				protocol.DataPart{
					Kind:     protocol.KindData,
					Data:     map[string]interface{}{"name": "by_value"},
					Metadata: map[string]interface{}{"kagent_is_long_running": true},
				},
			},
			want: []ApprovalRequest{{ToolName: "by_value"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractApprovalRequests(tt.parts))
		})
	}
}

func TestBuildToolApprovalMessage(t *testing.T) {
	requests := []ApprovalRequest{
		{ToolName: "delete_pod", Args: map[string]interface{}{"pod": "api-0"}, CallID: "call-1"},
		{ToolName: "scale_deployment", CallID: "call-2"},
	}

	msg := BuildToolApprovalMessage(requests)

	assert.Equal(t, protocol.MessageRoleAgent, msg.Role)
	require.Len(t, msg.Parts, 3)

	summary, ok := msg.Parts[0].(*protocol.TextPart)
	require.True(t, ok)
	assert.Contains(t, summary.Text, "delete_pod")
	assert.Contains(t, summary.Text, "scale_deployment")

	for i, request := range requests {
		dataPart, ok := msg.Parts[i+1].(*protocol.DataPart)
		require.True(t, ok)
		assert.Equal(t, "tool_approval_request", dataPart.Metadata["kagent_type"])
		assert.Equal(t, true, dataPart.Metadata["kagent_is_long_running"])

		payload, ok := dataPart.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, request.ToolName, payload["name"])
		assert.Equal(t, request.CallID, payload["id"])
	}
}

// The approval message must survive its own extraction so a resumed task sees
// the same pending calls the pause surfaced.
func TestApprovalMessageRoundTrip(t *testing.T) {
	original := []ApprovalRequest{
		{ToolName: "apply_manifest", Args: map[string]interface{}{"file": "deploy.yaml"}, CallID: "c1"},
	}

	msg := BuildToolApprovalMessage(original)
	extracted := ExtractApprovalRequests(msg.Parts)

	assert.Equal(t, original, extracted)
}
