package a2a

import (
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
)

// RequestEUCFunctionName is the reserved function name used by end-user
// confirmation requests. Those are a distinct HITL flow and are never
// surfaced as tool approvals.
const RequestEUCFunctionName = "REQUEST_EUC"

// ApprovalRequest describes one pending long-running tool call awaiting
// human approval. It is rebuilt from raw protocol parts on every
// input-required terminal event and never persisted.
type ApprovalRequest struct {
	ToolName string                 `json:"tool_name"`
	Args     map[string]interface{} `json:"args,omitempty"`
	CallID   string                 `json:"call_id,omitempty"`
}

// ExtractApprovalRequests scans message parts for long-running function
// calls that still await a response and reconstructs approval requests from
// them, preserving part order. Parts that fail extraction are dropped
// silently; partial extraction beats failing the terminal event.
func ExtractApprovalRequests(parts []protocol.Part) []ApprovalRequest {
	var requests []ApprovalRequest

	for _, part := range parts {
		var dataPart *protocol.DataPart
		switch p := part.(type) {
		case *protocol.DataPart:
			dataPart = p
		case protocol.DataPart:
			dataPart = &p
		default:
			continue
		}

		if !converters.MetadataBool(dataPart.Metadata, converters.MetadataKeyIsLongRunning) {
			continue
		}

		payload, _ := dataPart.Data.(map[string]interface{})
		name, _ := payload["name"].(string)
		if name == "" || name == RequestEUCFunctionName {
			continue
		}

		request := ApprovalRequest{ToolName: name}
		if args, ok := payload["args"].(map[string]interface{}); ok {
			request.Args = args
		}
		if id, ok := payload["id"].(string); ok {
			request.CallID = id
		}
		requests = append(requests, request)
	}

	return requests
}

// BuildToolApprovalMessage constructs the agent message presented to the
// user when a task pauses for tool approval. Each request becomes a typed
// data part; a leading text part summarizes the pending calls.
func BuildToolApprovalMessage(requests []ApprovalRequest) protocol.Message {
	names := make([]string, 0, len(requests))
	parts := make([]protocol.Part, 0, len(requests)+1)

	for _, request := range requests {
		names = append(names, request.ToolName)

		payload := map[string]interface{}{
			"name": request.ToolName,
			"args": request.Args,
		}
		if request.CallID != "" {
			payload["id"] = request.CallID
		}
		parts = append(parts, &protocol.DataPart{
			Kind: protocol.KindData,
			Data: payload,
			Metadata: map[string]interface{}{
				converters.KAgentMetadataKey(converters.MetadataKeyType):          "tool_approval_request",
				converters.KAgentMetadataKey(converters.MetadataKeyIsLongRunning): true,
			},
		})
	}

	summary := &protocol.TextPart{
		Kind: protocol.KindText,
		Text: fmt.Sprintf("Approval required for tool call(s): %s", strings.Join(names, ", ")),
	}

	return protocol.NewMessage(protocol.MessageRoleAgent, append([]protocol.Part{summary}, parts...))
}
