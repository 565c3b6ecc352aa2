package converters

import (
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// BridgeConverter is the kagent-specific part codec. It layers two behaviors
// on top of the structural PartConverter: outbound, it stamps kagent metadata
// and suppresses empty data parts produced by streaming cleanup; inbound, it
// dispatches kagent-typed data parts to an explicit decoder before falling
// back to the structural conversion.
type BridgeConverter struct {
	base *PartConverter
}

// NewBridgeConverter creates a new BridgeConverter
func NewBridgeConverter() *BridgeConverter {
	return &BridgeConverter{base: NewPartConverter()}
}

// ConvertPartToA2A converts a runtime content part to its A2A wire form.
// longRunningToolIDs is the set of tool-call IDs the source event marked as
// long-running; it may be nil. A (nil, nil) return means the part produced
// nothing and the caller must emit nothing for this step.
func (c *BridgeConverter) ConvertPartToA2A(part *Part, longRunningToolIDs map[string]bool) (protocol.Part, error) {
	a2aPart, err := c.base.ConvertContentPart(part)
	if err != nil {
		return nil, err
	}

	dataPart, ok := a2aPart.(*protocol.DataPart)
	if !ok {
		return a2aPart, nil
	}

	// Streaming cleanup signals from the runtime surface as data parts with
	// an empty payload; they carry no information and must not reach the wire.
	payload, _ := dataPart.Data.(map[string]interface{})
	if len(payload) == 0 {
		return nil, nil
	}

	if dataPart.Metadata == nil {
		dataPart.Metadata = make(map[string]interface{})
	}
	switch part.Type {
	case PartTypeFunctionCall:
		dataPart.Metadata[KAgentMetadataKey(MetadataKeyType)] = MetadataTypeFunctionCall
		if data, ok := part.Data.(*FunctionCallData); ok && longRunningToolIDs[data.ID] {
			dataPart.Metadata[KAgentMetadataKey(MetadataKeyIsLongRunning)] = true
		}
	case PartTypeFunctionResponse:
		dataPart.Metadata[KAgentMetadataKey(MetadataKeyType)] = MetadataTypeFunctionResponse
	}

	return dataPart, nil
}

// ConvertA2APartToPart converts an A2A wire part to a runtime content part.
// Data parts typed under the kagent metadata family are decoded explicitly;
// everything else, including legacy adk-typed parts and plain text, is
// delegated to the structural converter.
func (c *BridgeConverter) ConvertA2APartToPart(a2aPart protocol.Part) (*Part, error) {
	if a2aPart == nil {
		return nil, nil
	}

	var dataPart *protocol.DataPart
	switch p := a2aPart.(type) {
	case *protocol.DataPart:
		dataPart = p
	case protocol.DataPart:
		dataPart = &p
	}

	if dataPart != nil && dataPart.Metadata != nil {
		if typ, ok := dataPart.Metadata[KAgentMetadataKey(MetadataKeyType)].(string); ok {
			part, err := decodeTypedDataPart(dataPart, typ)
			if err != nil {
				return nil, err
			}
			if part != nil {
				return part, nil
			}
			// Unrecognized kagent type or unusable payload: compatibility
			// path through the structural converter.
		}
	}

	return c.base.ConvertA2APart(a2aPart)
}

// decodeTypedDataPart decodes a data part whose declared type is typ.
// A nil part decodes to (nil, nil). A (nil, nil) return for a non-nil part
// means the part is not decodable under typ and the caller should fall back
// to structural conversion. Malformed args/response payloads degrade to an
// empty mapping; this path reads potentially stale session history and
// partial data beats no data.
func decodeTypedDataPart(p *protocol.DataPart, typ string) (*Part, error) {
	if p == nil {
		return nil, nil
	}

	payload, _ := p.Data.(map[string]interface{})

	switch typ {
	case MetadataTypeFunctionCall:
		name, _ := payload["name"].(string)
		if name == "" {
			return nil, nil
		}
		data := &FunctionCallData{Name: name}
		if args, ok := payload["args"].(map[string]interface{}); ok {
			data.Args = args
		} else {
			data.Args = map[string]interface{}{}
		}
		if id, ok := payload["id"].(string); ok && id != "" {
			data.ID = id
		}
		return &Part{Type: PartTypeFunctionCall, Data: data}, nil

	case MetadataTypeFunctionResponse:
		name, _ := payload["name"].(string)
		if name == "" {
			return nil, nil
		}
		data := &FunctionResponseData{Name: name}
		if response, ok := payload["response"].(map[string]interface{}); ok {
			data.Response = response
		} else {
			data.Response = map[string]interface{}{}
		}
		if id, ok := payload["id"].(string); ok && id != "" {
			data.ID = id
		}
		return &Part{Type: PartTypeFunctionResponse, Data: data}, nil

	default:
		return nil, nil
	}
}
