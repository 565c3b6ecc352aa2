package converters

import (
	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// RequestConverter converts inbound A2A requests to runtime RunArgs through a
// pluggable inbound part codec.
type RequestConverter struct {
	convertPart func(part protocol.Part) (*Part, error)
}

// NewRequestConverter creates a RequestConverter using the kagent part codec.
func NewRequestConverter() *RequestConverter {
	return NewRequestConverterWith(NewBridgeConverter().ConvertA2APartToPart)
}

// NewRequestConverterWith creates a RequestConverter over a custom inbound
// part converter. A (nil, nil) converter result drops the part.
func NewRequestConverterWith(convert func(part protocol.Part) (*Part, error)) *RequestConverter {
	return &RequestConverter{convertPart: convert}
}

// Convert converts an A2A request context to RunArgs. The request's user and
// session identifiers must already be bound by the before-execution callback.
func (c *RequestConverter) Convert(reqCtx *RequestContext) (*RunArgs, error) {
	if reqCtx == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "request context is required", nil)
	}

	var content *Content
	if reqCtx.Message != nil {
		converted, err := c.ConvertMessage(reqCtx.Message)
		if err != nil {
			return nil, err
		}
		content = converted
	}

	return &RunArgs{
		UserID:     reqCtx.UserID,
		SessionID:  reqCtx.SessionID,
		NewMessage: content,
	}, nil
}

// ConvertMessage converts an A2A message to runtime content.
func (c *RequestConverter) ConvertMessage(msg *protocol.Message) (*Content, error) {
	var parts []*Part
	for _, a2aPart := range msg.Parts {
		part, err := c.convertPart(a2aPart)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "failed to convert message part", err)
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	role := "user"
	if msg.Role == protocol.MessageRoleAgent {
		role = "assistant"
	}

	return &Content{
		Role:  role,
		Parts: parts,
	}, nil
}
