package converters

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// PartConverter performs the structural, non-kagent-specific conversion
// between A2A parts and generic content parts. Data parts it produces carry
// legacy-family (adk) metadata; the BridgeConverter layers the kagent family
// on top.
type PartConverter struct{}

// NewPartConverter creates a new PartConverter
func NewPartConverter() *PartConverter {
	return &PartConverter{}
}

// ConvertA2AToContent converts A2A message parts to Content parts
func (c *PartConverter) ConvertA2AToContent(a2aParts []protocol.Part) ([]*Part, error) {
	var parts []*Part

	for _, a2aPart := range a2aParts {
		part, err := c.ConvertA2APart(a2aPart)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	return parts, nil
}

// ConvertA2APart converts a single A2A part to a content part.
func (c *PartConverter) ConvertA2APart(a2aPart protocol.Part) (*Part, error) {
	switch p := a2aPart.(type) {
	case *protocol.TextPart:
		return &Part{
			Type: PartTypeText,
			Data: &TextPartData{Text: p.Text},
		}, nil

	case protocol.TextPart:
		return c.ConvertA2APart(&p)

	case *protocol.FilePart:
		return c.convertA2AFilePart(p)

	case protocol.FilePart:
		return c.ConvertA2APart(&p)

	case *protocol.DataPart:
		if typ := MetadataString(p.Metadata, MetadataKeyType); typ != "" {
			if part, err := decodeTypedDataPart(p, typ); part != nil || err != nil {
				return part, err
			}
		}
		// Untyped structured data passes through as a generic data part
		payload, _ := p.Data.(map[string]interface{})
		return &Part{
			Type: PartTypeData,
			Data: payload,
		}, nil

	case protocol.DataPart:
		return c.ConvertA2APart(&p)

	default:
		// Unknown part type - try to handle as JSON
		jsonData, err := json.Marshal(a2aPart)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversion,
				fmt.Sprintf("unsupported part type: %T", a2aPart), nil)
		}
		return &Part{
			Type: PartTypeText,
			Data: &TextPartData{Text: string(jsonData)},
		}, nil
	}
}

func (c *PartConverter) convertA2AFilePart(p *protocol.FilePart) (*Part, error) {
	fileData := &FilePartData{}

	// FileUnion is only ever satisfied by pointers, so two cases cover it
	switch f := p.File.(type) {
	case *protocol.FileWithURI:
		fileData.URI = f.URI
		if f.MimeType != nil {
			fileData.MimeType = *f.MimeType
		}
	case *protocol.FileWithBytes:
		data, err := base64.StdEncoding.DecodeString(f.Bytes)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "invalid file part encoding", err)
		}
		fileData.Data = data
		if f.MimeType != nil {
			fileData.MimeType = *f.MimeType
		}
	default:
		return nil, apperrors.New(apperrors.ErrCodeConversion,
			fmt.Sprintf("unsupported file content type: %T", p.File), nil)
	}

	return &Part{
		Type: PartTypeFile,
		Data: fileData,
	}, nil
}

// ConvertContentToA2A converts Content parts back to A2A parts
func (c *PartConverter) ConvertContentToA2A(parts []*Part) ([]protocol.Part, error) {
	var a2aParts []protocol.Part

	for _, part := range parts {
		a2aPart, err := c.ConvertContentPart(part)
		if err != nil {
			return nil, err
		}
		if a2aPart != nil {
			a2aParts = append(a2aParts, a2aPart)
		}
	}

	return a2aParts, nil
}

// ConvertContentPart converts a single content part to its A2A representation.
// Function-call and function-response data parts carry the legacy (adk) type
// key here; the bridge codec stamps the kagent key on top, so both families
// coexist on outbound parts.
func (c *PartConverter) ConvertContentPart(part *Part) (protocol.Part, error) {
	switch part.Type {
	case PartTypeText:
		data, ok := part.Data.(*TextPartData)
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "invalid text part data", nil)
		}
		return &protocol.TextPart{
			Kind: protocol.KindText,
			Text: data.Text,
		}, nil

	case PartTypeFile:
		data, ok := part.Data.(*FilePartData)
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "invalid file part data", nil)
		}

		var mimeType *string
		if data.MimeType != "" {
			mt := data.MimeType
			mimeType = &mt
		}
		if data.URI != "" {
			return &protocol.FilePart{
				Kind: protocol.KindFile,
				File: &protocol.FileWithURI{URI: data.URI, MimeType: mimeType},
			}, nil
		}
		return &protocol.FilePart{
			Kind: protocol.KindFile,
			File: &protocol.FileWithBytes{
				Bytes:    base64.StdEncoding.EncodeToString(data.Data),
				MimeType: mimeType,
			},
		}, nil

	case PartTypeData:
		payload, _ := part.Data.(map[string]interface{})
		return &protocol.DataPart{
			Kind: protocol.KindData,
			Data: payload,
		}, nil

	case PartTypeFunctionCall:
		data, ok := part.Data.(*FunctionCallData)
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "invalid function call data", nil)
		}

		payload := map[string]interface{}{
			"name": data.Name,
			"args": data.Args,
		}
		if data.ID != "" {
			payload["id"] = data.ID
		}
		return &protocol.DataPart{
			Kind: protocol.KindData,
			Data: payload,
			Metadata: map[string]interface{}{
				ADKMetadataKey(MetadataKeyType): MetadataTypeFunctionCall,
			},
		}, nil

	case PartTypeFunctionResponse:
		data, ok := part.Data.(*FunctionResponseData)
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "invalid function response data", nil)
		}

		payload := map[string]interface{}{
			"name":     data.Name,
			"response": data.Response,
		}
		if data.ID != "" {
			payload["id"] = data.ID
		}
		return &protocol.DataPart{
			Kind: protocol.KindData,
			Data: payload,
			Metadata: map[string]interface{}{
				ADKMetadataKey(MetadataKeyType): MetadataTypeFunctionResponse,
			},
		}, nil

	default:
		// Unknown type - convert to text
		jsonData, err := json.Marshal(part.Data)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversion,
				fmt.Sprintf("failed to convert unknown part type: %s", part.Type), err)
		}
		return &protocol.TextPart{
			Kind: protocol.KindText,
			Text: string(jsonData),
		}, nil
	}
}

// ExtractText extracts all text from content parts
func (c *PartConverter) ExtractText(parts []*Part) string {
	var text string
	for _, part := range parts {
		if part.Type == PartTypeText {
			if data, ok := part.Data.(*TextPartData); ok {
				text += data.Text
			}
		}
	}
	return text
}
