package realtime

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Kind enumerates the inbound event types the protocol understands. Anything
// else degrades to KindRaw and is echoed to the group verbatim.
type Kind string

const (
	KindUpdate Kind = "update"
	KindPing   Kind = "ping"
	KindImage  Kind = "image"
	KindFile   Kind = "file"
	KindRaw    Kind = "raw"
)

// Inbound is one decoded client event. Envelope carries the original bytes
// (or a raw wrapper for non-JSON input) so failed handling can fall back to
// echoing exactly what arrived.
type Inbound struct {
	Kind     Kind
	Content  string
	Data     string
	Filename string
	Envelope []byte
}

type envelope struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

// ParseInbound decodes a client message. It is total: malformed input never
// yields an error, only a raw event wrapping the original text.
func ParseInbound(data []byte) Inbound {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		wrapped, _ := json.Marshal(map[string]string{"type": "raw", "data": string(data)})
		return Inbound{Kind: KindRaw, Envelope: wrapped}
	}

	in := Inbound{
		Content:  env.Content,
		Data:     env.Data,
		Filename: env.Filename,
		Envelope: data,
	}

	switch Kind(env.Type) {
	case KindUpdate, KindPing, KindImage, KindFile:
		in.Kind = Kind(env.Type)
	default:
		in.Kind = KindRaw
	}
	return in
}

// UpdateEvent mirrors a content change to all subscribers.
type UpdateEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// FileEvent announces a stored attachment to all subscribers.
type FileEvent struct {
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// SessionEndedEvent tells subscribers the owner ended the session.
type SessionEndedEvent struct {
	Type string `json:"type"`
}

var errEmptyPayload = errors.New("empty payload")

// DecodeFilePayload extracts attachment bytes from either a data URI
// ("data:<mime>[;base64],<payload>") or a bare base64 string. The returned
// content type is empty when the payload carried none.
func DecodeFilePayload(data string) ([]byte, string, error) {
	if data == "" {
		return nil, "", errEmptyPayload
	}

	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok {
			return nil, "", errors.New("malformed data URI")
		}
		contentType := strings.TrimPrefix(header, "data:")
		if semi := strings.Index(contentType, ";"); semi >= 0 {
			contentType = contentType[:semi]
		}
		blob, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", err
		}
		return blob, contentType, nil
	}

	blob, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", err
	}
	return blob, "", nil
}
