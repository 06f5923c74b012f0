package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const recordSeparator = 0x1e

// hub protocol message types.
const (
	typeInvocation       = 1
	typeStreamItem       = 2
	typeCompletion       = 3
	typeStreamInvocation = 4
	typeCancelInvocation = 5
	typePing             = 6
	typeClose            = 7
)

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

type message struct {
	Type           int               `json:"type"`
	Target         string            `json:"target,omitempty"`
	InvocationID   string            `json:"invocationId,omitempty"`
	Arguments      []json.RawMessage `json:"arguments,omitempty"`
	Error          string            `json:"error,omitempty"`
	AllowReconnect bool              `json:"allowReconnect,omitempty"`
}

type transport struct {
	Transport       string   `json:"transport"`
	TransferFormats []string `json:"transferFormats"`
}

type negotiateResponse struct {
	NegotiateVersion    int         `json:"negotiateVersion"`
	ConnectionID        string      `json:"connectionId"`
	ConnectionToken     string      `json:"connectionToken"`
	AvailableTransports []transport `json:"availableTransports"`
	URL                 string      `json:"url,omitempty"`
	AccessToken         string      `json:"accessToken,omitempty"`
	Error               string      `json:"error,omitempty"`
}

func (n *negotiateResponse) id() string {
	if n.NegotiateVersion >= 1 && n.ConnectionToken != "" {
		return n.ConnectionToken
	}

	return n.ConnectionID
}

func (n *negotiateResponse) supportsWebSockets() bool {
	if len(n.AvailableTransports) == 0 {
		return true
	}

	for _, t := range n.AvailableTransports {
		if t.Transport == "WebSockets" {
			return true
		}
	}

	return false
}

// encodeRecord marshals v and appends the record separator.
func encodeRecord(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return append(raw, recordSeparator), nil
}

// splitRecords returns the non-empty records in a frame. A frame may carry several.
func splitRecords(frame []byte) [][]byte {
	parts := bytes.Split(frame, []byte{recordSeparator})

	out := parts[:0]
	for _, p := range parts {
		if len(bytes.TrimSpace(p)) > 0 {
			out = append(out, p)
		}
	}

	return out
}

// Decode unmarshals argument i of an invocation into out.
func Decode(args []json.RawMessage, i int, out any) error {
	if i < 0 || i >= len(args) {
		return fmt.Errorf("argument %d missing, got %d", i, len(args))
	}

	return json.Unmarshal(args[i], out)
}
