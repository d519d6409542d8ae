package aukro

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Request is the parameter map sent with a remote procedure call
type Request map[string]any

// Response is the decoded body of a remote procedure response. Its shape depends on the procedure.
type Response map[string]any

// SessionRecord is the result of a successful doLoginEnc call
type SessionRecord struct {
	SessionHandlePart string   `json:"sessionHandlePart" mapstructure:"sessionHandlePart"`
	UserID            int64    `json:"userId" mapstructure:"userId"`
	ServerTime        int64    `json:"serverTime" mapstructure:"serverTime"`
	Raw               Response `json:"raw,omitempty" mapstructure:"-"`
}

// SysStatus is the result of doQuerySysStatus
type SysStatus struct {
	Info   string `json:"info" mapstructure:"info"`
	VerKey int64  `json:"verKey" mapstructure:"verKey"`
}

// DecodeResponse decodes a generic response into out (a pointer to a struct).
// Leaves arrive as strings from the wire, so conversions are weakly typed.
func DecodeResponse(resp Response, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create response decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(resp)); err != nil {
		return fmt.Errorf("response struct decode: %w", err)
	}
	return nil
}

func (r Request) clone() Request {
	out := make(Request, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
