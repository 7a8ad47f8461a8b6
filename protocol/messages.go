package protocol

import (
	"bytes"
	"encoding/json"
)

// Request is a single request line.
//
// Decoding is lenient: any syntactically valid JSON value decodes without
// error. Non-string or empty ids are dropped, a method that is not a string
// keeps its JSON text, and params that are not an object are ignored.
type Request struct {
	ID     string                     `json:"id,omitempty"`
	Method string                     `json:"method"`
	Params map[string]json.RawMessage `json:"params,omitempty"`
}

// HasID reports whether the caller supplied an id that must be echoed back.
func (r *Request) HasID() bool {
	return r.ID != ""
}

// StringParam returns the named parameter coerced to text. Missing and null
// parameters yield the empty string, strings are returned unquoted and any
// other value is returned as compact JSON.
func (r *Request) StringParam(name string) string {
	return rawText(r.Params[name])
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Request) UnmarshalJSON(data []byte) error {
	*r = Request{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Valid JSON that is not an object carries no id, method or params.
		return nil
	}

	var id string
	if err := json.Unmarshal(fields["id"], &id); err == nil {
		r.ID = id
	}

	r.Method = rawText(fields["method"])

	var params map[string]json.RawMessage
	if err := json.Unmarshal(fields["params"], &params); err == nil {
		r.Params = params
	}

	return nil
}

// ParseRequest decodes one request line. The only failure is invalid JSON,
// reported as a parse error.
func ParseRequest(line []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, NewParseError(err.Error())
	}
	return &req, nil
}

// rawText converts a raw JSON value to text: strings lose their quotes,
// null and missing values become empty, everything else stays JSON.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Response is a single response line. Exactly one of Result and Error is set.
type Response struct {
	ID     string `json:"id,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// NewResponse creates a successful response. An empty id is omitted from the
// encoded line.
func NewResponse(id string, result any) *Response {
	return &Response{
		ID:     id,
		Result: result,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, err *Error) *Response {
	return &Response{
		ID:    id,
		Error: err,
	}
}

// Encode renders the response as a single JSON line terminated by '\n'.
// HTML characters are not escaped.
func (r *Response) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OK is the acknowledgement result shared by interrupt, restart and ping.
func OK() map[string]bool {
	return map[string]bool{"ok": true}
}

// PlainText wraps a value representation in the execute result shape.
func PlainText(text string) map[string]string {
	return map[string]string{MIMEPlainText: text}
}
