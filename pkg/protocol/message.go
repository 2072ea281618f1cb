package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	errMissingField = errors.New("missing required field")
	errNullField    = errors.New("field is null")
	errEmptyVersion = errors.New("version must not be empty")
	errNotObject    = errors.New("message must be a JSON object")
)

// Request is a message sent by the connecting peer
type Request struct {
	Version Version
	Method  Method
	Headers *Headers
	URI     string
	Content string
}

// NewRequest creates a request for the current protocol version
func NewRequest(method Method, uri string) *Request {
	return &Request{
		Version: CurrentVersion,
		Method:  method,
		Headers: NewHeaders(),
		URI:     uri,
	}
}

// SetVersion sets the version tag
func (r *Request) SetVersion(v Version) *Request {
	r.Version = v
	return r
}

// SetMethod sets the request method
func (r *Request) SetMethod(m Method) *Request {
	r.Method = m
	return r
}

// SetURI sets the resource path
func (r *Request) SetURI(uri string) *Request {
	r.URI = uri
	return r
}

// SetContent sets the text payload. content must be valid UTF-8; invalid
// bytes are replaced with U+FFFD by Build, so encode binary data first.
func (r *Request) SetContent(content string) *Request {
	r.Content = content
	return r
}

// AddHeader appends a header, failing with ErrDuplicateHeader if key exists
func (r *Request) AddHeader(key, value string) error {
	if r.Headers == nil {
		r.Headers = NewHeaders()
	}
	return r.Headers.Add(key, value)
}

// Header returns the value of a header
func (r *Request) Header(key string) (string, bool) {
	return r.Headers.Get(key)
}

// Clone returns a deep copy of r
func (r *Request) Clone() *Request {
	out := *r
	out.Headers = r.Headers.Clone()
	return &out
}

// Equal compares two requests field by field, including header order
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Version == other.Version &&
		r.Method == other.Method &&
		r.URI == other.URI &&
		r.Content == other.Content &&
		r.Headers.Equal(other.Headers)
}

// Build encodes the request. It never fails. Invalid UTF-8 in string
// fields is replaced with U+FFFD.
func (r *Request) Build() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"version":`)
	writeJSONString(&buf, string(r.Version))
	buf.WriteString(`,"method":`)
	writeJSONString(&buf, string(r.Method))
	buf.WriteString(`,"headers":`)
	r.Headers.writeJSON(&buf)
	buf.WriteString(`,"uri":`)
	writeJSONString(&buf, r.URI)
	buf.WriteString(`,"content":`)
	writeJSONString(&buf, r.Content)
	buf.WriteByte('}')
	return buf.Bytes()
}

func (r *Request) String() string {
	return string(r.Build())
}

// ParseRequest decodes one complete request
func ParseRequest(data []byte) (*Request, error) {
	const kind = "request"

	obj, err := decodeObject(kind, data, "version", "method", "headers", "uri", "content")
	if err != nil {
		return nil, err
	}

	r := &Request{Headers: NewHeaders()}
	if r.Version, err = decodeVersion(kind, obj); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "method", &r.Method); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "headers", r.Headers); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "uri", &r.URI); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "content", &r.Content); err != nil {
		return nil, err
	}
	return r, nil
}

// Response is a message sent by the accepting peer
type Response struct {
	Version Version
	Status  Status
	Headers *Headers
	Content string
}

// NewResponse creates a response for the current protocol version
func NewResponse(status Status) *Response {
	return &Response{
		Version: CurrentVersion,
		Status:  status,
		Headers: NewHeaders(),
	}
}

// SetVersion sets the version tag
func (r *Response) SetVersion(v Version) *Response {
	r.Version = v
	return r
}

// SetStatus sets the response status
func (r *Response) SetStatus(s Status) *Response {
	r.Status = s
	return r
}

// SetContent sets the text payload. content must be valid UTF-8; invalid
// bytes are replaced with U+FFFD by Build, so encode binary data first.
func (r *Response) SetContent(content string) *Response {
	r.Content = content
	return r
}

// AddHeader appends a header, failing with ErrDuplicateHeader if key exists
func (r *Response) AddHeader(key, value string) error {
	if r.Headers == nil {
		r.Headers = NewHeaders()
	}
	return r.Headers.Add(key, value)
}

// Header returns the value of a header
func (r *Response) Header(key string) (string, bool) {
	return r.Headers.Get(key)
}

// Clone returns a deep copy of r
func (r *Response) Clone() *Response {
	out := *r
	out.Headers = r.Headers.Clone()
	return &out
}

// Equal compares two responses field by field, including header order
func (r *Response) Equal(other *Response) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Version == other.Version &&
		r.Status == other.Status &&
		r.Content == other.Content &&
		r.Headers.Equal(other.Headers)
}

// Build encodes the response. It never fails. Invalid UTF-8 in string
// fields is replaced with U+FFFD.
func (r *Response) Build() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"version":`)
	writeJSONString(&buf, string(r.Version))
	buf.WriteString(`,"status":`)
	writeJSONString(&buf, string(r.Status))
	buf.WriteString(`,"headers":`)
	r.Headers.writeJSON(&buf)
	buf.WriteString(`,"content":`)
	writeJSONString(&buf, r.Content)
	buf.WriteByte('}')
	return buf.Bytes()
}

func (r *Response) String() string {
	return string(r.Build())
}

// ParseResponse decodes one complete response
func ParseResponse(data []byte) (*Response, error) {
	const kind = "response"

	obj, err := decodeObject(kind, data, "version", "status", "headers", "content")
	if err != nil {
		return nil, err
	}

	r := &Response{Headers: NewHeaders()}
	if r.Version, err = decodeVersion(kind, obj); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "status", &r.Status); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "headers", r.Headers); err != nil {
		return nil, err
	}
	if err := decodeField(kind, obj, "content", &r.Content); err != nil {
		return nil, err
	}
	return r, nil
}

// decodeObject splits a JSON object into raw fields and checks that every
// required field is present and not null. Field names match exactly.
func decodeObject(kind string, data []byte, required ...string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &ParseError{Kind: kind, Err: err}
	}
	if obj == nil {
		return nil, &ParseError{Kind: kind, Err: errNotObject}
	}
	for _, name := range required {
		raw, ok := obj[name]
		if !ok {
			return nil, &ParseError{Kind: kind, Field: name, Err: errMissingField}
		}
		if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
			return nil, &ParseError{Kind: kind, Field: name, Err: errNullField}
		}
	}
	return obj, nil
}

func decodeField(kind string, obj map[string]json.RawMessage, name string, v any) error {
	if err := json.Unmarshal(obj[name], v); err != nil {
		return &ParseError{Kind: kind, Field: name, Err: err}
	}
	return nil
}

func decodeVersion(kind string, obj map[string]json.RawMessage) (Version, error) {
	var v string
	if err := decodeField(kind, obj, "version", &v); err != nil {
		return "", err
	}
	if v == "" {
		return "", &ParseError{Kind: kind, Field: "version", Err: errEmptyVersion}
	}
	return Version(v), nil
}
