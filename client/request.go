package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

const (
	ContentTypeJSON = "application/json"

	headerRequestID = "X-Request-ID"
)

// Request is a replayable API call. The body is held as bytes so the
// request can be sent again unchanged after a token refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header

	// SkipAuth requests never carry a bearer token and never trigger a
	// refresh. Used for login, registration, refresh and verification.
	SkipAuth bool
}

func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path}
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	req := NewRequest(method, path)
	if body == nil {
		return req, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("NewJSONRequest encode %s %s: %w", method, path, err)
	}
	req.Body = data
	req.ContentType = ContentTypeJSON
	return req, nil
}

// FilePart is the file field of a multipart request.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// NewMultipartRequest builds a multipart/form-data POST. The whole form is
// buffered so it can be replayed.
func NewMultipartRequest(path string, fields map[string]string, file *FilePart) (*Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("NewMultipartRequest field %s: %w", name, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, fmt.Errorf("NewMultipartRequest file: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("NewMultipartRequest copy: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("NewMultipartRequest close: %w", err)
	}
	return &Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}, nil
}

func (r *Request) WithQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set(key, value)
	return r
}

func (r *Request) WithoutAuth() *Request {
	r.SkipAuth = true
	return r
}

// Response is a completed 2xx response with its body read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("Response.Decode: %w", err)
	}
	return nil
}
