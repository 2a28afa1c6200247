package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// MIME types understood by the API
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// MaxBodyBytes bounds request bodies
const MaxBodyBytes = 1 << 20

func isMsgpack(mime string) bool {
	return strings.Contains(mime, "msgpack")
}

// RequestIsMsgpack reports whether the body is MessagePack encoded
func RequestIsMsgpack(r *http.Request) bool {
	return isMsgpack(r.Header.Get("Content-Type"))
}

// WantsMsgpack reports whether the client asked for a MessagePack response
func WantsMsgpack(r *http.Request) bool {
	return isMsgpack(r.Header.Get("Accept"))
}

// ReadBody reads at most MaxBodyBytes of the request body
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}
	return data, nil
}

// Unmarshal decodes data into v using the request's content type. Fields
// absent from data keep whatever v already holds. An empty body is a no-op.
func Unmarshal(r *http.Request, data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if RequestIsMsgpack(r) {
		return msgpack.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Encode serialises v in the format the client accepts and returns the
// content type used.
func Encode(r *http.Request, v interface{}) ([]byte, string, error) {
	if WantsMsgpack(r) {
		data, err := msgpack.Marshal(v)
		return data, ContentTypeMsgpack, err
	}
	data, err := json.Marshal(v)
	return data, ContentTypeJSON, err
}
