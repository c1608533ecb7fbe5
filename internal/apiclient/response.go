package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotJSON возвращается при попытке разобрать текстовый ответ как JSON.
var ErrNotJSON = errors.New("apiclient: response is not JSON")

// Response хранит тело ответа: разобранный JSON или сырой текст, в зависимости от Content-Type.
type Response struct {
	Status int
	Header http.Header

	raw    []byte
	isJSON bool
	value  any
}

func newResponse(status int, header http.Header, raw []byte) (*Response, error) {
	r := &Response{Status: status, Header: header, raw: raw}
	if !strings.Contains(header.Get("Content-Type"), "application/json") {
		return r, nil
	}
	r.isJSON = true
	if len(bytes.TrimSpace(raw)) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r.value); err != nil {
		r.isJSON = false
		return r, fmt.Errorf("decode JSON body: %w", err)
	}
	return r, nil
}

// IsJSON сообщает, был ли ответ разобран как JSON.
func (r *Response) IsJSON() bool { return r.isJSON }

// Value возвращает разобранный JSON (map, slice или скаляр); для текста: nil.
func (r *Response) Value() any { return r.value }

// Text возвращает тело ответа как есть.
func (r *Response) Text() string { return string(r.raw) }

// Decode разбирает JSON-ответ в v.
func (r *Response) Decode(v any) error {
	if !r.isJSON {
		return ErrNotJSON
	}
	if len(bytes.TrimSpace(r.raw)) == 0 {
		return fmt.Errorf("%w: empty body", ErrNotJSON)
	}
	return json.Unmarshal(r.raw, v)
}

// Field возвращает строковое поле верхнего уровня JSON-объекта.
func (r *Response) Field(name string) (string, bool) {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[name].(string)
	return s, ok
}

// Has сообщает, есть ли в JSON-объекте непустое поле name.
func (r *Response) Has(name string) bool {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return false
	}
	v, ok := obj[name]
	return ok && v != nil
}

func (r *Response) message() string {
	msg, _ := r.Field("message")
	return msg
}

// data возвращает значение для Error.Data: разобранный JSON или текст.
func (r *Response) data() any {
	if r.isJSON {
		return r.value
	}
	return r.Text()
}

// DecodeAs разбирает JSON-ответ в значение типа T.
func DecodeAs[T any](r *Response) (T, error) {
	var out T
	if r == nil {
		return out, ErrNotJSON
	}
	if err := r.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
