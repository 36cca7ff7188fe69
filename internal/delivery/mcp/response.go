package mcp

import (
	"encoding/json"
	"fmt"
)

// TextContent represents a text content item in a response
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the MCP tool result returned to clients
type Response struct {
	Content  []TextContent          `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewResponse creates a new empty Response
func NewResponse() *Response {
	return &Response{
		Content: make([]TextContent, 0),
	}
}

// WithText adds a text content item to the response
func (r *Response) WithText(text string) *Response {
	r.Content = append(r.Content, TextContent{
		Type: "text",
		Text: text,
	})
	return r
}

// WithMetadata adds metadata to the response
func (r *Response) WithMetadata(key string, value interface{}) *Response {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}

// Text joins the text items of the response
func (r *Response) Text() string {
	out := ""
	for i, c := range r.Content {
		if i > 0 {
			out += "\n"
		}
		out += c.Text
	}
	return out
}

// FromString creates a response from a string
func FromString(text string) *Response {
	return NewResponse().WithText(text)
}

// FormatResponse converts a handler result to a Response. Errors pass
// through untouched.
func FormatResponse(response interface{}, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}

	switch v := response.(type) {
	case nil:
		return NewResponse(), nil
	case *Response:
		if v == nil {
			return NewResponse(), nil
		}
		return v, nil
	case string:
		if v == "" {
			return NewResponse(), nil
		}
		return FromString(v), nil
	case map[string]interface{}:
		if len(v) == 0 {
			return NewResponse(), nil
		}
		if content, ok := v["content"].([]interface{}); ok && len(content) > 0 {
			return v, nil
		}
	}

	data, jsonErr := json.Marshal(response)
	if jsonErr != nil {
		return FromString(fmt.Sprintf("%v", response)), nil
	}
	return FromString(string(data)), nil
}
