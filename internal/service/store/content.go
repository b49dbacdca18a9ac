package store

import (
	"encoding/json"
	"fmt"

	"github.com/jgivc/sitestore/internal/common"
)

// Content is a payload storable as an analysis output. Callers pick the
// variant at construction time: Text, Bytes or JSON.
type Content interface {
	render() ([]byte, error)
}

type textContent string

func (c textContent) render() ([]byte, error) {
	return []byte(c), nil
}

type bytesContent []byte

func (c bytesContent) render() ([]byte, error) {
	return []byte(c), nil
}

type jsonContent struct {
	v any
}

func (c jsonContent) render() ([]byte, error) {
	data, err := json.MarshalIndent(c.v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot marshal content: %w", err)
	}

	return data, nil
}

// Text is written verbatim as UTF-8 text.
func Text(s string) Content {
	return textContent(s)
}

// Bytes is written verbatim as binary.
func Bytes(b []byte) Content {
	return bytesContent(b)
}

// JSON is serialized as indented JSON.
func JSON(v any) Content {
	return jsonContent{v: v}
}

// ContentOf adapts an untyped payload for callers that hold one: structured
// mappings become JSON, strings text, byte slices binary. Anything else is
// common.ErrUnsupportedContent.
func ContentOf(v any) (Content, error) {
	switch c := v.(type) {
	case Content:
		return c, nil
	case string:
		return Text(c), nil
	case []byte:
		return Bytes(c), nil
	case map[string]any:
		return JSON(c), nil
	case map[string]string:
		return JSON(c), nil
	default:
		return nil, fmt.Errorf("%w: %T", common.ErrUnsupportedContent, v)
	}
}
