package file

import (
	"database/sql/driver"
	"fmt"
)

// Content is the whiteboard document blob. Its internal shape belongs to the
// external whiteboard format; this core stores and returns it verbatim and
// never interprets it.
type Content []byte

// DefaultContent is the empty canvas a file starts with when created without
// an explicit document.
var DefaultContent = Content(`{"elements":[],"appState":{"viewBackgroundColor":"#ffffff"},"files":{}}`)

func (c Content) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return string(c), nil
}

func (c *Content) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append((*c)[:0], v...)
	case string:
		*c = Content(v)
	default:
		return fmt.Errorf("unsupported content column type %T", value)
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *Content) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], data...)
	return nil
}

// Clone returns an independent copy so a checkpoint can never alias the live
// document's backing array.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	return append(Content(nil), c...)
}
