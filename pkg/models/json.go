package models

import (
	"encoding/json"
	"io"
)

// Indented encoder that leaves expression operators such as < and & as is
func JSONEncoder(w io.Writer) *json.Encoder {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	e.SetEscapeHTML(false)
	return e
}
