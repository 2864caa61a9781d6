package models

import "fmt"

const APIVersion = "v6"

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Access and secret key sent with every request using HTTP Basic Auth
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Identifies the part studio a sweep operates on
type Document struct {
	DocumentID  string `json:"document_id" yaml:"document_id" validate:"required,len=24,alphanum"`
	WorkspaceID string `json:"workspace_id" yaml:"workspace_id" validate:"required,len=24,alphanum"`
	ElementID   string `json:"element_id" yaml:"element_id" validate:"required,len=24,alphanum"`
}

// Path of the part studio relative to the partstudios API
func (d Document) Path() string {
	return fmt.Sprintf("d/%s/w/%s/e/%s", d.DocumentID, d.WorkspaceID, d.ElementID)
}

type ExportFormat string

const (
	ExportSTEP      ExportFormat = "step"
	ExportParasolid ExportFormat = "parasolid"
)

var ExportFormats = []ExportFormat{ExportSTEP, ExportParasolid}

// File extension of exported geometry, without the dot
func (f ExportFormat) Extension() string {
	switch f {
	case ExportSTEP:
		return "step"
	case ExportParasolid:
		return "x_t"
	}
	return string(f)
}

func (f ExportFormat) Label() string {
	switch f {
	case ExportSTEP:
		return "STEP"
	case ExportParasolid:
		return "Parasolid"
	}
	return string(f)
}
