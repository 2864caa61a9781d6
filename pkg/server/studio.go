package server

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cadsweep/cadsweep/pkg/models"
)

// In-memory part studio holding variables and the ids of its parts
type Studio struct {
	// Only requests for this document are served; a zero value accepts any
	Document models.Document
	Parts    []string
	// Status forced onto exports of a format instead of rendering them
	ExportStatus map[models.ExportFormat]int

	mu        sync.Mutex
	variables models.Variables
	counts    Counts
}

// Requests served by a studio
type Counts struct {
	Reads   int
	Writes  int
	Exports map[models.ExportFormat]int
}

func NewStudio(doc models.Document, variables models.Variables, parts []string) *Studio {
	return &Studio{
		Document:     doc,
		Parts:        parts,
		ExportStatus: map[models.ExportFormat]int{},
		variables:    append(models.Variables{}, variables...),
		counts:       Counts{Exports: map[models.ExportFormat]int{}},
	}
}

func (s *Studio) Serves(did string, wid string, eid string) bool {
	if s.Document == (models.Document{}) {
		return true
	}
	return s.Document == models.Document{DocumentID: did, WorkspaceID: wid, ElementID: eid}
}

func (s *Studio) Variables() models.Variables {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.Reads++
	return append(models.Variables{}, s.variables...)
}

// Replace all variables, which regenerates the studio
func (s *Studio) SetVariables(variables models.Variables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts.Writes++
	s.variables = append(models.Variables{}, variables...)
}

// Set the status answered for exports of format, 0 renders them again
func (s *Studio) FailExports(format models.ExportFormat, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.ExportStatus, format)
		return
	}
	s.ExportStatus[format] = status
}

func (s *Studio) forcedStatus(format models.ExportFormat) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ExportStatus[format]
}

func (s *Studio) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counts
	c.Exports = map[models.ExportFormat]int{}
	for f, n := range s.counts.Exports {
		c.Exports[f] = n
	}
	return c
}

// Render a textual stand-in for the geometry of the selected parts, all parts
// when partIDs is empty.
func (s *Studio) Render(format models.ExportFormat, partIDs []string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := s.Parts
	if len(partIDs) > 0 {
		for _, id := range partIDs {
			if !contains(s.Parts, id) {
				return nil, fmt.Errorf("unknown part id: %s", id)
			}
		}
		parts = partIDs
	}
	s.counts.Exports[format]++

	var b bytes.Buffer
	switch format {
	case models.ExportSTEP:
		b.WriteString("ISO-10303-21;\nHEADER;\nFILE_DESCRIPTION(('cadsweep stub export'),'2;1');\nENDSEC;\nDATA;\n")
		for _, v := range s.variables {
			fmt.Fprintf(&b, "/* %s = %s */\n", v.Name, v.Expression)
		}
		for i, p := range parts {
			fmt.Fprintf(&b, "#%d=PRODUCT('%s','%s','',());\n", i+1, p, p)
		}
		b.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	case models.ExportParasolid:
		b.WriteString("**PART1;\n**cadsweep stub export\n**PART2;SCH=SCH_3400000_34000;\n**PART3;\n")
		for _, v := range s.variables {
			fmt.Fprintf(&b, "**VAR %s=%s\n", v.Name, v.Expression)
		}
		for _, p := range parts {
			fmt.Fprintf(&b, "**BODY %s\n", p)
		}
		b.WriteString("**END_OF_HEADER\n")
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	return b.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
