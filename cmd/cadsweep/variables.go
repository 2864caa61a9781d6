package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/cadsweep/cadsweep/pkg/models"
)

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Print the variables of a part studio in the given output format
func writeVariables(w io.Writer, format string, variables models.Variables) error {
	switch format {
	case "json":
		return models.JSONEncoder(w).Encode(variables)
	case "env":
		for _, v := range variables {
			fmt.Fprintf(w, "# %s\n", shellescape.Quote(v.Name))
			fmt.Fprintf(w, "export %s=%s\n\n",
				envName(v.Name),
				shellescape.Quote(v.Expression),
			)
		}
		return nil
	default:
		for _, v := range variables {
			line := fmt.Sprintf("%s: %s", v.Name, v.Expression)
			if v.Units != "" {
				line += " " + v.Units
			}
			fmt.Fprintln(w, line)
		}
		return nil
	}
}

// Shell variable name for a variable, e.g. "wall thickness" -> CADSWEEP_WALL_THICKNESS
func envName(name string) string {
	return "CADSWEEP_" + strings.ToUpper(nonIdentifier.ReplaceAllString(name, "_"))
}
