package tools

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title turns a snake_case tool name into its display title:
// get_cluster_addons becomes "Get Cluster Addons".
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
