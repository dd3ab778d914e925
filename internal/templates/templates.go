// Package templates provides the embedded configuration files written by
// ota init.
package templates

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

//go:embed *.yaml
var templatesFS embed.FS

// Default is the template used when none is named.
const Default = "minimal"

// headerPrefix starts the first line of every template; the rest of the
// line is its description.
const headerPrefix = "# ota:"

// Template is an embedded configuration file.
type Template struct {
	Name        string
	Description string
	Content     []byte
}

// Variables returns the environment variables the template reads through
// ${VAR} or ${VAR:-default} placeholders, sorted.
func (t *Template) Variables() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, m := range placeholderPattern.FindAllSubmatch(t.Content, -1) {
		name := string(m[1])
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)
	return vars
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)`)

// List returns the template names, sorted.
func List() []string {
	matches, err := fs.Glob(templatesFS, "*.yaml")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, path.Ext(m)))
	}
	sort.Strings(names)
	return names
}

// Get returns the named template.
func Get(name string) (*Template, error) {
	content, err := templatesFS.ReadFile(name + ".yaml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("template '%s' not found (available: %s)", name, strings.Join(List(), ", "))
		}
		return nil, fmt.Errorf("failed to read template '%s': %w", name, err)
	}
	return &Template{
		Name:        name,
		Description: describe(content),
		Content:     content,
	}, nil
}

// GetDescription returns the description of the named template, or
// "Custom template" when there is none.
func GetDescription(name string) string {
	tmpl, err := Get(name)
	if err != nil || tmpl.Description == "" {
		return "Custom template"
	}
	return tmpl.Description
}

func describe(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))
	if !sc.Scan() {
		return ""
	}
	line := sc.Text()
	if !strings.HasPrefix(line, headerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, headerPrefix))
}
