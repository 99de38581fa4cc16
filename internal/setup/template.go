// SPDX-License-Identifier: MPL-2.0

package setup

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/setup.iss.tmpl
var defaultTemplate string

// allowedSprigFuncs lists the sprig functions available to templates.
// Functions touching the environment, clock, randomness or network are left out
// so that rendering depends only on the context.
var allowedSprigFuncs = map[string]struct{}{
	// Strings
	"trim":       {},
	"trimAll":    {},
	"trimPrefix": {},
	"trimSuffix": {},
	"upper":      {},
	"lower":      {},
	"title":      {},
	"replace":    {},
	"contains":   {},
	"hasPrefix":  {},
	"hasSuffix":  {},
	"quote":      {},
	"squote":     {},
	"cat":        {},
	"indent":     {},
	"nindent":    {},
	"repeat":     {},
	"wrap":       {},
	"toString":   {},

	// Lists and dictionaries
	"list":      {},
	"dict":      {},
	"get":       {},
	"hasKey":    {},
	"first":     {},
	"last":      {},
	"join":      {},
	"split":     {},
	"splitList": {},
	"sortAlpha": {},
	"uniq":      {},
	"has":       {},

	// Defaults and flow
	"default":  {},
	"empty":    {},
	"coalesce": {},
	"ternary":  {},
	"fail":     {},

	// Paths
	"base":  {},
	"dir":   {},
	"clean": {},
	"ext":   {},
	"isAbs": {},

	// Regex
	"regexMatch":      {},
	"regexReplaceAll": {},
}

// Template renders installer scripts.
type Template struct {
	name string
	tmpl *template.Template
}

// DefaultTemplate returns the built-in Inno Setup script template.
func DefaultTemplate() (*Template, error) {
	return ParseTemplate("setup.iss", defaultTemplate)
}

// DefaultTemplateSource returns the text of the built-in template, as a
// starting point for custom templates.
func DefaultTemplateSource() string { return defaultTemplate }

// LoadTemplate parses the template stored at path.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return ParseTemplate(path, string(data))
}

// ParseTemplate parses text as an installer script template. Referencing a
// context key that is not set fails at render time.
func ParseTemplate(name, text string) (*Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(templateFuncs()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Name returns the template name used in error messages.
func (t *Template) Name() string { return t.name }

// Render executes the template with ctx.
func (t *Template) Render(ctx Context) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, map[string]any(ctx)); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", t.name, err)
	}
	return b.String(), nil
}

func templateFuncs() template.FuncMap {
	funcs := template.FuncMap{}
	for name, fn := range sprig.TxtFuncMap() {
		if _, ok := allowedSprigFuncs[name]; ok {
			funcs[name] = fn
		}
	}
	funcs["issString"] = issString
	funcs["architecturesAllowed"] = architecturesAllowed
	funcs["architecturesInstallIn64BitMode"] = architecturesInstallIn64BitMode
	return funcs
}

// issEscaper doubles the characters Inno Setup treats specially inside a
// double-quoted parameter: the quote itself and the brace opening a constant.
var issEscaper = strings.NewReplacer(`"`, `""`, "{", "{{")

// issString escapes s for use inside a double-quoted Inno Setup parameter.
func issString(s string) string {
	return issEscaper.Replace(s)
}

// architecturesAllowed maps a package CPU to an Inno Setup architecture
// identifier.
func architecturesAllowed(cpu string) string {
	switch cpu {
	case "x64":
		return "x64compatible"
	case "x86":
		return "x86compatible"
	case "ARM64":
		return "arm64"
	case "IA64":
		return "ia64"
	default:
		return ""
	}
}

// architecturesInstallIn64BitMode returns the identifier to install cpu in
// 64-bit mode, or "" for 32-bit targets.
func architecturesInstallIn64BitMode(cpu string) string {
	if cpu == "x86" {
		return ""
	}
	return architecturesAllowed(cpu)
}
