package generator

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"cfscaffold/internal/logging"

	"gopkg.in/yaml.v3"
)

// builtinTemplates holds one directory per template set, each with a
// set.yaml manifest and the *.tmpl files it names.
//
//go:embed templates
var builtinTemplates embed.FS

// Roles every template set must cover exactly once.
const (
	RoleManifest = "manifest"
	RoleStub     = "stub"
	RoleEntry    = "entry"
	RoleScanner  = "scanner"
	RoleTests    = "tests"
)

var requiredRoles = []string{RoleManifest, RoleStub, RoleEntry, RoleScanner, RoleTests}

// TemplateFile maps one template to its path inside a problem directory.
type TemplateFile struct {
	Path     string `yaml:"path"`
	Template string `yaml:"template"`
	Role     string `yaml:"role"`
	Format   string `yaml:"format,omitempty"` // "gofmt" or empty
}

// TemplateSet is a named, versioned group of templates that together form
// one project skeleton.
type TemplateSet struct {
	Name        string         `yaml:"name"`
	Version     int            `yaml:"version"`
	Description string         `yaml:"description"`
	Files       []TemplateFile `yaml:"files"`

	tmpl *template.Template
}

var (
	setsOnce sync.Once
	sets     map[string]*TemplateSet
	setsErr  error
)

// BuiltinSets returns the embedded template sets keyed by name. They are
// parsed on first use and shared afterwards.
func BuiltinSets() (map[string]*TemplateSet, error) {
	setsOnce.Do(func() {
		sets, setsErr = LoadSets(builtinTemplates, "templates")
	})
	return sets, setsErr
}

// SetNames lists the built-in template sets in name order.
func SetNames() []string {
	all, err := BuiltinSets()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in template set called name.
func Lookup(name string) (*TemplateSet, error) {
	all, err := BuiltinSets()
	if err != nil {
		return nil, err
	}
	set, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownSet, name, strings.Join(SetNames(), ", "))
	}
	return set, nil
}

// LoadSets reads every template set below root in fsys.
func LoadSets(fsys fs.FS, root string) (map[string]*TemplateSet, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read template root: %w", err)
	}

	loaded := make(map[string]*TemplateSet)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		set, err := loadSet(fsys, path.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("template set %s: %w", e.Name(), err)
		}
		if _, dup := loaded[set.Name]; dup {
			return nil, fmt.Errorf("duplicate template set %q", set.Name)
		}
		loaded[set.Name] = set
		logging.GenerateDebug("loaded template set %s v%d (%d files)", set.Name, set.Version, len(set.Files))
	}
	return loaded, nil
}

func loadSet(fsys fs.FS, dir string) (*TemplateSet, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "set.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var set TemplateSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if set.Name == "" || set.Version < 1 {
		return nil, fmt.Errorf("manifest needs a name and a positive version")
	}

	seen := make(map[string]bool)
	for _, f := range set.Files {
		if f.Path == "" || path.IsAbs(f.Path) || strings.HasPrefix(path.Clean(f.Path), "..") {
			return nil, fmt.Errorf("invalid target path %q", f.Path)
		}
		if seen[f.Role] {
			return nil, fmt.Errorf("role %q declared twice", f.Role)
		}
		seen[f.Role] = true
	}
	for _, role := range requiredRoles {
		if !seen[role] {
			return nil, fmt.Errorf("missing %s template", role)
		}
	}

	tmpl, err := template.New(set.Name).Funcs(funcMap).Option("missingkey=error").ParseFS(fsys, path.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, f := range set.Files {
		if tmpl.Lookup(f.Template) == nil {
			return nil, fmt.Errorf("template %s not found", f.Template)
		}
	}
	set.tmpl = tmpl

	return &set, nil
}

// File returns the entry for a role.
func (s *TemplateSet) File(role string) (TemplateFile, bool) {
	for _, f := range s.Files {
		if f.Role == role {
			return f, true
		}
	}
	return TemplateFile{}, false
}

var funcMap = template.FuncMap{
	"goquote":   strconv.Quote,
	"rustquote": rustQuote,
	"oneline":   oneline,
}

// rustQuote renders s as a Rust string literal.
func rustQuote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
