// Package generator renders per-problem project skeletons from embedded
// template sets and writes them to disk.
package generator

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"cfscaffold/internal/logging"
	"cfscaffold/internal/types"
)

// ErrUnsafeIndex is returned for problem indexes that cannot be used as a
// directory name.
var ErrUnsafeIndex = errors.New("problem index is not a safe directory name")

// ErrUnknownSet is returned for a language with no built-in template set.
var ErrUnknownSet = errors.New("unknown template set")

var safeIndex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// RenderedFile is one generated file, with its path relative to the problem
// directory.
type RenderedFile struct {
	Path    string
	Role    string
	Content []byte
}

// Skeleton is the set of files written for one problem.
type Skeleton struct {
	Dir   string
	Files []RenderedFile
}

// URLFunc maps a problem to its statement URL.
type URLFunc func(contestID int, index string) string

// Generator renders one template set.
type Generator struct {
	set    *TemplateSet
	urlFor URLFunc
}

// Option configures a Generator.
type Option func(*Generator)

// WithURLFunc sets the statement URL written into the solution stub.
func WithURLFunc(fn URLFunc) Option {
	return func(g *Generator) { g.urlFor = fn }
}

// New returns a generator for the named built-in template set.
func New(lang string, opts ...Option) (*Generator, error) {
	set, err := Lookup(lang)
	if err != nil {
		return nil, err
	}
	return NewWithSet(set, opts...), nil
}

// NewWithSet returns a generator for an already loaded template set.
func NewWithSet(set *TemplateSet, opts ...Option) *Generator {
	g := &Generator{
		set: set,
		urlFor: func(contestID int, index string) string {
			return fmt.Sprintf("https://codeforces.com/contest/%d/problem/%s", contestID, index)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Set returns the template set in use.
func (g *Generator) Set() *TemplateSet {
	return g.set
}

type sampleData struct {
	Number int
	Input  string
	Output string
}

type templateData struct {
	Problem types.Problem
	URL     string
	Module  string
	Crate   string
	Samples []sampleData
}

// Render produces the file set for a problem without touching the disk.
// Each sample becomes one test case numbered by its position.
func (g *Generator) Render(problem types.Problem, samples []types.SampleTest) ([]RenderedFile, error) {
	name := projectName(problem)
	data := templateData{
		Problem: problem,
		URL:     g.urlFor(problem.ContestID, problem.Index),
		Module:  name,
		Crate:   name,
		Samples: make([]sampleData, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = sampleData{
			Number: i,
			Input:  strings.TrimLeftFunc(s.Input, unicode.IsSpace),
			Output: s.Output,
		}
	}

	files := make([]RenderedFile, 0, len(g.set.Files))
	for _, f := range g.set.Files {
		var buf bytes.Buffer
		if err := g.set.tmpl.ExecuteTemplate(&buf, f.Template, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", f.Path, err)
		}

		content := buf.Bytes()
		if f.Format == "gofmt" {
			formatted, err := format.Source(content)
			if err != nil {
				return nil, fmt.Errorf("rendered %s is not valid Go: %w", f.Path, err)
			}
			content = formatted
		}

		files = append(files, RenderedFile{Path: f.Path, Role: f.Role, Content: content})
	}
	return files, nil
}

// Generate renders the problem and writes it to a fresh directory named
// after the problem index inside outputDir.
func (g *Generator) Generate(problem types.Problem, samples []types.SampleTest, outputDir string) (Skeleton, error) {
	if !safeIndex.MatchString(problem.Index) {
		return Skeleton{}, fmt.Errorf("%w: %q", ErrUnsafeIndex, problem.Index)
	}

	files, err := g.Render(problem, samples)
	if err != nil {
		return Skeleton{}, err
	}

	dir := filepath.Join(outputDir, problem.Index)
	if err := os.Mkdir(dir, 0755); err != nil {
		return Skeleton{}, fmt.Errorf("failed to create problem directory: %w", err)
	}

	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return Skeleton{}, fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, f.Content, 0644); err != nil {
			return Skeleton{}, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}

	logging.Generate("%s: wrote %d files (%s v%d, %d sample tests) to %s",
		problem.Label(), len(files), g.set.Name, g.set.Version, len(samples), dir)
	return Skeleton{Dir: dir, Files: files}, nil
}

// projectName is the module/crate name of a problem: "cf" plus the
// lower-cased label with anything but letters and digits dropped.
func projectName(p types.Problem) string {
	var sb strings.Builder
	sb.WriteString("cf")
	for _, r := range strings.ToLower(p.Label()) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
