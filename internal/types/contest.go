// Package types holds the values that flow between the fetch, scrape and
// generate stages. They are plain values and are passed by copy.
package types

import "fmt"

// Contest identifies a remote contest.
type Contest struct {
	ID   int    `json:"id" yaml:"id" validate:"gt=0"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// Problem is one task of a contest. The order problems are returned by the
// service is the order they are generated in.
type Problem struct {
	ContestID int      `json:"contestId" yaml:"contest_id" validate:"gt=0"`
	Index     string   `json:"index" yaml:"index" validate:"required,max=8"`
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Points    *float64 `json:"points,omitempty" yaml:"points,omitempty"`
	Rating    *int     `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// Label renders the problem as "1234A".
func (p Problem) Label() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// SampleTest is a publisher-provided input/output pair.
type SampleTest struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}
