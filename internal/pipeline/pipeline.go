// Package pipeline drives one scaffolding run: fetch the contest, then
// scrape and generate each problem in the order the service lists them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"cfscaffold/internal/generator"
	"cfscaffold/internal/logging"
	"cfscaffold/internal/types"
)

// ErrOutputExists is returned when the contest directory is already present.
var ErrOutputExists = errors.New("output directory already exists")

// Stage names used in StageError.
const (
	StageFetch    = "contest fetch"
	StageScrape   = "problem scrape"
	StageGenerate = "generate"
)

// StageError records which stage failed and for which problem.
type StageError struct {
	Stage   string
	Problem string
	Err     error
}

func (e *StageError) Error() string {
	if e.Problem == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed for problem %s: %v", e.Stage, e.Problem, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ContestFetcher resolves a contest to its problem list.
type ContestFetcher interface {
	FetchContest(ctx context.Context, contestID int) (types.Contest, []types.Problem, error)
}

// SampleScraper extracts the sample tests of one problem.
type SampleScraper interface {
	Scrape(ctx context.Context, contestID int, index string) ([]types.SampleTest, error)
}

// SkeletonGenerator writes the project for one problem.
type SkeletonGenerator interface {
	Generate(problem types.Problem, samples []types.SampleTest, outputDir string) (generator.Skeleton, error)
}

// Result summarizes a finished run.
type Result struct {
	Contest   types.Contest
	Dir       string
	Skeletons []generator.Skeleton
}

// Runner wires the three stages together.
type Runner struct {
	fetcher   ContestFetcher
	scraper   SampleScraper
	generator SkeletonGenerator
	progress  io.Writer
}

// NewRunner creates a runner that prints progress lines to progress.
// A nil writer discards them.
func NewRunner(f ContestFetcher, s SampleScraper, g SkeletonGenerator, progress io.Writer) *Runner {
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{fetcher: f, scraper: s, generator: g, progress: progress}
}

// Run scaffolds every problem of contestID below root/<contestID>. The
// contest directory must not exist yet; it is checked before any network
// access. Work already written is left in place when a later stage fails.
func (r *Runner) Run(ctx context.Context, contestID int, root string) (Result, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create output root: %w", err)
	}

	// Mkdir fails on any existing entry, which makes the check and the
	// creation one step.
	dir := filepath.Join(root, strconv.Itoa(contestID))
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrOutputExists, dir)
		}
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	timer := logging.StartTimer(logging.CategoryPipeline, "contest run")
	defer timer.Stop()

	contest, problems, err := r.fetcher.FetchContest(ctx, contestID)
	if err != nil {
		logging.PipelineError("contest %d: %v", contestID, err)
		return Result{}, &StageError{Stage: StageFetch, Err: err}
	}
	logging.Pipeline("contest %d %q: %d problems", contest.ID, contest.Name, len(problems))

	res := Result{Contest: contest, Dir: dir}
	for _, p := range problems {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fmt.Fprintf(r.progress, "Processing: %s\n", p.Index)

		samples, err := r.scraper.Scrape(ctx, p.ContestID, p.Index)
		if err != nil {
			logging.PipelineError("%s: %v", p.Label(), err)
			return res, &StageError{Stage: StageScrape, Problem: p.Index, Err: err}
		}

		sk, err := r.generator.Generate(p, samples, dir)
		if err != nil {
			logging.PipelineError("%s: %v", p.Label(), err)
			return res, &StageError{Stage: StageGenerate, Problem: p.Index, Err: err}
		}
		res.Skeletons = append(res.Skeletons, sk)
	}

	logging.Pipeline("contest %d done: %d skeletons in %s", contestID, len(res.Skeletons), dir)
	return res, nil
}
