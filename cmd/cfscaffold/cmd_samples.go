package main

import (
	"fmt"

	"cfscaffold/internal/scraper"
	"cfscaffold/internal/types"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// samplesCmd prints the samples of a single problem
var samplesCmd = &cobra.Command{
	Use:   "samples <contest-id> <index>",
	Short: "Print the sample tests of one problem as YAML",
	Long: `Fetches one problem statement and prints the extracted sample tests
without generating anything. Useful to check extraction on a problem whose
markup looks unusual.`,
	Args: cobra.ExactArgs(2),
	RunE: runSamples,
}

type samplesDoc struct {
	Problem string             `yaml:"problem"`
	URL     string             `yaml:"url"`
	Samples []types.SampleTest `yaml:"samples"`
}

func runSamples(cmd *cobra.Command, args []string) error {
	contestID, err := parseContestID(args[0])
	if err != nil {
		return err
	}
	c, err := ensureConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	client := newClient(c)
	src, closeSource := newPageSource(ctx, c, client)
	defer closeSource()

	index := args[1]
	samples, err := scraper.New(src, client.ProblemURL, scraper.WithKeepMarkup(c.Scrape.KeepMarkup)).
		Scrape(ctx, contestID, index)
	if err != nil {
		return err
	}

	doc := samplesDoc{
		Problem: fmt.Sprintf("%d%s", contestID, index),
		URL:     client.ProblemURL(contestID, index),
		Samples: samples,
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	return enc.Close()
}
