package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/warp/seat-engine/election"
	"github.com/warp/seat-engine/factory"
	"github.com/warp/seat-engine/scenario"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

type options struct {
	file         string
	districtFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "seatctl",
		Short:        "Confessional seat allocation from the command line",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&opts.districtFile, "district", "", "district seat table file (YAML or JSON)")

	root.AddCommand(
		newAllocateCmd(opts),
		newScenariosCmd(opts),
		newSweepCmd(opts),
		newDistrictCmd(opts),
	)
	return root
}

func addFileFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "election file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("file")
}

// load reads the election file and resolves its district.
func (o *options) load() ([]election.List, election.District, error) {
	f, err := factory.LoadElectionFile(o.file)
	if err != nil {
		return nil, election.District{}, err
	}
	d, err := o.district(f.DistrictID())
	if err != nil {
		return nil, election.District{}, err
	}
	lists, err := f.EngineLists(d)
	if err != nil {
		return nil, election.District{}, fmt.Errorf("%s: %w", o.file, err)
	}
	return lists, d, nil
}

func (o *options) district(id string) (election.District, error) {
	if o.districtFile != "" {
		return factory.LoadDistrictFile(o.districtFile)
	}
	return election.LookupDistrict(id)
}

// =============================================================================
// ALLOCATE
// =============================================================================

func newAllocateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate seats and print the trace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lists, d, err := opts.load()
			if err != nil {
				return err
			}
			outcome, err := election.NewEngine(d).Allocate(lists)
			w := cmd.OutOrStdout()
			if err != nil {
				printSteps(w, election.StepsOf(err))
				return err
			}
			printSteps(w, outcome.Steps)
			printSeats(w, outcome)
			return nil
		},
	}
	addFileFlag(cmd, opts)
	return cmd
}

func printSteps(w io.Writer, steps []election.Step) {
	for i, s := range steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, s.Title)
		for _, line := range strings.Split(s.Detail, "\n") {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}

func printSeats(w io.Writer, o *election.Outcome) {
	fmt.Fprintf(w, "\nQuotient %s, %d seat(s) allocated\n", o.Quotient.StringFixed(2), o.SeatsAllocated())
	for _, a := range o.Allocation {
		fmt.Fprintf(w, "  %-24s %10s votes  %d seat(s), %d filled\n",
			a.List.Name, humanize.Comma(int64(a.List.Votes)), a.TotalSeats, a.FilledSeats)
	}
	fmt.Fprintln(w, "\nElected")
	for _, winner := range o.Winners {
		fmt.Fprintf(w, "  %-24s %-22s %s\n", winner.DisplayName(), winner.Confession, winner.ListName)
	}
}

// =============================================================================
// SCENARIOS AND SWEEP
// =============================================================================

func newScenariosCmd(opts *options) *cobra.Command {
	var target string
	var byID bool
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Run the what-if battery for one candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lists, d, err := opts.load()
			if err != nil {
				return err
			}
			ex := scenario.NewExplorer(election.NewEngine(d))
			if byID {
				ex.Match = scenario.MatchByID
			}
			results := ex.Explore(lists, target)
			if results == nil {
				return fmt.Errorf("candidate %q not found", target)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	addFileFlag(cmd, opts)
	cmd.Flags().StringVar(&target, "target", "", "candidate id")
	cmd.Flags().BoolVar(&byID, "by-id", false, "recognise the target among winners by id instead of name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func printResults(w io.Writer, results []scenario.Result) {
	for _, r := range results {
		verdict := "loses"
		switch {
		case r.Err != nil:
			verdict = "no result: " + r.Err.Error()
		case r.Wins:
			verdict = "WINS"
		}
		fmt.Fprintf(w, "  %-28s %-8s %s\n", r.Name, verdict, r.Description)
	}
}

func newSweepCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the battery for every named candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lists, d, err := opts.load()
			if err != nil {
				return err
			}
			reports, err := scenario.NewExplorer(election.NewEngine(d)).Sweep(context.Background(), lists, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, rep := range reports {
				wins := rep.WinningScenarios()
				fmt.Fprintf(w, "%s (%s): wins %d/%d\n", rep.CandidateName, rep.ListName, len(wins), len(rep.Results))
				if len(wins) > 0 {
					fmt.Fprintf(w, "  %s\n", strings.Join(wins, ", "))
				}
			}
			return nil
		},
	}
	addFileFlag(cmd, opts)
	cmd.Flags().IntVar(&limit, "limit", scenario.DefaultSweepLimit, "batteries run concurrently")
	return cmd
}

// =============================================================================
// DISTRICT
// =============================================================================

func newDistrictCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "district",
		Short: "Print the confession seat table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := opts.district(election.BeirutI().ID)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(factory.FromDistrict(d))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %d seats\n", d.TotalSeats())
			_, err = w.Write(data)
			return err
		},
	}
}
