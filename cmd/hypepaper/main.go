package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hypepaper",
		Short: "Track trending research papers by hype score",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(addCmd())
	root.AddCommand(voteCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(topCmd())
	root.AddCommand(runCmd())

	return root
}

func addCmd() *cobra.Command {
	var (
		arxivID   string
		repo      string
		topic     string
		title     string
		url       string
		published string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Start tracking a paper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(arxivID, repo, topic, title, url, published)
		},
	}

	cmd.Flags().StringVar(&arxivID, "arxiv", "", "arXiv ID (e.g., 2310.06825); metadata is resolved automatically")
	cmd.Flags().StringVar(&repo, "repo", "", "linked GitHub repository as owner/name")
	cmd.Flags().StringVar(&topic, "topic", "", "topic label used for score normalization")
	cmd.Flags().StringVar(&title, "title", "", "paper title (required when --arxiv is not given)")
	cmd.Flags().StringVar(&url, "url", "", "paper URL")
	cmd.Flags().StringVar(&published, "published", "", "publication date as YYYY-MM-DD (required when --arxiv is not given)")
	return cmd
}

func voteCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "vote <paper-id>",
		Short: "Upvote or downvote a tracked paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(args[0], down)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "downvote instead of upvote")
	return cmd
}

func scoreCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run one scoring batch now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(date)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "score as of this date, YYYY-MM-DD (default: today)")
	return cmd
}

func topCmd() *cobra.Command {
	var (
		jsonOutput bool
		date       string
		minScore   float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the highest-scoring papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(jsonOutput, date, minScore, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&date, "date", "", "ranking date, YYYY-MM-DD (default: today)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum total score")
	cmd.Flags().IntVar(&limit, "limit", 20, "max papers to show")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start daemon with the daily scoring schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}
