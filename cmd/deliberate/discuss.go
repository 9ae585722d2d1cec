package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/deliberate"
	"github.com/hupe1980/deliberate/config"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/logging"
	"github.com/hupe1980/deliberate/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var discussCmd = &cobra.Command{
	Use:   "discuss [prompt]",
	Short: "Run a consensus discussion over a prompt",
	Long: `Run a full deliberation over the given prompt. Progress is printed
round by round; the final panel shows the merged consensus answer or, when
the stages are exhausted without agreement, each participant's last position.

Ctrl-C cancels at the next round boundary and archives the discussion as
aborted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscuss,
}

func init() {
	rootCmd.AddCommand(discussCmd)

	discussCmd.Flags().Float64("threshold", 0.8, "similarity score required for agreement")
	discussCmd.Flags().Int("quorum", 2, "minimum responders per round")
	discussCmd.Flags().Int("max-rounds", 0, "round cap (0 = one round per stage)")
	_ = viper.BindPFlag("threshold", discussCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("quorum", discussCmd.Flags().Lookup("quorum"))
	_ = viper.BindPFlag("max_rounds", discussCmd.Flags().Lookup("max-rounds"))
}

func runDiscuss(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	panel, err := buildParticipants()
	if err != nil {
		return err
	}

	gateway, err := store.NewSQLite(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gateway.Close()

	cfg := buildConfig()
	d, err := deliberate.New(panel, func(o *deliberate.Options) {
		o.Config = cfg
		o.Gateway = gateway
		o.Logger = newCLILogger()
		o.Progress = printProgress
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(titleStyle.Render("Starting consensus discussion..."))
	fmt.Println()

	discussion, err := d.Discuss(ctx, prompt)
	if err != nil {
		return fmt.Errorf("discussion halted: %w", err)
	}

	printConclusion(discussion)
	return nil
}

func buildConfig() config.Config {
	cfg := config.Default()
	cfg.Settings.ConsensusThreshold = viper.GetFloat64("threshold")
	cfg.Settings.Quorum = viper.GetInt("quorum")
	if n := viper.GetInt("max_rounds"); n > 0 {
		cfg.Settings.MaxRounds = n
	}
	return cfg
}

func newCLILogger() logging.Logger {
	level := logging.LogLevelWarn
	if viper.GetBool("verbose") {
		level = logging.LogLevelDebug
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})
}

func printProgress(ev core.ProgressEvent) {
	switch ev.Kind {
	case core.ProgressStageStarted, core.ProgressRoundScored:
		fmt.Println(progressStyle.Render(ev.Message))
	case core.ProgressParticipantOutcome:
		fmt.Println(labelStyle.Render("  " + ev.Message))
	}
}

func printConclusion(d *core.Discussion) {
	fmt.Println()
	switch d.Status {
	case core.StatusConsensus:
		fmt.Println(titleStyle.Render("Consensus reached"))
		fmt.Println(consensusPanel.Render(d.FinalConsensus))
	case core.StatusNoConsensus:
		fmt.Println(titleStyle.Render("No consensus reached, final positions:"))
		for _, resp := range lastRoundResponses(d) {
			header := labelStyle.Render(resp.Participant)
			fmt.Println(exhaustedPanel.Render(header + "\n\n" + resp.Text))
		}
	case core.StatusAborted:
		fmt.Println(abortedPanel.Render(fmt.Sprintf(
			"Discussion aborted after %d round(s). Archived as %s.", len(d.Rounds), d.ID)))
	}
}

func lastRoundResponses(d *core.Discussion) []core.ParticipantResponse {
	if len(d.Rounds) == 0 {
		return nil
	}
	return d.Rounds[len(d.Rounds)-1].Responses
}
