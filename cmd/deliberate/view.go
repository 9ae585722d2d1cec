package main

import (
	"errors"
	"fmt"

	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var viewCmd = &cobra.Command{
	Use:   "view [discussion-id]",
	Short: "View archived discussions",
	Long: `Without an argument, lists archived discussions newest first.
With a discussion id, prints the full record: every round with its stage,
similarity score and participant responses.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().Int("limit", 20, "maximum discussions to list")
	_ = viper.BindPFlag("limit", viewCmd.Flags().Lookup("limit"))
}

func runView(cmd *cobra.Command, args []string) error {
	gateway, err := store.NewSQLite(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gateway.Close()

	if len(args) == 0 {
		return listDiscussions(cmd, gateway)
	}
	return showDiscussion(cmd, gateway, args[0])
}

func listDiscussions(cmd *cobra.Command, gateway store.Gateway) error {
	discussions, err := gateway.ListDiscussions(cmd.Context(), viper.GetInt("limit"))
	if err != nil {
		return err
	}
	if len(discussions) == 0 {
		fmt.Println("No archived discussions.")
		return nil
	}

	for _, d := range discussions {
		prompt := d.Prompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		fmt.Printf("%s  %-13s  %s  %s\n",
			d.ID, string(d.Status), d.StartedAt.Format("2006-01-02 15:04"), prompt)
	}
	return nil
}

func showDiscussion(cmd *cobra.Command, gateway store.Gateway, id string) error {
	d, err := gateway.LoadDiscussion(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("discussion %s not found", id)
	}
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Discussion " + d.ID))
	fmt.Printf("%s %s\n", labelStyle.Render("Status:"), string(d.Status))
	fmt.Printf("%s %s\n\n", labelStyle.Render("Prompt:"), d.Prompt)

	for _, r := range d.Rounds {
		fmt.Println(progressStyle.Render(fmt.Sprintf(
			"Round %d (%s): similarity %.2f, consensus %v",
			r.Index, r.Stage, r.Similarity, r.ConsensusReached)))
		for _, resp := range r.Responses {
			header := labelStyle.Render(resp.Participant + confidenceSuffix(resp))
			fmt.Println(header)
			fmt.Println(resp.Text)
			fmt.Println()
		}
	}

	if d.Status == core.StatusConsensus {
		fmt.Println(consensusPanel.Render(d.FinalConsensus))
	}
	return nil
}

func confidenceSuffix(resp core.ParticipantResponse) string {
	if resp.Confidence == nil {
		return ""
	}
	return fmt.Sprintf(" (confidence %.2f)", *resp.Confidence)
}
