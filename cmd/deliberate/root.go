package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "deliberate",
	Short: "Orchestrate consensus discussions between multiple LLMs",
	Long: `Deliberate runs round-based discussions between multiple LLM
participants, scoring each round for semantic agreement until the panel
converges on a single answer or the stages are exhausted.

Discussions are archived to SQLite and can be reviewed later with the
view command or streamed live over HTTP with serve.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("db", "deliberate.db", "path to the SQLite archive")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	// Local .env is a convenience for API keys during development.
	_ = godotenv.Load()

	viper.SetConfigName("deliberate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/deliberate")

	viper.SetDefault("threshold", 0.8)
	viper.SetDefault("quorum", 2)
	viper.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("openai.model", "gpt-4o")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DELIBERATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
