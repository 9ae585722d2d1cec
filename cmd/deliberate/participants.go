package main

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/deliberate/participant"
	"github.com/hupe1980/deliberate/participant/anthropic"
	"github.com/hupe1980/deliberate/participant/openai"
	"github.com/spf13/viper"
)

// buildParticipants assembles the panel from whichever provider API keys are
// present in the environment. At least two providers are needed to satisfy
// the default quorum.
func buildParticipants() ([]participant.Participant, error) {
	var panel []participant.Participant

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		panel = append(panel, anthropic.New(func(o *anthropic.Options) {
			o.APIKey = key
			o.Model = anthropicsdk.Model(viper.GetString("anthropic.model"))
		}))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		panel = append(panel, openai.New(func(o *openai.Options) {
			o.APIKey = key
			o.Model = viper.GetString("openai.model")
		}))
	}

	if len(panel) < 2 {
		return nil, fmt.Errorf("need at least 2 providers, found %d; set ANTHROPIC_API_KEY and OPENAI_API_KEY", len(panel))
	}
	return panel, nil
}
