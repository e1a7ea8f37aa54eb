package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"medscan/internal/config"
	"medscan/internal/gemini"
	"medscan/internal/logger"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask the patient-friendly medical assistant a question",
	Long: `Send a free-form question to the assistant. Answers are concise,
plain-language, and never prescriptive.

Requires GEMINI_API_KEY in the environment or a .env file.`,
	Example: `  medscan ask what does elevated creatinine mean
  medscan ask "Is 13.2 g/dL hemoglobin normal?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().Int("timeout", 60, "Request timeout in seconds")
}

func runAsk(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ask")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return handleScanError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	log.Debug().Int("question_length", len(question)).Msg("Sending question")

	answer, err := client.Answer(ctx, question, gemini.AssistantPrompt)
	if err != nil {
		return handleScanError(err)
	}

	fmt.Println(answer)
	return nil
}
