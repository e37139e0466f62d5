package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads the sample question set into Postgres. Existing rows
// with the same IDs are replaced, so reseeding is safe.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with the sample question set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			return seedQuestions(cmd.Context(), cfg, sampleQuestions())
		},
	}
}

func seedQuestions(ctx context.Context, cfg config.Config, questions []domain.Question) error {
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	for i, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question %s: %w", q.ID, err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO questions (id, position, data) VALUES (?, ?, ?::jsonb)
			 ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, data=EXCLUDED.data`,
			q.ID, i, string(data))
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	log.Printf("seeded %d questions", len(questions))
	return nil
}

// sampleQuestions provides a small demo question set; swap the loader for
// the Postgres-backed one in production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:   "q1",
			Text: "Which HTTP method is conventionally used to fetch a resource without side effects?",
			Choices: []domain.Choice{
				{ID: "q1-a", Text: "POST", Correct: false},
				{ID: "q1-b", Text: "GET", Correct: true},
				{ID: "q1-c", Text: "DELETE", Correct: false},
			},
		},
		{
			ID:   "q2",
			Text: "What does TTL stand for in caching?",
			Choices: []domain.Choice{
				{ID: "q2-a", Text: "Time To Live", Correct: true},
				{ID: "q2-b", Text: "Total Transfer Limit", Correct: false},
				{ID: "q2-c", Text: "Timed Table Lookup", Correct: false},
			},
		},
		{
			ID:   "q3",
			Text: "Which data format does this service use to store questions in Postgres?",
			Choices: []domain.Choice{
				{ID: "q3-a", Text: "CSV", Correct: false},
				{ID: "q3-b", Text: "XML", Correct: false},
				{ID: "q3-c", Text: "JSONB", Correct: true},
			},
		},
		{
			ID:   "q4",
			Text: "Which protocol upgrades an HTTP connection for full-duplex messaging?",
			Choices: []domain.Choice{
				{ID: "q4-a", Text: "WebSocket", Correct: true},
				{ID: "q4-b", Text: "FTP", Correct: false},
				{ID: "q4-c", Text: "SMTP", Correct: false},
			},
		},
		{
			ID:   "q5",
			Text: "What is the default port this service listens on?",
			Choices: []domain.Choice{
				{ID: "q5-a", Text: "8080", Correct: true},
				{ID: "q5-b", Text: "3000", Correct: false},
				{ID: "q5-c", Text: "5432", Correct: false},
			},
		},
	}
}
