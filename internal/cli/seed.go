package cli

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed data/questions.yaml
var sampleQuestionsYAML []byte

type seedQuestion struct {
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correct_answer"`
	Category      string   `yaml:"category"`
	Difficulty    string   `yaml:"difficulty"`
}

// NewSeedCmd loads the sample question bank into the configured storage.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			b, err := openBackend(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := seedQuestions(cmd.Context(), b.stores.Questions)
			if err != nil {
				return err
			}
			log.Info("seed complete", "inserted", n)
			return nil
		},
	}
}

// seedQuestions inserts sample questions whose text is not yet in the bank
// and returns how many were inserted.
func seedQuestions(ctx context.Context, store app.QuestionStore) (int, error) {
	var bank []seedQuestion
	if err := yaml.Unmarshal(sampleQuestionsYAML, &bank); err != nil {
		return 0, fmt.Errorf("parse sample questions: %w", err)
	}
	existing, err := store.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, q := range existing {
		seen[strings.ToLower(q.Text)] = struct{}{}
	}

	now := time.Now().UTC()
	inserted := 0
	for i, sq := range bank {
		q := domain.Question{
			Text:          sq.Question,
			Options:       sq.Options,
			CorrectAnswer: sq.CorrectAnswer,
			Category:      sq.Category,
			Difficulty:    domain.Difficulty(sq.Difficulty),
			Active:        true,
		}
		if err := domain.NormalizeQuestion(&q); err != nil {
			return inserted, fmt.Errorf("sample question %d: %w", i, err)
		}
		if _, dup := seen[strings.ToLower(q.Text)]; dup {
			continue
		}
		// Distinct timestamps keep newest-first listings stable.
		q.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		q.UpdatedAt = q.CreatedAt
		if _, err := store.Create(ctx, q); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
