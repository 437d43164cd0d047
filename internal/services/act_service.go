package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prorabapp/prorab-data/internal/config"
	"github.com/prorabapp/prorab-data/internal/models"
	"google.golang.org/genai"
)

// ErrNoGenAICredential is returned when act generation is requested without
// a configured API key. Surfaced to the user as a message, never a crash.
var ErrNoGenAICredential = errors.New("generative text credential is not configured")

// ActInput carries the project facts the completion act draft is built from.
type ActInput struct {
	Contractor  string
	Client      string
	ProjectName string
	Address     string
	Total       float64
	CompletedAt int64
}

// BuildActInput assembles act facts from the contractor profile and a
// project. The total is the discounted sum across all estimates.
func BuildActInput(profile models.Profile, project models.Project) ActInput {
	completedAt := project.CompletedAt
	if completedAt == 0 {
		completedAt = models.NowMillis()
	}
	return ActInput{
		Contractor:  profile.Name,
		Client:      project.ClientName,
		ProjectName: project.Name,
		Address:     project.Address,
		Total:       project.EstimatesTotal(),
		CompletedAt: completedAt,
	}
}

// GenerateAct drafts a completion certificate ("акт выполненных работ")
// through the Gemini API from a natural-language prompt describing the
// completed project.
func GenerateAct(ctx context.Context, cfg *config.Config, input ActInput) (string, error) {
	if cfg.GenAIKey == "" {
		return "", ErrNoGenAICredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GenAIKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, cfg.GenAIModel, genai.Text(actPrompt(input)), nil)
	if err != nil {
		return "", fmt.Errorf("act generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("act generation returned no text")
	}
	return text, nil
}

func actPrompt(input ActInput) string {
	date := time.UnixMilli(input.CompletedAt).Format("02.01.2006")
	return fmt.Sprintf(
		"Составь официальный акт выполненных работ для строительного подряда.\n"+
			"Подрядчик: %s\n"+
			"Заказчик: %s\n"+
			"Объект: %s, адрес: %s\n"+
			"Общая стоимость работ: %.2f руб.\n"+
			"Дата завершения работ: %s\n"+
			"Текст должен быть готов к печати, без пояснений.",
		input.Contractor, input.Client, input.ProjectName, input.Address, input.Total, date)
}
