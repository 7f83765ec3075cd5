package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	log "github.com/sirupsen/logrus"
)

var defaultCategories = []models.Category{
	{Name: "General Knowledge", Icon: "🎯", Color: "#6366f1"},
	{Name: "History", Icon: "📜", Color: "#8b5cf6"},
	{Name: "Geography", Icon: "🌍", Color: "#10b981"},
	{Name: "Science", Icon: "🔬", Color: "#3b82f6"},
	{Name: "Sports", Icon: "⚽", Color: "#f59e0b"},
	{Name: "Music", Icon: "🎵", Color: "#ec4899"},
	{Name: "Movies & TV", Icon: "🎬", Color: "#ef4444"},
	{Name: "Literature", Icon: "📚", Color: "#84cc16"},
	{Name: "Art", Icon: "🎨", Color: "#f97316"},
	{Name: "Food & Drink", Icon: "🍕", Color: "#14b8a6"},
	{Name: "Nature & Animals", Icon: "🦁", Color: "#22c55e"},
	{Name: "Technology", Icon: "💻", Color: "#0ea5e9"},
	{Name: "Christmas", Icon: "🎄", Color: "#dc2626"},
}

func jsonValue(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			Text:         "Which reindeer has a red nose?",
			QuestionType: constants.QuestionTypeQuiz,
			Answers:      []string{"Dasher", "Rudolph", "Comet", "Blitzen"},
			CorrectIndex: 1,
			Category:     "Christmas",
		},
		{
			Text:          "Christmas Island is in the Indian Ocean.",
			QuestionType:  constants.QuestionTypeTrueFalse,
			CorrectAnswer: jsonValue(true),
			Category:      "Geography",
		},
		{
			Text:          "Which carol begins \"Dashing through the snow\"?",
			QuestionType:  constants.QuestionTypeType,
			CorrectAnswer: jsonValue("Jingle Bells"),
			Category:      "Music",
		},
		{
			Text:          "In what year was the first commercial Christmas card sent?",
			QuestionType:  constants.QuestionTypeSlider,
			CorrectAnswer: jsonValue(1843),
			SliderMin:     1800,
			SliderMax:     1900,
			Tolerance:     5,
			Category:      "History",
		},
		{
			Text:         "Put the first four gifts of \"The Twelve Days of Christmas\" in order.",
			QuestionType: constants.QuestionTypeOrder,
			OrderItems:   []string{"Partridge in a pear tree", "Turtle doves", "French hens", "Calling birds"},
			Category:     "Music",
		},
		{
			Text:         "Which country started the tradition of the Christmas tree?",
			QuestionType: constants.QuestionTypeQuiz,
			Answers:      []string{"England", "USA", "Germany", "Norway"},
			CorrectIndex: 2,
			Category:     "History",
			Explanation:  "Decorated trees spread from 16th century Germany.",
		},
	}
}

type categoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	Count(ctx context.Context) (int, error)
}

type questionStore interface {
	Create(ctx context.Context, q *models.Question) error
	Count(ctx context.Context) (int, error)
}

// SeedDefaults fills empty category and question tables with starter data.
func SeedDefaults(ctx context.Context, categories categoryStore, questions questionStore) error {
	n, err := categories.Count(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n == 0 {
		for _, c := range defaultCategories {
			if err := categories.Create(ctx, &c); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}
		log.Infof("Seeded %d categories", len(defaultCategories))
	}

	n, err = questions.Count(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if n == 0 {
		samples := sampleQuestions()
		for i := range samples {
			if err := questions.Create(ctx, &samples[i]); err != nil {
				return fmt.Errorf("seed question: %w", err)
			}
		}
		log.Infof("Seeded %d sample questions", len(samples))
	}
	return nil
}
