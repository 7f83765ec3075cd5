package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/game"
	"quizmas-service/internal/models"

	"github.com/gin-gonic/gin"
)

type questionStore interface {
	Create(ctx context.Context, q *models.Question) error
	Get(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, category string) ([]*models.Question, error)
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id string) error
}

type quizStore interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	Get(ctx context.Context, id string) (*models.Quiz, error)
	List(ctx context.Context) ([]*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error
}

type categoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id string) error
}

// ContentHandler serves CRUD for the question bank.
type ContentHandler struct {
	questions  questionStore
	quizzes    quizStore
	categories categoryStore
}

func NewContentHandler(questions questionStore, quizzes quizStore, categories categoryStore) *ContentHandler {
	return &ContentHandler{questions: questions, quizzes: quizzes, categories: categories}
}

func validateQuestion(q *models.Question) error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return fmt.Errorf("%w: text is required", game.ErrInvalidInput)
	}
	if q.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must not be negative", game.ErrInvalidInput)
	}

	switch q.QuestionType {
	case "", constants.QuestionTypeQuiz:
		if len(q.Answers) < 2 {
			return fmt.Errorf("%w: a quiz question needs at least two answers", game.ErrInvalidInput)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
			return fmt.Errorf("%w: correct index out of range", game.ErrInvalidInput)
		}
	case constants.QuestionTypeTrueFalse, constants.QuestionTypeType, constants.QuestionTypeSlider:
		if len(q.CorrectAnswer) == 0 {
			return fmt.Errorf("%w: correct answer is required", game.ErrInvalidInput)
		}
	case constants.QuestionTypeOrder:
		if len(q.OrderItems) < 2 {
			return fmt.Errorf("%w: an order question needs at least two items", game.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown question type %q", game.ErrInvalidInput, q.QuestionType)
	}
	return nil
}

func (h *ContentHandler) CreateQuestion(c *gin.Context) {
	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateQuestion(&q); err != nil {
		respondError(c, err)
		return
	}
	q.ID = ""
	if err := h.questions.Create(c.Request.Context(), &q); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *ContentHandler) GetQuestion(c *gin.Context) {
	q, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ContentHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	if questions == nil {
		questions = []*models.Question{}
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *ContentHandler) UpdateQuestion(c *gin.Context) {
	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateQuestion(&q); err != nil {
		respondError(c, err)
		return
	}
	q.ID = c.Param("id")
	if err := h.questions.Update(c.Request.Context(), &q); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ContentHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindQuiz(c *gin.Context) (*models.Quiz, bool) {
	var quiz models.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		JsonError(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	quiz.Title = strings.TrimSpace(quiz.Title)
	if quiz.Title == "" {
		JsonError(c, http.StatusBadRequest, "title is required")
		return nil, false
	}
	return &quiz, true
}

func (h *ContentHandler) CreateQuiz(c *gin.Context) {
	quiz, ok := bindQuiz(c)
	if !ok {
		return
	}
	quiz.ID = ""
	if err := h.quizzes.Create(c.Request.Context(), quiz); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *ContentHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizzes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *ContentHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizzes.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if quizzes == nil {
		quizzes = []*models.Quiz{}
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (h *ContentHandler) UpdateQuiz(c *gin.Context) {
	quiz, ok := bindQuiz(c)
	if !ok {
		return
	}
	quiz.ID = c.Param("id")
	if err := h.quizzes.Update(c.Request.Context(), quiz); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *ContentHandler) DeleteQuiz(c *gin.Context) {
	if err := h.quizzes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindCategory(c *gin.Context) (*models.Category, bool) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		JsonError(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		JsonError(c, http.StatusBadRequest, "name is required")
		return nil, false
	}
	return &category, true
}

func (h *ContentHandler) CreateCategory(c *gin.Context) {
	category, ok := bindCategory(c)
	if !ok {
		return
	}
	category.ID = ""
	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ContentHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *ContentHandler) UpdateCategory(c *gin.Context) {
	category, ok := bindCategory(c)
	if !ok {
		return
	}
	category.ID = c.Param("id")
	if err := h.categories.Update(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
