package handlers

import "github.com/gin-gonic/gin"

// RegisterAPI mounts the REST API under /api.
func RegisterAPI(r gin.IRouter, games *GameHandler, content *ContentHandler) {
	api := r.Group("/api")

	api.GET("/games/:pin", games.GetGame)
	api.GET("/games/:pin/leaderboard", games.GetLeaderboard)
	api.GET("/history", games.ListHistory)
	api.GET("/stats", games.GetStatistics)

	if content == nil {
		return
	}
	api.GET("/questions", content.ListQuestions)
	api.POST("/questions", content.CreateQuestion)
	api.GET("/questions/:id", content.GetQuestion)
	api.PUT("/questions/:id", content.UpdateQuestion)
	api.DELETE("/questions/:id", content.DeleteQuestion)

	api.GET("/quizzes", content.ListQuizzes)
	api.POST("/quizzes", content.CreateQuiz)
	api.GET("/quizzes/:id", content.GetQuiz)
	api.PUT("/quizzes/:id", content.UpdateQuiz)
	api.DELETE("/quizzes/:id", content.DeleteQuiz)

	api.GET("/categories", content.ListCategories)
	api.POST("/categories", content.CreateCategory)
	api.PUT("/categories/:id", content.UpdateCategory)
	api.DELETE("/categories/:id", content.DeleteCategory)
}
