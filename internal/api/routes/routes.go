package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/api/handlers"
	"github.com/arogyalabs/bitebot/internal/api/middleware"
	"github.com/arogyalabs/bitebot/internal/services"
)

type Deps struct {
	Auth      services.AuthService
	Chat      *handlers.ChatHandler
	Speech    *handlers.SpeechHandler
	Dashboard *handlers.DashboardHandler
	Location  *handlers.LocationHandler
	AuthH     *handlers.AuthHandler
	Session   *handlers.SessionHandler
	Language  *handlers.LanguageHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	// Public chatbot surface; browser sessions are tracked via
	// X-Session-Id, no login required.
	api.POST("/process_message", d.Chat.ProcessMessage)
	api.POST("/set_language", d.Chat.SetLanguage)
	api.GET("/get_chat_history", d.Chat.GetChatHistory)
	api.POST("/tts", d.Speech.Synthesize)
	api.POST("/stt", d.Speech.Transcribe)
	api.GET("/languages", d.Language.Supported)
	api.POST("/location/search-facilities", d.Location.SearchFacilities)

	api.POST("/auth/register", d.AuthH.Register)
	api.POST("/auth/login", d.AuthH.Login)

	// Logged-in users get persisted sessions.
	sessions := api.Group("/sessions")
	sessions.Use(middleware.JWTAuth(d.Auth))
	sessions.GET("", d.Session.List)
	sessions.POST("", d.Session.Create)
	sessions.GET("/:session_id/messages", d.Session.Messages)
	sessions.DELETE("/:session_id", d.Session.Delete)
	sessions.DELETE("", d.Session.ClearAll)

	// Doctor dashboard.
	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.JWTAuth(d.Auth), middleware.RequireDoctor())
	dashboard.GET("/stats", d.Dashboard.Stats)
	dashboard.GET("/unanswered-questions", d.Dashboard.UnansweredQuestions)
	dashboard.POST("/submit-answer", d.Dashboard.SubmitAnswer)
	dashboard.GET("/user-queries", d.Dashboard.UserQueries)
	dashboard.POST("/add-qa", d.Dashboard.AddQA)
	dashboard.GET("/solved-questions", d.Dashboard.SolvedQuestions)
	dashboard.POST("/update-solved-question", d.Dashboard.UpdateSolvedQuestion)
	dashboard.POST("/delete-solved-question", d.Dashboard.DeleteSolvedQuestion)
}
