package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arogyalabs/bitebot/config"
	"github.com/arogyalabs/bitebot/internal/api/handlers"
	"github.com/arogyalabs/bitebot/internal/api/middleware"
	"github.com/arogyalabs/bitebot/internal/api/routes"
	"github.com/arogyalabs/bitebot/internal/cache"
	"github.com/arogyalabs/bitebot/internal/location"
	"github.com/arogyalabs/bitebot/internal/logger"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	"github.com/arogyalabs/bitebot/internal/providers/stt"
	"github.com/arogyalabs/bitebot/internal/providers/translate"
	"github.com/arogyalabs/bitebot/internal/providers/tts"
	mongorepo "github.com/arogyalabs/bitebot/internal/repositories/mongo"
	pgrepo "github.com/arogyalabs/bitebot/internal/repositories/postgres"
	"github.com/arogyalabs/bitebot/internal/services"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("mongodb init failed")
	}
	log.Info("mongodb connected")

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgresql init failed")
	}
	log.Info("postgresql connected")

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	log.Info("redis connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("mongodb index creation failed")
	}

	db := config.MongoDatabase()
	sessionRepo := mongorepo.NewSessionRepo(db)
	messageRepo := mongorepo.NewMessageRepo(db)
	interactionRepo := mongorepo.NewInteractionRepo(db)
	inboxRepo := mongorepo.NewInboxRepo(db)
	solvedRepo := mongorepo.NewSolvedRepo(db)
	userRepo := mongorepo.NewUserRepo(db)
	knowledgeRepo := pgrepo.NewKnowledgeRepo(config.PostgresDB)

	redisCache := cache.NewRedisCache(config.RedisClient)

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}
	openaiClient := llm.NewOpenAI(openaiKey)

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	vertexLocation := os.Getenv("VERTEX_LOCATION")
	if vertexLocation == "" {
		vertexLocation = "us-central1"
	}

	var generator llm.Generator
	if gem, err := llm.NewVertexGemini(ctx, projectID, vertexLocation, os.Getenv("VERTEX_MODEL")); err != nil {
		log.WithError(err).Warn("vertex gemini unavailable, answer generation disabled")
	} else {
		generator = gem
		defer gem.Close()
	}

	// Translation degrades to pass-through when the client cannot be
	// built.
	translator, err := translate.NewGoogleTranslate(ctx, projectID, log)
	if err != nil {
		log.WithError(err).Warn("google translate unavailable, responses stay in english")
		translator = nil
	} else {
		defer translator.Close()
	}

	var ttsProvider tts.Provider
	if t, err := tts.NewGoogleTTS(ctx); err != nil {
		log.WithError(err).Warn("text-to-speech unavailable")
	} else {
		ttsProvider = t
		defer t.Close()
	}

	var sttProvider stt.Provider
	if s, err := stt.NewGoogleSpeech(ctx); err != nil {
		log.WithError(err).Warn("speech-to-text unavailable")
	} else {
		sttProvider = s
		defer s.Close()
	}

	historyStore := services.NewHistoryStore(redisCache, 24*time.Hour)
	prefs := services.NewLanguagePrefs(redisCache, 24*time.Hour)
	knowledgeSvc := services.NewKnowledgeService(knowledgeRepo, openaiClient, log)
	escalationSvc := services.NewEscalationService(inboxRepo, solvedRepo, interactionRepo, knowledgeSvc,
		services.EscalationOptions{
			FilterCasual:     os.Getenv("ESCALATION_FILTER_CASUAL") == "true",
			FilterDuplicates: os.Getenv("ESCALATION_FILTER_DUPLICATES") == "true",
		}, log)
	sessionSvc := services.NewSessionService(sessionRepo, messageRepo, log)
	chatSvc := services.NewChatService(openaiClient, generator, translator, knowledgeSvc,
		escalationSvc, historyStore, sessionSvc, log)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	authSvc := services.NewAuthService(userRepo, jwtSecret, log)

	finder := location.NewFinder(log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      authSvc,
		Chat:      handlers.NewChatHandler(chatSvc, historyStore, prefs),
		Speech:    handlers.NewSpeechHandler(ttsProvider, sttProvider),
		Dashboard: handlers.NewDashboardHandler(escalationSvc),
		Location:  handlers.NewLocationHandler(finder),
		AuthH:     handlers.NewAuthHandler(authSvc),
		Session:   handlers.NewSessionHandler(sessionSvc),
		Language:  handlers.NewLanguageHandler(translator, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
