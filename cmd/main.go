package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/Vovarama1992/school-tg-bridge/internal/agent"
	"github.com/Vovarama1992/school-tg-bridge/internal/ai"
	"github.com/Vovarama1992/school-tg-bridge/internal/bridge"
	"github.com/Vovarama1992/school-tg-bridge/internal/config"
	"github.com/Vovarama1992/school-tg-bridge/internal/delivery"
	"github.com/Vovarama1992/school-tg-bridge/internal/humanize"
	"github.com/Vovarama1992/school-tg-bridge/internal/knowledge"
	"github.com/Vovarama1992/school-tg-bridge/internal/ratelimit"
	"github.com/Vovarama1992/school-tg-bridge/internal/students"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	// --- Wiring ---
	aiClient := ai.NewOpenAIClient(cfg.OpenAIKey, cfg.ChatModel, cfg.EmbeddingModel, cfg.ModelCallTimeout)
	searcher := knowledge.NewPgSearcher(db, aiClient, cfg.SearchThreshold, cfg.SearchTopK)
	repo := students.NewRepo(db)
	teachingAgent := agent.New(aiClient, searcher, cfg.HistoryLimit)

	limiter := ratelimit.NewLimiter(cfg.MaxPerMinute, cfg.MaxPerHour, cfg.MaxPerDay)
	pacer := humanize.NewScheduler(cfg.Pacing, rand.NewSource(time.Now().UnixNano()))
	splitter := humanize.NewSplitter()
	transport := bridge.NewOutbound(cfg.TransportBaseURL, cfg.TransportToken)

	gate := delivery.NewGate()
	orch := delivery.NewOrchestrator(gate, teachingAgent, repo, transport, limiter, pacer, splitter,
		delivery.OrchestratorOptions{
			HistoryLimit:        cfg.HistoryLimit,
			MaxSendRetries:      cfg.MaxSendRetries,
			MaxLimiterRetries:   cfg.MaxLimiterRetries,
			InboundMaxPerMinute: cfg.InboundMaxPerMinute,
			InboundMinGap:       cfg.InboundMinGap,
		})
	greeter := delivery.NewGreeter(repo, transport, limiter, pacer, cfg.MaxSendRetries, cfg.MaxLimiterRetries, 0)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	handler := bridge.NewHandler(orch, greeter, limiter)
	bridge.RegisterRoutes(r, handler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// --- Run ---
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go greeter.Run(rootCtx)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	greeter.Wait()
	log.Printf("stopped. Message stats: %s", limiter.Stats())
}
