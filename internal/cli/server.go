package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examclash-session-service/internal/app"
	"examclash-session-service/internal/config"
	"examclash-session-service/internal/domain"
	"examclash-session-service/internal/grading"
	"examclash-session-service/internal/infra/memory"
	pgloader "examclash-session-service/internal/infra/postgres"
	redisinfra "examclash-session-service/internal/infra/redis"
	transport "examclash-session-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	var grader grading.Strategy = grading.NewLocal()
	if cfg.Grading.Mode == "remote" && cfg.Grading.URL != "" {
		grader = grading.NewRemote(cfg.Grading.URL, config.TTLDuration(cfg.Grading.Timeout, 5*time.Second))
	}

	service := app.NewSessionService(store, questionRepo, grader, app.PolicyDefaults{
		CompetitiveTime: config.TTLDuration(cfg.Session.CompetitiveTime, domain.DefaultCompetitiveTime),
		Participants:    cfg.Session.Participants,
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides demo material when no Postgres bank is
// configured.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"net-basics": {
			ID:    "net-basics",
			Title: "Networking basics",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "TCP guarantees in-order delivery.",
					Kind:   domain.KindBinary,
					Choices: []domain.Choice{
						{Label: "O", Text: "True"},
						{Label: "X", Text: "False"},
					},
					AnswerIndex: 0,
					Difficulty:  domain.DifficultyEasy,
					Explanation: "TCP sequences segments and reorders them on arrival.",
				},
				{
					ID:     "q2",
					Prompt: "Which port does HTTPS use by default?",
					Kind:   domain.KindChoice,
					Choices: []domain.Choice{
						{Label: "A", Text: "80"},
						{Label: "B", Text: "443"},
						{Label: "C", Text: "8080"},
					},
					AnswerIndex: 1,
					Difficulty:  domain.DifficultyEasy,
					Explanation: "HTTPS defaults to TCP port 443.",
				},
				{
					ID:          "q3",
					Prompt:      "Name the protocol that resolves hostnames to IP addresses.",
					Kind:        domain.KindText,
					Keywords:    []string{"dns", "domain name system"},
					Difficulty:  domain.DifficultyMedium,
					Explanation: "DNS translates names like example.com into addresses.",
				},
			},
		},
	}
}
