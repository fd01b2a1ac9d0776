package main

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/proxy"

	"github.com/DosDaiynSol/infinity-life-assistant/catalog"
	"github.com/DosDaiynSol/infinity-life-assistant/config"
	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/data/repos"
	"github.com/DosDaiynSol/infinity-life-assistant/engine"
	"github.com/DosDaiynSol/infinity-life-assistant/filters"
	"github.com/DosDaiynSol/infinity-life-assistant/handlers"
	"github.com/DosDaiynSol/infinity-life-assistant/llm"
	"github.com/DosDaiynSol/infinity-life-assistant/notifiers"
	"github.com/DosDaiynSol/infinity-life-assistant/sources"
)

var auth *handlers.AuthHandler

//go:embed data/migrations/*.sql
var embedMigrations embed.FS

func main() {
	config.LoadConfig()

	opts := slog.HandlerOptions{Level: config.Config.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	db, err := sqlx.Connect("postgres", config.Config.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := data.RunMigrations(db.DB, embedMigrations); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(config.Config.Timezone)
	if err != nil {
		slog.Error("invalid clinic timezone", "timezone", config.Config.Timezone, "error", err)
		os.Exit(1)
	}

	postRepo := repos.NewPostRepo(db)
	apiLogRepo := repos.NewApiLogRepo(db)

	keycloakClient := gocloak.NewClient(config.Config.KeycloakURL)
	auth = handlers.NewAuthHandler(keycloakClient)

	// A single proxy URL dials through one SOCKS5 client; two or more rotate
	// through the pool.
	var pool *sources.ProxyPool
	singleProxy := ""
	if len(config.Config.ThreadsProxyURLs) == 1 {
		singleProxy = config.Config.ThreadsProxyURLs[0]
	} else if len(config.Config.ThreadsProxyURLs) > 1 {
		pool, err = sources.NewProxyPool(config.Config.ThreadsProxyURLs)
		if err != nil {
			slog.Error("failed to create proxy pool", "error", err)
			os.Exit(1)
		}
	}

	client, err := httpClient(singleProxy)
	if err != nil {
		slog.Error("failed to create http client", "error", err)
		os.Exit(1)
	}

	threads := sources.NewThreadsClient(logger, client, pool, config.Config.ThreadsBaseURL, config.Config.ThreadsAccessToken)
	assistant := llm.NewOpenAIClient(logger, llm.Config{
		BaseURL:        config.Config.OpenAIBaseURL,
		APIKey:         config.Config.OpenAIAPIKey,
		Model:          config.Config.OpenAIModel,
		ClinicName:     config.Config.ClinicName,
		ClinicPhone:    config.Config.ClinicPhone,
		ReplyMaxLength: config.Config.ReplyMaxLength,
	})

	bus := engine.NewBus()
	quota := engine.NewQuota(
		postRepo,
		location,
		config.Config.MaxRepliesPerDay,
		config.Config.MinReplyInterval,
		config.Config.WorkHourStart,
		config.Config.WorkHourEnd,
	)

	eng := engine.New(
		logger,
		threads,
		threads,
		assistant,
		assistant,
		postRepo,
		apiLogRepo,
		filters.NewLanguageGuard(),
		bus,
		quota,
		location,
		engine.Config{
			LocaleKeyword:   catalog.LocaleKeyword,
			DomainKeywords:  catalog.DomainKeywords(),
			CyclesPerDay:    config.Config.CyclesPerDay,
			Lookback:        config.Config.SearchLookback,
			SearchLimit:     config.Config.SearchLimit,
			RequestDelay:    config.Config.SearchRequestDelay,
			ValidationBatch: config.Config.ValidationBatch,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler, err := engine.NewScheduler(logger, eng, config.Config.CycleTimes, location)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	go scheduler.Start(ctx)

	if config.Config.SummaryEmailTo != "" {
		mailer := notifiers.NewMailer(
			config.Config.SMTPHost,
			config.Config.SMTPPort,
			config.Config.SMTPFrom,
			config.Config.SMTPPassword,
		)
		notifier := NewSummaryNotifier(logger, mailer, bus, postRepo, config.Config.SummaryEmailTo)
		go notifier.Start(ctx)
	}

	bot := handlers.NewBotHandler(eng, proxyReporter(pool))
	posts := handlers.NewPostsHandler(postRepo)
	events := handlers.NewEventsHandler(bus)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /search/run", private(bot.RunCycle))
	mux.HandleFunc("POST /search/stop", private(bot.StopCycle))
	mux.HandleFunc("POST /validation/run", private(bot.RunValidation))
	mux.HandleFunc("GET /search/status", private(bot.GetStatus))
	mux.HandleFunc("GET /stats", private(bot.GetStats))

	mux.HandleFunc("GET /posts", private(posts.GetPosts))
	mux.HandleFunc("GET /posts/{id}", private(posts.GetPost))

	mux.HandleFunc("GET /events", privateRaw(events.Stream))

	mux.Handle("GET /metrics", promhttp.Handler())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		eng.Stop()
		cancel()
		if err := db.Close(); err != nil {
			slog.Error("failed to close database connection", "error", err)
		}
		os.Exit(0)
	}()

	slog.Info("Starting server on port 8080")
	err = http.ListenAndServe(":8080", withCORS(mux))
	if err != nil {
		slog.Error("failed to start server", "error", err)
	}
}

// proxyReporter keeps a nil *ProxyPool from turning into a non-nil interface.
func proxyReporter(pool *sources.ProxyPool) handlers.ProxyReporter {
	if pool == nil {
		return nil
	}
	return pool
}

func httpClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	if proxyURL == "" {
		return client, nil
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme != "socks5" {
		return client, nil
	}

	// SOCKS5 proxy with authentication
	var auth *proxy.Auth
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		auth = &proxy.Auth{
			User:     parsedURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}
	slog.Info("using SOCKS5 proxy", "proxy", parsedURL.Host)

	return client, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func private(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := auth.GetOperator(r.Context(), r.Header.Get("Authorization"))
		if result.Code != http.StatusOK {
			slog.Debug("unauthorized request", "path", r.URL.Path)
			writeResult(w, result)
			return
		}

		public(handler)(w, r)
	}
}

// privateRaw guards handlers that write the response themselves, like the
// event stream.
func privateRaw(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := auth.GetOperator(r.Context(), r.Header.Get("Authorization"))
		if result.Code != http.StatusOK {
			slog.Debug("unauthorized request", "path", r.URL.Path)
			writeResult(w, result)
			return
		}

		handler(w, r)
	}
}

func public(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := time.Now()
		res := handler(w, r)
		elapsedMs := time.Since(ts).Milliseconds()
		slog.Debug("req", "method", r.Method, "path", r.URL.Path, "code", res.Code, "elapsed", elapsedMs)
		writeResult(w, res)
	}
}

func writeResult(w http.ResponseWriter, res handlers.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)
	if res.Body != nil {
		if err := json.NewEncoder(w).Encode(res.Body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
	if res.Code == http.StatusInternalServerError {
		slog.Error("internal error", "error", res.Error.Error())
	}
}
