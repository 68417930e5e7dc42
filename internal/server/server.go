// Package server wires the HTTP API: it builds the providers, stores and
// conversation manager from configuration and exposes them over echo.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kataras/golog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/postforge/postforge/config"
	"github.com/postforge/postforge/internal/conversation"
	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/workflow"
	"github.com/postforge/postforge/provider"
	openai_provider "github.com/postforge/postforge/provider/openai"
	redditprovider "github.com/postforge/postforge/provider/reddit"
	tavilyprovider "github.com/postforge/postforge/provider/tavily"
	youtubeprovider "github.com/postforge/postforge/provider/youtube"
)

// Run builds everything from config and serves until the listener fails.
func Run(cfgPath string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	log := golog.New()
	log.SetLevel(cfg.General.LogLevel)
	if cfg.General.Debug {
		log.SetLevel("debug")
	}

	ctx := context.Background()

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required (POSTFORGE_LLM_API_KEY)")
	}
	llm := openai_provider.New(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.Timeout)

	var search provider.Searcher
	if cfg.Providers.Tavily.APIKey != "" {
		search = tavilyprovider.New(cfg.Providers.Tavily.APIKey, cfg.Providers.Tavily.BaseURL)
	} else {
		log.Warnf("tavily api key not set, web search disabled")
	}

	var video provider.VideoSearcher
	if cfg.Providers.YouTube.APIKey != "" {
		svc, err := yt.NewService(ctx, option.WithAPIKey(cfg.Providers.YouTube.APIKey))
		if err != nil {
			return fmt.Errorf("building youtube service: %w", err)
		}
		video = youtubeprovider.New(svc)
	} else {
		log.Warnf("youtube api key not set, video search disabled")
	}

	forum := redditprovider.New(cfg.Providers.Reddit.BaseURL, cfg.Providers.Reddit.UserAgent)

	var (
		research workflow.ResearchStore
		audit    AuditLog
	)
	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
		defer st.Close()
		research = st
		audit = st
	} else {
		log.Warnf("postgres not configured, research cache and audit trail disabled")
	}

	var snapshots conversation.StateStore
	if cfg.Storage.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Storage.Redis.Host + ":" + cfg.Storage.Redis.Port,
			Password:     cfg.Storage.Redis.Password,
			DB:           cfg.Storage.Redis.DB,
			DialTimeout:  cfg.Storage.Redis.Timeout,
			ReadTimeout:  cfg.Storage.Redis.Timeout,
			WriteTimeout: cfg.Storage.Redis.Timeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("pinging redis: %w", err)
		}
		snapshots = conversation.NewRedisStore(client, cfg.Workflow.ConversationTTL)
	} else {
		log.Warnf("redis not configured, paused conversations are kept in memory")
		snapshots = conversation.NewMemoryStore(cfg.Workflow.ConversationTTL)
	}

	wf := workflow.New(llm, search, video, forum, research, cfg.Workflow, log.Child("workflow"))
	manager, err := conversation.NewManager(wf, snapshots, log.Child("conversation"))
	if err != nil {
		return err
	}

	h := &Handlers{
		Manager: manager,
		Audit:   audit,
		Mermaid: wf.Mermaid(),
		Health: map[string]bool{
			"llm":      true,
			"tavily":   search != nil,
			"youtube":  video != nil,
			"reddit":   true,
			"postgres": research != nil,
			"redis":    cfg.Storage.Redis.Host != "",
		},
		Log: log.Child("http"),
	}

	e := newEcho(log)
	h.Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	log.Infof("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newEcho builds the echo instance with the shared middleware and error
// handler. Split out so handler tests can use the same setup.
func newEcho(log *golog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		log.Errorf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	return e
}
