package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-engine/internal/api"
	"github.com/ignite/campaign-engine/internal/campaign"
	"github.com/ignite/campaign-engine/internal/config"
	"github.com/ignite/campaign-engine/internal/mailer"
	"github.com/ignite/campaign-engine/internal/repository/postgres"
	"github.com/ignite/campaign-engine/internal/segmentation"
	"github.com/ignite/campaign-engine/internal/template"
	"github.com/ignite/campaign-engine/internal/tracker"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	linkRepo := postgres.NewLinkRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)

	var links tracker.LinkStore = linkRepo
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		links = tracker.NewCachedLinkStore(linkRepo, rdb,
			time.Duration(cfg.Redis.LinkCacheTTLSec)*time.Second)
	}

	recorder := tracker.NewRecorder(eventRepo, tracker.NopGeoResolver{}, tracker.SubstringUAParser{})
	trackerHandler := tracker.NewHandler(links, recorder, tracker.NewAnalytics(eventRepo))

	rewriter := tracker.NewRewriter(links, cfg.Tracking.BaseURL, cfg.Sending.SlugInsertRetries)

	sesMailer, err := mailer.NewSESMailer(context.Background(), cfg.SES)
	if err != nil {
		log.Fatalf("ses: %v", err)
	}

	dispatcher := campaign.NewDispatcher(
		campaignRepo,
		segmentation.NewEngine(db),
		rewriter,
		template.NewEngine(),
		sesMailer,
		time.Duration(cfg.Sending.PerRecipientTimeoutSec)*time.Second,
	)

	srv := api.NewServer(api.NewHandlers(campaignRepo, dispatcher), trackerHandler)

	go func() {
		log.Printf("campaign engine listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(cfg.Server.Addr()); err != nil {
			log.Printf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
