// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/0x0BSoD/craigsBot/internal/config"
	"github.com/0x0BSoD/craigsBot/internal/fetcher"
	"github.com/0x0BSoD/craigsBot/internal/model"
	"github.com/0x0BSoD/craigsBot/internal/notifier"
	"github.com/0x0BSoD/craigsBot/internal/reporter"
	"github.com/0x0BSoD/craigsBot/internal/server"
	"github.com/0x0BSoD/craigsBot/internal/source"
	"github.com/0x0BSoD/craigsBot/internal/storage"
	"github.com/0x0BSoD/craigsBot/internal/watcher"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Get()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to create botAPI")
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to db")
		return err
	}
	defer db.Close()

	var src fetcher.Source
	switch cfg.SourceFormat {
	case "rss":
		src = source.NewCraigslistRSS(cfg.SourceBaseURL, cfg.RequestTimeout)
	default:
		src = source.NewCraigslistHTML(cfg.SourceBaseURL, cfg.RequestTimeout)
	}

	var (
		listingStorage = storage.NewListingStorage(db)
		listingFetcher = fetcher.New(
			listingStorage,
			src,
			model.Query{
				Site:      cfg.CraigslistSite,
				Category:  cfg.Category,
				MinPrice:  cfg.MinPrice,
				MaxPrice:  cfg.MaxPrice,
				HasImage:  cfg.HasImage,
				SortBy:    model.SortNewest,
				Geotagged: cfg.Geotagged,
				Limit:     cfg.Limit,
			},
			cfg.Location,
		)
		listingNotifier = notifier.New(botAPI, cfg.TelegramChannel, cfg.BotName, cfg.BotIcon)
		errReporter     = reporter.New(botAPI, cfg.TelegramAdminChatID)
		w               = watcher.New(listingFetcher, listingNotifier, errReporter, cfg.FetchInterval)
	)

	if cfg.FetchInterval <= 0 {
		if err := w.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("pass failed")
			errReporter.Notify(watcher.ReportText(err))
			return err
		}
		return nil
	}

	var wg sync.WaitGroup

	if cfg.HTTPAddr != "" {
		wg.Add(1)
		go func(ctx context.Context) {
			defer wg.Done()
			if err := server.New(listingStorage, cfg.HTTPAddr).Run(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("failed to run http server")
					return
				}

				log.Info().Msg("http server stopped")
			}
		}(ctx)
	}

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("failed to run watcher")
		cancel()
		wg.Wait()
		return err
	}

	log.Info().Msg("watcher stopped")
	wg.Wait()
	return nil
}
