// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/retailnext/imghostuploader/cache"
	"github.com/retailnext/imghostuploader/config"
	"github.com/retailnext/imghostuploader/creds"
	"github.com/retailnext/imghostuploader/dispatch"
	"github.com/retailnext/imghostuploader/history"
	"github.com/retailnext/imghostuploader/metrics"
	"github.com/retailnext/imghostuploader/pathcheck"
	"github.com/retailnext/imghostuploader/service"
	"github.com/retailnext/imghostuploader/thumbnail"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func setupLogger() func() {
	var logger *zap.Logger
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
	}
}

func setupInterruptContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		select {
		case sig := <-c:
			zap.S().Infow("shutting_down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	onExit := func() {
		signal.Stop(c)
		cancel()
	}
	return ctx, onExit
}

func setupProfile() func() {
	if pprofFile == nil || *pprofFile == "" {
		return func() {
		}
	}
	f, err := os.Create(*pprofFile)
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		panic(err)
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			panic(err)
		}
	}
}

var (
	pprofFile = kingpin.Flag("pprof.cpu.file", "Enable cpu profiling to this file.").String()

	metricsListenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").String()
	metricsPath          = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()

	configFile  = kingpin.Flag("config", "Location of the YAML configuration file.").String()
	historyFile = kingpin.Flag("history-file", "Append settled upload records to this file.").String()

	uploadCmd            = kingpin.Command("upload", "Upload images to a hosting service.")
	uploadCmdService     = uploadCmd.Flag("service", "Destination service.").Default("imx.to").String()
	uploadCmdConcurrency = uploadCmd.Flag("concurrency", "Override the concurrent upload ceiling for the service.").Int64()
	uploadCmdAutoGallery = uploadCmd.Flag("auto-gallery", "Create one gallery per folder before uploading.").Bool()
	uploadCmdPaths       = uploadCmd.Arg("paths", "Image files or directories of images.").Required().Strings()

	validateCmd      = kingpin.Command("validate", "Check paths against the upload rules without uploading.")
	validateCmdPaths = validateCmd.Arg("paths", "Image files or directories of images.").Required().Strings()

	cacheCmd = kingpin.Command("cache", "")

	cacheStatsCmd = cacheCmd.Command("stats", "Report persisted thumbnail cache usage.")
	cacheClearCmd = cacheCmd.Command("clear", "Drop every persisted thumbnail.")
)

func parseOptions() (string, *config.Snapshot) {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate)
	cmd := kingpin.Parse()

	var snap *config.Snapshot
	if *configFile != "" {
		var err error
		snap, err = config.Load(*configFile)
		if err != nil {
			kingpin.Fatalf("config: %s", err)
		}
	} else {
		snap = config.Default()
	}

	if *uploadCmdConcurrency > 0 || *uploadCmdAutoGallery {
		backend := snap.Backends[*uploadCmdService]
		if *uploadCmdConcurrency > 0 {
			backend.Concurrency = *uploadCmdConcurrency
		}
		if *uploadCmdAutoGallery {
			backend.AutoGallery = true
		}
		if snap.Backends == nil {
			snap.Backends = map[string]config.BackendConfig{}
		}
		snap.Backends[*uploadCmdService] = backend
	}

	return cmd, snap
}

func newValidator(cfg config.ValidatorConfig) *pathcheck.Validator {
	return pathcheck.NewValidator(pathcheck.Options{
		AllowedRoots: cfg.AllowedRoots,
		Blocklist:    cfg.Blocklist,
		Extensions:   cfg.Extensions,
		MaxPathLen:   cfg.MaxPathLen,
		MaxFileSize:  cfg.MaxFileSize,
	})
}

func buildRegistry(ctx context.Context, snap *config.Snapshot) *service.Registry {
	lgr := zap.S()
	registry := service.NewRegistry()
	for _, adapter := range []service.Adapter{
		service.NewImxAdapter(nil),
		service.NewPixhostAdapter(nil),
		service.NewTurboAdapter(nil),
	} {
		if err := registry.Register(adapter); err != nil {
			lgr.Panicw("register_adapter_error", "service", adapter.Name(), "err", err)
		}
	}
	if snap.S3.Bucket != "" {
		s3Adapter, err := service.NewS3Adapter(ctx, snap.S3)
		if err != nil {
			lgr.Warnw("s3_adapter_unavailable", "err", err)
		} else if err := registry.Register(s3Adapter); err != nil {
			lgr.Panicw("register_adapter_error", "service", s3Adapter.Name(), "err", err)
		}
	}
	return registry
}

// openThumbnails builds the thumbnail cache per the configured mode. The
// persisted mode opens the shared bolt file; the caller owns closing it.
func openThumbnails(snap *config.Snapshot) (*thumbnail.Cache, thumbnail.Generator) {
	lgr := zap.S()
	var store thumbnail.Store
	switch snap.Cache.Mode {
	case config.CacheModePersisted:
		cache.OpenShared(snap.Cache.Path)
		store = thumbnail.NewBoltStore(cache.Shared, "thumbnails", snap.Cache.SpillDir)
	default:
		store = thumbnail.NewMemoryStore()
	}
	thumbs, err := thumbnail.NewCache(store, thumbnail.Limits{
		MaxEntries: snap.Cache.MaxEntries,
		MaxBytes:   snap.Cache.MaxBytes,
	})
	if err != nil {
		lgr.Fatalw("thumbnail_cache_error", "err", err)
	}
	return thumbs, thumbnail.NewGenerator(snap.Cache.ThumbEdge)
}

func openSink() history.Sink {
	if *historyFile == "" {
		return history.NopSink{}
	}
	sink, err := history.NewFileSink(*historyFile)
	if err != nil {
		zap.S().Fatalw("history_sink_error", "file", *historyFile, "err", err)
	}
	return sink
}

func doUpload(ctx context.Context, snap *config.Snapshot) {
	lgr := zap.S()

	registry := buildRegistry(ctx, snap)
	validator := newValidator(snap.Validator)
	thumbs, generate := openThumbnails(snap)
	defer func() {
		if err := thumbs.Close(); err != nil {
			lgr.Errorw("thumbnail_cache_close_err", "err", err)
		}
	}()
	sink := openSink()
	defer func() {
		if err := sink.Close(); err != nil {
			lgr.Errorw("history_sink_close_err", "err", err)
		}
	}()

	dispatcher, err := dispatch.New(dispatch.Options{
		Registry:    registry,
		Credentials: creds.NewEnvProvider(),
		Validator:   validator,
		Thumbnails:  thumbs,
		Generate:    generate,
		Config:      config.NewHolder(snap),
		Sink:        sink,
	})
	if err != nil {
		lgr.Fatalw("dispatcher_error", "err", err)
	}

	groups := validator.ScanInputs(*uploadCmdPaths)
	if len(groups) == 0 {
		lgr.Fatalw("no_candidate_files", "paths", *uploadCmdPaths)
	}

	handle, err := dispatcher.Submit(ctx, dispatch.Batch{
		Service: *uploadCmdService,
		Groups:  groups,
	})
	if err != nil {
		lgr.Fatalw("submit_error", "err", err)
	}

	go func() {
		for ev := range handle.Events() {
			switch ev.Type {
			case dispatch.EventProgress:
				lgr.Debugw("upload_progress",
					"path", ev.Path,
					"sent", humanize.Bytes(uint64(ev.BytesSent)),
					"total", humanize.Bytes(uint64(ev.BytesTotal)),
				)
			case dispatch.EventStateChange:
				if ev.Err != nil {
					lgr.Infow("task_state", "path", ev.Path, "state", ev.State.String(), "attempt", ev.Attempt, "err", ev.Err)
				} else {
					lgr.Infow("task_state", "path", ev.Path, "state", ev.State.String(), "attempt", ev.Attempt)
				}
			}
		}
	}()

	records := handle.Wait()
	counts := map[string]int{}
	for _, record := range records {
		counts[record.Outcome]++
		if record.Outcome == history.OutcomeSucceeded {
			lgr.Infow("uploaded", "path", record.Path, "url", record.URL)
		}
	}
	lgr.Infow("upload_finished",
		"total", len(records),
		"succeeded", counts[history.OutcomeSucceeded],
		"failed", counts[history.OutcomeFailed],
		"rejected", counts[history.OutcomeRejected],
		"canceled", counts[history.OutcomeCanceled],
	)
	if ctx.Err() != nil {
		return
	}
	if counts[history.OutcomeFailed] > 0 || counts[history.OutcomeRejected] > 0 {
		os.Exit(1)
	}
}

func doValidate(snap *config.Snapshot) {
	lgr := zap.S()
	validator := newValidator(snap.Validator)
	groups := validator.ScanInputs(*validateCmdPaths)
	var accepted, rejected int
	for _, group := range groups {
		for _, path := range group.Paths {
			file, err := validator.Validate(path)
			if err != nil {
				rejected++
				lgr.Warnw("rejected", "path", path, "kind", pathcheck.KindOf(err), "err", err)
				continue
			}
			accepted++
			lgr.Infow("accepted",
				"path", file.Name(),
				"group", group.Name,
				"size", humanize.Bytes(uint64(file.Len())),
			)
		}
	}
	lgr.Infow("validate_finished", "accepted", accepted, "rejected", rejected)
	if rejected > 0 {
		os.Exit(1)
	}
}

func openBoltThumbnailStore(snap *config.Snapshot) *thumbnail.BoltStore {
	lgr := zap.S()
	if snap.Cache.Mode != config.CacheModePersisted {
		lgr.Fatalw("cache_not_persisted", "mode", snap.Cache.Mode)
	}
	cache.OpenShared(snap.Cache.Path)
	return thumbnail.NewBoltStore(cache.Shared, "thumbnails", snap.Cache.SpillDir)
}

func doCacheStats(snap *config.Snapshot) {
	lgr := zap.S()
	store := openBoltThumbnailStore(snap)
	entries, err := store.Index()
	if err != nil {
		lgr.Fatalw("cache_stats_error", "err", err)
	}
	var totalBytes int64
	for _, entry := range entries {
		totalBytes += entry.Size
	}
	lgr.Infow("cache_stats",
		"entries", len(entries),
		"bytes", humanize.Bytes(uint64(totalBytes)),
		"max_entries", snap.Cache.MaxEntries,
		"max_bytes", humanize.Bytes(uint64(snap.Cache.MaxBytes)),
	)
}

func doCacheClear(snap *config.Snapshot) {
	lgr := zap.S()
	store := openBoltThumbnailStore(snap)
	if err := store.DropAll(); err != nil {
		lgr.Fatalw("cache_clear_error", "err", err)
	}
	lgr.Infow("cache_cleared")
}

func main() {
	cmd, snap := parseOptions()

	sync := setupLogger()
	defer sync()
	lgr := zap.S()

	ctx, onExit := setupInterruptContext()
	defer onExit()

	stopProfile := setupProfile()
	defer stopProfile()

	metrics.SetupPrometheus(metricsListenAddress, metricsPath)

	defer func() {
		if cache.Shared != nil {
			if err := cache.Shared.Close(); err != nil {
				lgr.Errorw("cache_close_err", "err", err)
			}
		}
	}()

	switch cmd {
	case uploadCmd.FullCommand():
		doUpload(ctx, snap)
	case validateCmd.FullCommand():
		doValidate(snap)
	case cacheStatsCmd.FullCommand():
		doCacheStats(snap)
	case cacheClearCmd.FullCommand():
		doCacheClear(snap)
	}
}
