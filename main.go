package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"thingforge/server/internal/sim"
	"thingforge/server/logging"
	"thingforge/server/logging/sinks"
)

func main() {
	cfg := loadConfig()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	log := logrus.WithField("component", "host")

	routerSinks := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, true)},
	}
	var jsonLog *os.File
	if cfg.LogJSONPath != "" {
		f, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Fatal("failed to open JSON log file")
		}
		jsonLog = f
		routerSinks = append(routerSinks, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(f, 2*time.Second),
		})
	}
	router := logging.NewRouter(nil, logging.DefaultConfig(), routerSinks)

	storage := newStorage(cfg.GamePath)
	file, err := storage.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load game file")
	}
	state := file.BuildState()
	log.WithFields(logrus.Fields{
		"blueprints": len(state.Blueprints),
		"things":     len(state.Things),
		"path":       cfg.GamePath,
	}).Info("game file loaded")

	engine := sim.NewEngine(state, sim.EngineConfig{
		Seed:      cfg.Seed,
		Publisher: router,
	})

	var saver *debouncer
	hub := newHub(engine, func() { saver.Reset() }, log)
	saver = newDebouncer(cfg.SaveDebounce, func() {
		if err := storage.Flush(hub.SnapshotFile()); err != nil {
			log.WithError(err).Error("failed to flush game file")
		}
	})

	stop := make(chan struct{})
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		hub.RunSimulation(stop, cfg.TickRate)
	}()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		data, err := hub.SnapshotJSON()
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		id := hub.Subscribe(conn)

		snapshot, err := hub.SnapshotJSON()
		if err != nil {
			log.WithError(err).Error("failed to marshal initial state")
			hub.Disconnect(id)
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			hub.Disconnect(id)
			return
		}

		hub.ReadLoop(id, conn)
	})

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.WithField("addr", cfg.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	close(stop)
	<-simDone
	saver.Stop()
	if err := storage.Flush(hub.SnapshotFile()); err != nil {
		log.WithError(err).Error("failed to flush game file on shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := router.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("log router shutdown")
	}
	if jsonLog != nil {
		jsonLog.Close()
	}
}
