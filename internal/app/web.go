// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/speedo/internal/config"
	"github.com/relabs-tech/speedo/internal/speed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RunWeb serves the gauge over HTTP, driven by speed readings from MQTT.
func RunWeb() error {
	cfg := config.Get()

	w, err := buildWidget(cfg)
	if err != nil {
		return err
	}
	a := NewAnimator(w, cfg.SpeedUnit)

	client, err := connectMQTT("web", cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSpeed("web", client, cfg.TopicSpeed, func(r speed.Reading) {
		a.SetTarget(r.Value)
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           newWebHandler(a, "web"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errg, gctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return a.Run(gctx, time.Duration(cfg.FrameInterval)*time.Millisecond)
	})
	errg.Go(func() error {
		log.Printf("web: server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	errg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return errg.Wait()
}

// newWebHandler routes the gauge API and, when staticDir is set, the
// static viewer page.
func newWebHandler(a *Animator, staticDir string) http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: gauge state
	mux.HandleFunc("GET /api/gauge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(a.Status()); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	mux.HandleFunc("GET /gauge.png", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := a.WritePNG(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		streamFrames(a, w, r)
	})

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// streamFrames pushes every new frame to a websocket client as a binary
// PNG message, starting with the current one.
func streamFrames(a *Animator, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id, updates, cancel := a.Subscribe()
	defer cancel()
	log.Printf("web: viewer %s connected", id)

	// The reader only watches for the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: viewer %s: %v", id, err)
				}
				return
			}
		}
	}()

	send := func() error {
		var buf bytes.Buffer
		if err := a.WritePNG(&buf); err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
	}

	if err := send(); err != nil {
		log.Printf("web: viewer %s: %v", id, err)
		return
	}
	for {
		select {
		case <-closed:
			log.Printf("web: viewer %s disconnected", id)
			return
		case <-r.Context().Done():
			return
		case <-updates:
			if err := send(); err != nil {
				log.Printf("web: viewer %s: %v", id, err)
				return
			}
		}
	}
}
