package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/navien/internal/protocol"
)

// Handler returns the bridge's HTTP routes:
//
//	GET  /ws       WebSocket state stream and command intake
//	GET  /state    last decoded state as JSON
//	POST /command  queue a protocol.Request
//	GET  /stats    bridge and session counters
//	GET  /healthz  liveness
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", b.handleWebSocket)
	mux.HandleFunc("GET /state", b.handleState)
	mux.HandleFunc("POST /command", b.handleCommand)
	mux.HandleFunc("GET /stats", b.handleStats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type stateResponse struct {
	State     *protocol.DeviceState `json:"state"`
	ReadAt    time.Time             `json:"read_at"`
	LastError string                `json:"last_error,omitempty"`
}

func (b *Bridge) handleState(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	resp := stateResponse{State: b.last, ReadAt: b.lastAt}
	if b.lastErr != nil {
		resp.LastError = b.lastErr.Error()
	}
	b.mu.Unlock()

	if resp.State == nil {
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Bridge) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Type: TypeError, Error: "invalid JSON: " + err.Error()})
		return
	}

	id, err := b.Enqueue(r.URL.Query().Get("id"), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrQueueFull) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, envelope{Type: TypeError, ID: id, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{Type: TypeAck, ID: id})
}

func (b *Bridge) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves HTTP on Config.Listen, polls the controller and, if enabled,
// advertises the bridge. It blocks until ctx is done, then shuts down.
func (b *Bridge) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.config.Listen, err)
	}
	return b.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	b.logger.Info("Bridge listening",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("poll_interval", b.config.PollInterval),
	)

	if b.config.Advertise {
		if addr, ok := ln.Addr().(*net.TCPAddr); !ok {
			b.logger.Warn("mDNS advertisement skipped, listener is not TCP", zap.Stringer("addr", ln.Addr()))
		} else if adv, err := Advertise(b.config.InstanceName, addr.Port); err != nil {
			b.logger.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	var wg sync.WaitGroup
	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Poll(pollCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		b.logger.Info("Shutting down bridge")
	case err := <-errChan:
		stopPoll()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	stopPoll()
	wg.Wait()
	b.hub.closeAll()
	return err
}
