package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"marketpulse/internal/model"
	"marketpulse/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Pipeline is the read surface the REST handlers serve from.
type Pipeline interface {
	BarsFor(ctx context.Context, symbol string, tf model.Timeframe, limit int) []model.Bar
	SignalFor(ctx context.Context, symbol string, tf model.Timeframe) (*model.Signal, error)
	DiagnosticsFor(ctx context.Context, symbol string, tf model.Timeframe, limit int, fields []string) (*orchestrator.Diagnostics, error)
}

// Pinger reports backing-store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the route handlers need.
type Deps struct {
	Hub          *Hub
	Pipeline     Pipeline
	Store        Pinger // snapshot store, required
	Redis        Pinger // optional mirror, may be nil
	Symbols      []string
	Timeframes   []model.Timeframe
	CORSOrigins  []string
	ProcessStart time.Time
}

// setCORS sets CORS headers for REST endpoints. An empty origin list
// allows any origin.
func (d Deps) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := "*"
	if len(d.CORSOrigins) > 0 {
		origin = ""
		got := r.Header.Get("Origin")
		for _, o := range d.CORSOrigins {
			if o == "*" || o == got {
				origin = got
				break
			}
		}
		if origin == "" {
			return
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		d.Hub.HandleConn(conn)
	})

	// REST: service health
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		d.setCORS(w, r)

		storeOK := d.Store.Ping(r.Context()) == nil
		resp := map[string]interface{}{
			"status":     "ok",
			"store":      storeOK,
			"ws_clients": d.Hub.ClientCount(),
			"symbols":    d.Symbols,
			"timeframes": d.Timeframes,
			"uptime_sec": int64(time.Since(d.ProcessStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339),
		}
		if d.Redis != nil {
			resp["redis"] = d.Redis.Ping(r.Context()) == nil
		}
		if !storeOK {
			resp["status"] = "degraded"
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// REST: supported timeframes
	mux.HandleFunc("/api/timeframes", func(w http.ResponseWriter, r *http.Request) {
		d.setCORS(w, r)
		writeJSON(w, http.StatusOK, map[string]interface{}{"timeframes": d.Timeframes})
	})

	// REST: recent bars for a pair
	mux.HandleFunc("/api/bars", func(w http.ResponseWriter, r *http.Request) {
		d.setCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		symbol, tf, ok := d.pairParams(w, r)
		if !ok {
			return
		}
		limit := intParam(r, "limit", 300, 5000)
		bars := d.Pipeline.BarsFor(r.Context(), symbol, tf, limit)
		out := make([]map[string]interface{}, 0, len(bars))
		for _, b := range bars {
			out = append(out, map[string]interface{}{
				"ts":     b.TS.UTC().Format(time.RFC3339),
				"open":   b.Open,
				"high":   b.High,
				"low":    b.Low,
				"close":  b.Close,
				"volume": b.Volume,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":    symbol,
			"timeframe": tf,
			"count":     len(out),
			"bars":      out,
		})
	})

	// REST: current signal for a pair
	mux.HandleFunc("/api/signal", func(w http.ResponseWriter, r *http.Request) {
		d.setCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		symbol, tf, ok := d.pairParams(w, r)
		if !ok {
			return
		}
		sig, err := d.Pipeline.SignalFor(r.Context(), symbol, tf)
		if err != nil {
			if errors.Is(err, orchestrator.ErrInsufficientData) {
				writeError(w, http.StatusTooEarly, "insufficient data")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sig)
	})

	// REST: windowed indicator diagnostics
	mux.HandleFunc("/api/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		d.setCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		symbol, tf, ok := d.pairParams(w, r)
		if !ok {
			return
		}
		limit := intParam(r, "limit", 120, 1200)
		var fields []string
		if raw := r.URL.Query().Get("fields"); raw != "" {
			for _, f := range strings.Split(raw, ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
		}
		diag, err := d.Pipeline.DiagnosticsFor(r.Context(), symbol, tf, limit, fields)
		if err != nil {
			if errors.Is(err, orchestrator.ErrInsufficientData) {
				writeError(w, http.StatusTooEarly, "insufficient data")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, diag)
	})
}

// pairParams extracts and validates the symbol/tf query params shared by the
// per-pair endpoints.
func (d Deps) pairParams(w http.ResponseWriter, r *http.Request) (string, model.Timeframe, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		if len(d.Symbols) == 0 {
			writeError(w, http.StatusBadRequest, "symbol required")
			return "", "", false
		}
		symbol = d.Symbols[0]
	}
	tfStr := r.URL.Query().Get("tf")
	if tfStr == "" {
		tfStr = string(model.TF1Hour)
	}
	tf, err := model.ParseTimeframe(tfStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown timeframe: "+tfStr)
		return "", "", false
	}
	return symbol, tf, true
}

func intParam(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
