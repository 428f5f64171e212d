// Package monitor previews transmitted frames in a browser. A Tap sits
// between a writer and its peripheral, decodes every transfer back into
// colors and hands them to a Hub that broadcasts them to websocket clients.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
)

// Frame is the message sent to websocket clients.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Pixels  int    `json:"pixels"`
	// RGB holds 3 bytes per pixel, W the white channel when the order has one.
	RGB []byte `json:"rgb"`
	W   []byte `json:"w,omitempty"`
}

type Hub struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	last      Frame
	invalid   uint64
	startTime time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients:   map[*websocket.Conn]bool{},
		startTime: time.Now(),
	}
}

// Publish broadcasts colors as the next frame.
func (h *Hub) Publish(colors []model.Color, white bool) {
	f := Frame{T: time.Now().UnixNano(), Pixels: len(colors), RGB: make([]byte, 0, 3*len(colors))}
	if white {
		f.W = make([]byte, 0, len(colors))
	}
	for _, c := range colors {
		f.RGB = append(f.RGB, c.R(), c.G(), c.B())
		if white {
			f.W = append(f.W, c.W())
		}
	}

	h.mu.Lock()
	f.FrameID = h.last.FrameID + 1
	h.last = f
	h.mu.Unlock()

	b, _ := json.Marshal(f)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (h *Hub) rejected() {
	h.mu.Lock()
	h.invalid++
	h.mu.Unlock()
}

// HandleFramesWS upgrades the request and streams frames to the client,
// starting with the last one published.
func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	b, _ := json.Marshal(h.last)
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	err = conn.WriteMessage(websocket.TextMessage, b)
	h.mu.Unlock()
	if err != nil {
		log.Debug().Err(err).Msg("write first frame")
	}

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"frame_id": h.last.FrameID,
		"pixels":   h.last.Pixels,
		"invalid":  h.invalid,
		"clients":  len(h.clients),
		"uptime_s": time.Since(h.startTime).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Handler routes /frames and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", h.HandleFramesWS)
	mux.HandleFunc("/healthz", h.HandleHealth)
	return mux
}

// Serve listens on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler()}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	log.Info().Str("addr", addr).Msg("monitor listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Tap forwards transfers to a peripheral and publishes the colors they
// carry. Transfers holding only reset bytes are not published.
type Tap struct {
	next ws2812.Transferer
	opts ws2812.Opts
	hub  *Hub
}

// NewTap wraps next. o must be the options of the writer using the Tap.
func NewTap(next ws2812.Transferer, o *ws2812.Opts, hub *Hub) *Tap {
	t := &Tap{next: next, hub: hub}
	if o != nil {
		t.opts = *o
	}
	return t
}

// Transfer implements ws2812.Transferer.
func (t *Tap) Transfer(w []byte) error {
	if err := t.next.Transfer(w); err != nil {
		return err
	}
	colors, err := ws2812.Decode(w, &t.opts)
	if err != nil {
		t.hub.rejected()
		log.Debug().Err(err).Int("bytes", len(w)).Msg("undecodable transfer")
		return nil
	}
	if len(colors) > 0 {
		t.hub.Publish(colors, t.opts.Order.Channels() == 4)
	}
	return nil
}

var _ ws2812.Transferer = &Tap{}
