package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
	"github.com/coreman2200/ws2812spi/ws2812test"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/frames", nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readFrame(t *testing.T, c *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

func TestTapBroadcastsDecodedFrames(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	c := dial(t, srv)
	hello := readFrame(t, c)
	assert.Zero(t, hello.FrameID)

	rec := &ws2812test.Recorder{}
	o := ws2812.DefaultOpts()
	tap := NewTap(rec, &o, hub)
	buf := make([]byte, o.RequiredLen(2))
	w := ws2812.NewPrerendered(tap, buf, &o)
	require.NoError(t, w.WriteColors(model.RGB(1, 2, 3), model.RGB(250, 128, 0)))

	assert.Len(t, rec.Calls, 2, "transfers are forwarded")
	f := readFrame(t, c)
	assert.Equal(t, uint64(1), f.FrameID)
	assert.Equal(t, 2, f.Pixels)
	assert.Equal(t, []byte{1, 2, 3, 250, 128, 0}, f.RGB)
	assert.Empty(t, f.W)
}

func TestTapWhiteChannel(t *testing.T) {
	hub := NewHub()
	o := ws2812.Opts{Order: model.OrderGRBW, ResetSingleTransaction: true, MOSIIdleHigh: true}
	tap := NewTap(&ws2812test.Recorder{}, &o, hub)
	require.NoError(t, ws2812.NewHosted(tap, nil, &o).WriteColors(model.RGBW(1, 2, 3, 4)))
	assert.Equal(t, []byte{1, 2, 3}, hub.last.RGB)
	assert.Equal(t, []byte{4}, hub.last.W)
}

func TestTapCountsInvalidTransfers(t *testing.T) {
	hub := NewHub()
	tap := NewTap(&ws2812test.Recorder{}, nil, hub)
	require.NoError(t, tap.Transfer([]byte{0x12, 0x34}))

	rr := httptest.NewRecorder()
	hub.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["invalid"])
	assert.Equal(t, float64(0), resp["frame_id"])
}

func TestTapPropagatesErrors(t *testing.T) {
	hub := NewHub()
	rec := &ws2812test.Recorder{FailAt: 1, Err: assert.AnError}
	err := NewTap(rec, nil, hub).Transfer([]byte{0x88})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, hub.last.FrameID)
}
