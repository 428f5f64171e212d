package ws2812_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ws2812spi/model"
	. "github.com/coreman2200/ws2812spi/ws2812"
	"github.com/coreman2200/ws2812spi/ws2812test"
)

var errBus = errors.New("bus fault")

func sampleColors(n int) []model.Color {
	out := make([]model.Color, n)
	for i := range out {
		out[i] = model.RGBW(uint8(i*37), uint8(i*11+5), uint8(255-i), uint8(i))
	}
	return out
}

func streamed(t *testing.T, o *Opts, colors []model.Color) []byte {
	t.Helper()
	f := &ws2812test.FIFO{}
	require.NoError(t, NewStream(f, o).Write(model.Slice(colors...)))
	assert.Zero(t, f.Pending())
	return f.Wire
}

func prerendered(t *testing.T, o *Opts, colors []model.Color) (*ws2812test.Recorder, []byte) {
	t.Helper()
	rec := &ws2812test.Recorder{}
	buf := make([]byte, o.RequiredLen(len(colors)))
	require.NoError(t, NewPrerendered(rec, buf, o).Write(model.Slice(colors...)))
	return rec, buf
}

func TestScenarioSinglePixelPathsAgree(t *testing.T) {
	o := DefaultOpts()
	c := model.RGB(0xFF, 0x00, 0x80)

	wire := streamed(t, &o, []model.Color{c})
	rec, _ := prerendered(t, &o, []model.Color{c})

	want := []byte{
		0x88, 0x88, 0x88, 0x88, // G 0x00
		0xEE, 0xEE, 0xEE, 0xEE, // R 0xFF
		0xE8, 0x88, 0x88, 0x88, // B 0x80
	}
	want = append(want, make([]byte, o.ResetLen())...)
	assert.Equal(t, want, wire)
	assert.Equal(t, want, rec.Bytes())
	assert.Len(t, rec.Calls, 2, "data and trailing reset are separate transfers")
}

func TestStreamAndPrerenderedAgreeForAllVariants(t *testing.T) {
	colors := sampleColors(7)
	for _, order := range []model.Order{model.OrderGRB, model.OrderRGB, model.OrderGRBW} {
		for _, idleHigh := range []bool{false, true} {
			for _, single := range []bool{false, true} {
				o := DefaultOpts()
				o.Order, o.MOSIIdleHigh, o.ResetSingleTransaction = order, idleHigh, single
				rec, _ := prerendered(t, &o, colors)
				wire := streamed(t, &o, colors)
				assert.Equal(t, rec.Bytes(), wire, "%s idleHigh=%v single=%v", order, idleHigh, single)
				assert.Len(t, wire, o.FrameLen(len(colors)))
			}
		}
	}
}

func TestRequiredLenIsAffine(t *testing.T) {
	for _, order := range []model.Order{model.OrderGRB, model.OrderGRBW} {
		for _, single := range []bool{false, true} {
			o := Opts{Order: order, ResetSingleTransaction: single}
			base := o.RequiredLen(0)
			if single {
				assert.Equal(t, 2*o.ResetLen(), base)
			} else {
				assert.Zero(t, base)
			}
			for _, n := range []int{1, 3, 10, 250} {
				data := o.RequiredLen(n) - base
				assert.Equal(t, n*order.Channels()*BytesPerChannel, data)
				assert.Equal(t, 2*data, o.RequiredLen(2*n)-base)
			}
		}
	}
}

func TestPrerenderedBufferTooShort(t *testing.T) {
	colors := sampleColors(4)
	for _, single := range []bool{false, true} {
		o := Opts{ResetSingleTransaction: single}
		need := o.RequiredLen(len(colors))
		for _, size := range []int{0, 1, need - 1} {
			buf := bytes.Repeat([]byte{0xA5}, size)
			rec := &ws2812test.Recorder{}
			err := NewPrerendered(rec, buf, &o).Write(model.Slice(colors...))

			require.ErrorIs(t, err, ErrBufferTooShort)
			var e *BufferTooShortError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, need, e.Need)
			assert.Equal(t, size, e.Have)
			assert.Equal(t, bytes.Repeat([]byte{0xA5}, size), buf, "buffer must be untouched")
			assert.Empty(t, rec.Calls, "nothing may be transferred")
		}
	}
}

func TestPrerenderedLargerBufferSendsOnlyFrame(t *testing.T) {
	o := DefaultOpts()
	colors := sampleColors(2)
	rec := &ws2812test.Recorder{}
	buf := make([]byte, o.RequiredLen(len(colors))+100)
	require.NoError(t, NewPrerendered(rec, buf, &o).Write(model.Slice(colors...)))
	require.Len(t, rec.Calls, 2)
	assert.Len(t, rec.Calls[0], DataLen(2, 3))
}

func TestHostedBufferTooShort(t *testing.T) {
	colors := sampleColors(3)
	rec := &ws2812test.Recorder{}
	buf := bytes.Repeat([]byte{0xA5}, 10)
	h := NewHosted(rec, buf, nil)
	err := h.Write(model.Slice(colors...))
	require.ErrorIs(t, err, ErrBufferTooShort)
	var e *BufferTooShortError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, h.RequiredLen(3), e.Need)
	assert.Equal(t, bytes.Repeat([]byte{0xA5}, 10), buf, "buffer must be untouched")
	assert.Empty(t, rec.Calls)
}

func TestWritersRejectInvalidOpts(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
	}{
		{"negative queue depth", Opts{QueueDepth: -1}},
		{"five channel order", Opts{Order: "GRBWR"}},
		{"unknown channel", Opts{Order: "GRX"}},
		{"clock too fast", Opts{Freq: 10 * DefaultFreq}},
		{"negative reset", Opts{Reset: -DefaultReset}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colors := sampleColors(2)

			f := &ws2812test.FIFO{}
			err := NewStream(f, &tt.opts).WriteColors(colors...)
			assert.ErrorIs(t, err, ErrInvalidOpts, "stream")
			assert.Empty(t, f.Wire)

			buf := bytes.Repeat([]byte{0xA5}, 512)
			rec := &ws2812test.Recorder{}
			err = NewPrerendered(rec, buf, &tt.opts).WriteColors(colors...)
			assert.ErrorIs(t, err, ErrInvalidOpts, "prerendered")
			assert.Equal(t, bytes.Repeat([]byte{0xA5}, 512), buf)

			err = NewHosted(rec, nil, &tt.opts).WriteColors(colors...)
			assert.ErrorIs(t, err, ErrInvalidOpts, "hosted")
			assert.Empty(t, rec.Calls)

			_, err = Decode(make([]byte, 8), &tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOpts, "decode")
		})
	}
}

func TestIdleHighInvertsResetRegions(t *testing.T) {
	colors := sampleColors(3)

	low := DefaultOpts()
	high := DefaultOpts()
	high.MOSIIdleHigh = true

	lowRec, _ := prerendered(t, &low, colors)
	highRec, _ := prerendered(t, &high, colors)

	// Idle high adds a leading reset as its own transfer.
	require.Len(t, lowRec.Calls, 2)
	require.Len(t, highRec.Calls, 3)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, high.ResetLen()), highRec.Calls[0])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, high.ResetLen()), highRec.Calls[2])
	assert.Equal(t, bytes.Repeat([]byte{0x00}, low.ResetLen()), lowRec.Calls[1])
	// Data in its own transfer keeps its polarity.
	assert.Equal(t, lowRec.Calls[0], highRec.Calls[1])
}

func TestIdleHighFoldedInvertsEverything(t *testing.T) {
	colors := sampleColors(5)

	low := Opts{ResetSingleTransaction: true}
	high := Opts{ResetSingleTransaction: true, MOSIIdleHigh: true}

	lowRec, _ := prerendered(t, &low, colors)
	highRec, _ := prerendered(t, &high, colors)
	require.Len(t, lowRec.Calls, 1)
	require.Len(t, highRec.Calls, 1)

	l, h := lowRec.Calls[0], highRec.Calls[0]
	require.Equal(t, len(l), len(h))
	for i := range l {
		assert.Equal(t, l[i]^0xFF, h[i], "offset %d", i)
	}
}

func TestEmptyFrameIsResetOnly(t *testing.T) {
	o := DefaultOpts()

	rec, _ := prerendered(t, &o, nil)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, make([]byte, o.ResetLen()), rec.Bytes())

	wire := streamed(t, &o, nil)
	assert.Equal(t, make([]byte, o.ResetLen()), wire)
	assert.Equal(t, o.ResetLen(), o.FrameLen(0))
}

func TestSingleTransactionAddsOneResetRegion(t *testing.T) {
	colors := sampleColors(6)
	sep := DefaultOpts()
	one := DefaultOpts()
	one.ResetSingleTransaction = true

	sepRec, _ := prerendered(t, &sep, colors)
	oneRec, _ := prerendered(t, &one, colors)

	require.Len(t, sepRec.Calls, 2)
	require.Len(t, oneRec.Calls, 1)
	assert.Equal(t, one.ResetLen(), len(oneRec.Bytes())-len(sepRec.Bytes()))

	r := one.ResetLen()
	data := oneRec.Calls[0][r : len(oneRec.Calls[0])-r]
	assert.Equal(t, sepRec.Calls[0], data, "data region must be identical")
}

func TestHostedSingleCall(t *testing.T) {
	colors := sampleColors(4)
	o := DefaultOpts()
	rec := &ws2812test.Recorder{}
	h := NewHosted(rec, nil, &o)

	require.NoError(t, h.Write(model.Slice(colors...)))
	require.NoError(t, h.WriteColors(colors[:1]...))
	require.NoError(t, h.WriteColors())
	require.Len(t, rec.Calls, 3, "exactly one transfer per write")

	r := o.ResetLen()
	assert.Len(t, rec.Calls[0], 2*r+DataLen(4, 3))
	assert.Equal(t, h.RequiredLen(4), len(rec.Calls[0]))
	assert.Len(t, rec.Calls[2], 2*r)

	single := o
	single.ResetSingleTransaction = true
	pre, _ := prerendered(t, &single, colors)
	assert.Equal(t, pre.Calls[0], rec.Calls[0], "hosted matches prerendered single transaction")

	got, err := Decode(rec.Calls[1], &o)
	require.NoError(t, err)
	assert.Equal(t, colors[:1], got)
}

func TestHostedCallerBuffer(t *testing.T) {
	colors := sampleColors(2)
	o := DefaultOpts()
	rec := &ws2812test.Recorder{}
	buf := make([]byte, NewHosted(rec, nil, &o).RequiredLen(2))
	require.NoError(t, NewHosted(rec, buf, &o).Write(model.Slice(colors...)))
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, buf, rec.Calls[0])
}

func TestPrerenderedTransferErrorAborts(t *testing.T) {
	o := DefaultOpts()
	o.MOSIIdleHigh = true
	rec := &ws2812test.Recorder{FailAt: 2, Err: errBus}
	buf := make([]byte, o.RequiredLen(3))
	err := NewPrerendered(rec, buf, &o).Write(model.Slice(sampleColors(3)...))

	require.ErrorIs(t, err, ErrTransferFailed)
	require.ErrorIs(t, err, errBus)
	assert.Len(t, rec.Calls, 2, "the trailing reset must not be attempted")
}

func TestHostedTransferError(t *testing.T) {
	rec := &ws2812test.Recorder{FailAt: 1, Err: errBus}
	err := NewHosted(rec, nil, nil).WriteColors(model.RGB(1, 2, 3))
	require.ErrorIs(t, err, ErrTransferFailed)
	require.ErrorIs(t, err, errBus)
}

func TestStreamSendErrorAborts(t *testing.T) {
	o := DefaultOpts()
	f := &ws2812test.FIFO{FailAfter: 10, Err: errBus}
	err := NewStream(f, &o).Write(model.Slice(sampleColors(3)...))

	require.ErrorIs(t, err, ErrTransferFailed)
	require.ErrorIs(t, err, errBus)
	assert.Less(t, len(f.Wire), o.FrameLen(3))
}

type failingRead struct{ ws2812test.FIFO }

func (f *failingRead) Read() (byte, error) { return 0, errBus }

func TestStreamReadErrorAborts(t *testing.T) {
	err := NewStream(&failingRead{}, nil).WriteColors(model.RGB(1, 2, 3))
	require.ErrorIs(t, err, ErrTransferFailed)
	require.ErrorIs(t, err, errBus)
}

func TestStreamSlowPeripheral(t *testing.T) {
	colors := sampleColors(5)
	o := DefaultOpts()
	for _, tc := range []struct {
		name  string
		fifo  *ws2812test.FIFO
		depth int
	}{
		{"single byte register", &ws2812test.FIFO{Depth: 1, Period: 3}, 2},
		{"deep fifo", &ws2812test.FIFO{Depth: 4, RxDepth: 4, Period: 5}, 4},
		{"writer depth one", &ws2812test.FIFO{Depth: 2, Period: 2}, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o.QueueDepth = tc.depth
			require.NoError(t, NewStream(tc.fifo, &o).Write(model.Slice(colors...)))
			assert.Equal(t, streamed(t, &o, colors), tc.fifo.Wire)
			assert.LessOrEqual(t, tc.fifo.MaxQueued, tc.fifo.Depth)
			assert.Zero(t, tc.fifo.Pending())
		})
	}
}

func TestStreamConsumesSourceOnce(t *testing.T) {
	calls := 0
	src := model.SourceFunc(func() (model.Color, bool) {
		calls++
		if calls > 3 {
			return model.Color{}, false
		}
		return model.RGB(1, 1, 1), true
	})
	require.NoError(t, NewStream(&ws2812test.FIFO{}, nil).Write(src))
	assert.Equal(t, 4, calls)
}

func TestDecodeRoundTrip(t *testing.T) {
	colors := sampleColors(9)
	for _, order := range []model.Order{model.OrderGRB, model.OrderBGR, model.OrderGRBW} {
		for _, idleHigh := range []bool{false, true} {
			o := Opts{Order: order, MOSIIdleHigh: idleHigh, ResetSingleTransaction: true}
			rec := &ws2812test.Recorder{}
			require.NoError(t, NewHosted(rec, nil, &o).WriteColors(colors...))
			got, err := Decode(rec.Bytes(), &o)
			require.NoError(t, err)
			want := colors
			if order.Channels() == 3 {
				want = make([]model.Color, len(colors))
				for i, c := range colors {
					want[i] = model.RGB(c.R(), c.G(), c.B())
				}
			}
			assert.Equal(t, want, got, "%s idleHigh=%v", order, idleHigh)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0x88, 0x88, 0x88}, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	_, err = Decode(append(bytes.Repeat([]byte{0x88}, 11), 0x12), nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	got, err := Decode(make([]byte, 20), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriterLogsFrames(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	o := DefaultOpts()
	o.Logger = &l

	require.NoError(t, NewHosted(&ws2812test.Recorder{}, nil, &o).WriteColors(model.RGB(1, 2, 3)))
	assert.Contains(t, buf.String(), `"message":"ws2812: frame sent"`)
	assert.Contains(t, buf.String(), `"pixels":1`)

	buf.Reset()
	err := NewPrerendered(&ws2812test.Recorder{}, nil, &o).WriteColors(model.RGB(1, 2, 3))
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
