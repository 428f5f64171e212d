package ws2812

import "github.com/coreman2200/ws2812spi/model"

// render writes the frame for colors into dst, which must be exactly
// o.RequiredLen(len(colors)) long. With ResetSingleTransaction the reset
// regions surround the data, otherwise dst only holds data.
func render(dst []byte, colors []model.Color, o *Opts) {
	i := 0
	if o.ResetSingleTransaction {
		r := o.ResetLen()
		FillReset(dst[:r], o.ResetLevel())
		FillReset(dst[len(dst)-r:], o.ResetLevel())
		i = r
	}
	mask := o.dataMask()
	var ch [4]byte
	for _, c := range colors {
		n := o.Order.Put(ch[:], c)
		for _, v := range ch[:n] {
			encodeTo(dst[i:], v, mask)
			i += BytesPerChannel
		}
	}
}

// resetRegion returns a reusable reset region for o.
func resetRegion(o *Opts) []byte {
	b := make([]byte, o.ResetLen())
	FillReset(b, o.ResetLevel())
	return b
}
