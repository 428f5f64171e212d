package ws2812

// BytesPerChannel is the number of output bytes produced for one channel byte.
const BytesPerChannel = 4

// Two protocol bits per output byte, high time first.
var patterns = [4]byte{0b1000_1000, 0b1000_1110, 0b1110_1000, 0b1110_1110}

// nibbles maps 4 protocol bits to their 2 output bytes.
var nibbles [16][2]byte

func init() {
	for n := range nibbles {
		nibbles[n] = [2]byte{patterns[n>>2], patterns[n&3]}
	}
}

// EncodeNibble returns the two output bytes for the low 4 bits of n.
func EncodeNibble(n byte) [2]byte {
	return nibbles[n&0x0F]
}

// EncodeTo writes the 4 output bytes of v to dst[0:4], most significant bit
// first. dst must hold at least BytesPerChannel bytes.
func EncodeTo(dst []byte, v byte) {
	encodeTo(dst, v, 0)
}

// Encode appends the 4 output bytes of v to dst.
func Encode(dst []byte, v byte) []byte {
	hi, lo := nibbles[v>>4], nibbles[v&0x0F]
	return append(dst, hi[0], hi[1], lo[0], lo[1])
}

// encodeTo is EncodeTo with every output byte XORed with mask.
func encodeTo(dst []byte, v byte, mask byte) {
	_ = dst[3]
	hi, lo := nibbles[v>>4], nibbles[v&0x0F]
	dst[0] = hi[0] ^ mask
	dst[1] = hi[1] ^ mask
	dst[2] = lo[0] ^ mask
	dst[3] = lo[1] ^ mask
}

// DataLen is the encoded size of n pixels of the given arity.
func DataLen(n, channels int) int {
	return n * channels * BytesPerChannel
}
