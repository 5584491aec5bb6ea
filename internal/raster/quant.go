package raster

import "encoding/binary"

// QuantizationTable holds one 8x8 quantization table in natural (row-major) order.
type QuantizationTable [64]uint16

// zigzag maps the position of a coefficient in a DQT segment to its natural index.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	markerDQT = 0xDB
	markerTEM = 0x01
)

// ParseQuantTable extracts the luminance (destination 0) quantization table from
// a JPEG stream. It returns nil when the stream is not a JPEG, carries no such
// table, or the table is truncated or contains zero entries.
func ParseQuantTable(data []byte) *QuantizationTable {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil
	}

	pos := 2
	for pos+1 < len(data) {
		if data[pos] != 0xFF {
			return nil
		}
		marker := data[pos+1]
		pos += 2

		switch {
		case marker == 0xFF:
			// fill byte, the marker code follows
			pos--
			continue
		case marker == markerSOS || marker == markerEOI:
			return nil
		case marker == markerTEM || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if pos+2 > len(data) {
			return nil
		}
		segLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		if segLen < 2 || pos+segLen > len(data) {
			return nil
		}

		if marker == markerDQT {
			if t, ok := parseDQT(data[pos+2 : pos+segLen]); ok {
				return t
			}
		}
		pos += segLen
	}
	return nil
}

// parseDQT walks the tables of one DQT segment and returns destination 0 if present.
// A malformed segment yields (nil, true) so the caller stops looking.
func parseDQT(seg []byte) (*QuantizationTable, bool) {
	for off := 0; off < len(seg); {
		precision := seg[off] >> 4
		dest := seg[off] & 0x0F
		off++

		size := 64
		if precision == 1 {
			size = 128
		} else if precision != 0 {
			return nil, true
		}
		if off+size > len(seg) {
			return nil, true
		}

		if dest == 0 {
			var t QuantizationTable
			for k := 0; k < 64; k++ {
				var v uint16
				if precision == 0 {
					v = uint16(seg[off+k])
				} else {
					v = binary.BigEndian.Uint16(seg[off+2*k:])
				}
				if v == 0 {
					return nil, true
				}
				t[zigzag[k]] = v
			}
			return &t, true
		}
		off += size
	}
	return nil, false
}
