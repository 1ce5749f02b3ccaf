package rr

import (
	"fmt"
	"sort"

	"github.com/trustwalk/trustwalk/dnserr"
)

// EncodeTypeBitmap packs a set of RR types into the RFC 4034 §4.1.2 / RFC
// 5155 windowed bitmap format shared by NSEC and NSEC3.
func EncodeTypeBitmap(types []Type) []byte {
	byWindow := map[uint8]map[uint8]bool{}
	for _, t := range types {
		w := uint8(t >> 8)
		b := uint8(t & 0xff)
		if byWindow[w] == nil {
			byWindow[w] = map[uint8]bool{}
		}
		byWindow[w][b] = true
	}
	windows := make([]uint8, 0, len(byWindow))
	for w := range byWindow {
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i] < windows[j] })

	var out []byte
	for _, w := range windows {
		bits := byWindow[w]
		maxByte := 0
		for b := range bits {
			if int(b)/8 > maxByte {
				maxByte = int(b) / 8
			}
		}
		blen := maxByte + 1
		bitmap := make([]byte, blen)
		for b := range bits {
			bitmap[b/8] |= 0x80 >> (b % 8)
		}
		out = append(out, w, byte(blen))
		out = append(out, bitmap...)
	}
	return out
}

// DecodeTypeBitmap is the inverse of EncodeTypeBitmap.
func DecodeTypeBitmap(data []byte) ([]Type, error) {
	var types []Type
	pos := 0
	for pos < len(data) {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated type-bitmap window header", dnserr.MalformedWire)
		}
		window := data[pos]
		blen := int(data[pos+1])
		pos += 2
		if blen == 0 || blen > 32 || pos+blen > len(data) {
			return nil, fmt.Errorf("%w: invalid type-bitmap window length %d", dnserr.MalformedWire, blen)
		}
		for i := 0; i < blen; i++ {
			b := data[pos+i]
			for bit := 0; bit < 8; bit++ {
				if b&(0x80>>bit) != 0 {
					types = append(types, Type(uint16(window)<<8|uint16(i*8+bit)))
				}
			}
		}
		pos += blen
	}
	return types, nil
}
