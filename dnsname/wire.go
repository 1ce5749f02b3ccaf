package dnsname

import (
	"fmt"

	"github.com/trustwalk/trustwalk/dnserr"
)

const (
	ptrFlag   = 0xc0 // top two bits of a length byte marking a pointer
	ptrOffMax = 0x3fff
)

// Compressor tracks, per message, the wire offset at which each previously
// written name suffix starts so later names can point back to it. The zero
// value is ready to use.
type Compressor struct {
	offsets map[string]int
}

func NewCompressor() *Compressor {
	return &Compressor{offsets: make(map[string]int)}
}

// WriteName appends n's wire form to buf, which must hold the message
// being built from its first byte, since recorded offsets are positions
// within buf. When
// compress is true, the longest suffix of n already recorded is replaced by
// a pointer; new suffixes are recorded for future reuse. Per spec §4.1,
// callers MUST pass compress=false for the next_domain field of an NSEC
// record.
func (c *Compressor) WriteName(buf []byte, n Name, compress bool) ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if c.offsets == nil {
		c.offsets = make(map[string]int)
	}
	labels := n.Labels
	for i := 0; i < len(labels); i++ {
		suffix := Name{Labels: labels[i:]}
		key := suffix.CanonicalKey()
		if compress {
			if off, ok := c.offsets[key]; ok && off <= ptrOffMax {
				ptr := uint16(ptrFlag)<<8 | uint16(off)
				buf = append(buf, byte(ptr>>8), byte(ptr))
				return buf, nil
			}
		}
		if off := len(buf); off <= ptrOffMax {
			c.offsets[key] = off
		}
		l := labels[i]
		buf = append(buf, byte(len(l)))
		buf = append(buf, l...)
	}
	buf = append(buf, 0)
	return buf, nil
}

// ReadName decodes a name starting at offset within msg (the full message,
// needed to resolve compression pointers), returning the decoded name and
// the offset immediately following the name's own representation in the
// *original* (non-pointer-followed) stream.
func ReadName(msg []byte, offset int) (Name, int, error) {
	var labels []string
	pos := offset
	end := -1 // offset right after the name as first encountered
	jumps := 0
	total := 0
	for {
		if pos >= len(msg) {
			return Name{}, 0, fmt.Errorf("%w: name read past end of message", dnserr.MalformedWire)
		}
		lb := msg[pos]
		switch {
		case lb == 0:
			pos++
			if end < 0 {
				end = pos
			}
			n := Name{Labels: labels}
			if err := n.Validate(); err != nil {
				return Name{}, 0, err
			}
			return n, end, nil
		case lb&0xc0 == 0xc0:
			if pos+1 >= len(msg) {
				return Name{}, 0, fmt.Errorf("%w: truncated pointer", dnserr.MalformedWire)
			}
			target := int(lb&0x3f)<<8 | int(msg[pos+1])
			if end < 0 {
				end = pos + 2
			}
			if target >= pos {
				// forward or self pointer: never legal, also prevents
				// trivial infinite loops without consuming fuel.
				return Name{}, 0, dnserr.PointerLoop
			}
			jumps++
			if jumps > maxJumps {
				return Name{}, 0, dnserr.PointerLoop
			}
			pos = target
		case lb&0xc0 != 0:
			return Name{}, 0, fmt.Errorf("%w: reserved label length bits", dnserr.MalformedWire)
		default:
			l := int(lb)
			if l > maxLabelLen {
				return Name{}, 0, dnserr.LabelTooLong
			}
			if pos+1+l > len(msg) {
				return Name{}, 0, fmt.Errorf("%w: label runs past end of message", dnserr.MalformedWire)
			}
			labels = append(labels, string(msg[pos+1:pos+1+l]))
			total += l + 1
			if total+1 > maxNameLen {
				return Name{}, 0, dnserr.NameTooLong
			}
			pos += 1 + l
		}
	}
}
