package rr

import (
	"fmt"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// Question is one entry of a message's question section.
type Question struct {
	Name  dnsname.Name
	Type  Type
	Class Class
}

func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name.String(), q.Class, q.Type)
}

// Message is a full DNS message: the 12-byte header plus the four sections
// (spec §3). Section counts are derived from the slice lengths at encode
// time and are not stored separately.
type Message struct {
	Header     Header
	Question   []Question
	Answer     []*RR
	Authority  []*RR
	Additional []*RR
}

// DefaultUDPPayload is the advertised buffer size absent an OPT record
// (spec §4.1, §6).
const DefaultUDPPayload = 512

// EncodeMessage serializes m into wire form. When maxSize is nonzero (a UDP
// response bounded by the sender's advertised EDNS payload), the encoder
// stops mid-section once appending the next record would exceed it, sets
// the TC bit, and returns the count of answer/authority/additional RRs it
// actually wrote. maxSize == 0 means unbounded (TCP).
func EncodeMessage(m *Message, maxSize int) ([]byte, int, error) {
	hdr := m.Header
	hdr.QDCount = uint16(len(m.Question))
	flags := hdr.Flags

	c := dnsname.NewCompressor()
	buf := make([]byte, 12)

	for _, q := range m.Question {
		var err error
		buf, err = c.WriteName(buf, q.Name, true)
		if err != nil {
			return nil, 0, err
		}
		buf = putUint16(buf, uint16(q.Type))
		buf = putUint16(buf, uint16(q.Class))
	}

	written := 0
	truncated := false
	encodeSection := func(section []*RR, count *uint16) error {
		for _, r := range section {
			if truncated {
				break
			}
			compressOwner := r.Type != TypeNSEC
			rbuf, err := Encode(buf, c, r, compressOwner)
			if err != nil {
				return err
			}
			if maxSize > 0 && len(rbuf) > maxSize {
				truncated = true
				flags.TC = true
				break
			}
			buf = rbuf
			*count++
			written++
		}
		return nil
	}

	if err := encodeSection(m.Answer, &hdr.ANCount); err != nil {
		return nil, 0, err
	}
	if err := encodeSection(m.Authority, &hdr.NSCount); err != nil {
		return nil, 0, err
	}
	if err := encodeSection(m.Additional, &hdr.ARCount); err != nil {
		return nil, 0, err
	}

	hdr.Flags = flags
	putHeader(buf, hdr)
	return buf, written, nil
}

func putHeader(buf []byte, h Header) {
	buf[0], buf[1] = byte(h.ID>>8), byte(h.ID)
	word := h.Flags.Encode()
	buf[2], buf[3] = byte(word>>8), byte(word)
	buf[4], buf[5] = byte(h.QDCount>>8), byte(h.QDCount)
	buf[6], buf[7] = byte(h.ANCount>>8), byte(h.ANCount)
	buf[8], buf[9] = byte(h.NSCount>>8), byte(h.NSCount)
	buf[10], buf[11] = byte(h.ARCount>>8), byte(h.ARCount)
}

// DecodeMessage parses a complete wire-format message.
func DecodeMessage(msg []byte) (*Message, error) {
	if len(msg) < 12 {
		return nil, fmt.Errorf("%w: message shorter than fixed header", dnserr.MalformedWire)
	}
	id := uint16(msg[0])<<8 | uint16(msg[1])
	flagsWord := uint16(msg[2])<<8 | uint16(msg[3])
	qd := uint16(msg[4])<<8 | uint16(msg[5])
	an := uint16(msg[6])<<8 | uint16(msg[7])
	ns := uint16(msg[8])<<8 | uint16(msg[9])
	ar := uint16(msg[10])<<8 | uint16(msg[11])

	m := &Message{Header: Header{ID: id, Flags: DecodeFlags(flagsWord), QDCount: qd, ANCount: an, NSCount: ns, ARCount: ar}}

	pos := 12
	for i := 0; i < int(qd); i++ {
		name, next, err := dnsname.ReadName(msg, pos)
		if err != nil {
			return nil, err
		}
		if next+4 > len(msg) {
			return nil, fmt.Errorf("%w: truncated question", dnserr.MalformedWire)
		}
		qtype := uint16(msg[next])<<8 | uint16(msg[next+1])
		qclass := uint16(msg[next+2])<<8 | uint16(msg[next+3])
		m.Question = append(m.Question, Question{Name: name, Type: Type(qtype), Class: Class(qclass)})
		pos = next + 4
	}

	decodeSection := func(count int) ([]*RR, error) {
		out := make([]*RR, 0, count)
		for i := 0; i < count; i++ {
			r, next, err := Decode(msg, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			pos = next
		}
		return out, nil
	}

	var err error
	if m.Answer, err = decodeSection(int(an)); err != nil {
		return nil, err
	}
	if m.Authority, err = decodeSection(int(ns)); err != nil {
		return nil, err
	}
	if m.Additional, err = decodeSection(int(ar)); err != nil {
		return nil, err
	}
	return m, nil
}

// FindOPT returns the EDNS(0) pseudo-record from additional, if present.
func (m *Message) FindOPT() (*RR, *OPT) {
	for _, r := range m.Additional {
		if r.Type == TypeOPT {
			if opt, ok := r.Data.(*OPT); ok {
				return r, opt
			}
		}
	}
	return nil, nil
}

// EffectiveUDPSize returns the sender-advertised payload size: the OPT
// record's class field if present, otherwise spec §4.1's 512-byte default.
func (m *Message) EffectiveUDPSize() int {
	if r, _ := m.FindOPT(); r != nil {
		return int(r.Class)
	}
	return DefaultUDPPayload
}
