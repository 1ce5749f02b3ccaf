package rr

import (
	"encoding/base64"
	"fmt"

	"github.com/trustwalk/trustwalk/dnserr"
	"github.com/trustwalk/trustwalk/dnsname"
)

// TSIG carries a transaction-signature (RFC 8945). It is never stored in a
// zone; it only ever appears as the last record of a signed message's
// additional section (spec §4.7).
type TSIG struct {
	AlgorithmName dnsname.Name
	TimeSigned    uint64 // 48-bit
	Fudge         uint16
	MAC           []byte
	OriginalID    uint16
	Error         uint16
	OtherData     []byte
}

func (r *TSIG) Type() Type { return TypeTSIG }

func (r *TSIG) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	buf, err = c.WriteName(buf, r.AlgorithmName, false)
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(r.TimeSigned>>40), byte(r.TimeSigned>>32), byte(r.TimeSigned>>24),
		byte(r.TimeSigned>>16), byte(r.TimeSigned>>8), byte(r.TimeSigned))
	buf = putUint16(buf, r.Fudge)
	buf = putUint16(buf, uint16(len(r.MAC)))
	buf = append(buf, r.MAC...)
	buf = putUint16(buf, r.OriginalID)
	buf = putUint16(buf, r.Error)
	buf = putUint16(buf, uint16(len(r.OtherData)))
	buf = append(buf, r.OtherData...)
	return buf, nil
}

func (r *TSIG) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	name, pos, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	if pos+10 > end {
		return fmt.Errorf("%w: TSIG rdata too short", dnserr.MalformedWire)
	}
	timeSigned := uint64(msg[pos])<<40 | uint64(msg[pos+1])<<32 | uint64(msg[pos+2])<<24 |
		uint64(msg[pos+3])<<16 | uint64(msg[pos+4])<<8 | uint64(msg[pos+5])
	fudge := uint16(msg[pos+6])<<8 | uint16(msg[pos+7])
	macLen := int(uint16(msg[pos+8])<<8 | uint16(msg[pos+9]))
	pos += 10
	if pos+macLen > end {
		return fmt.Errorf("%w: TSIG MAC runs past RDATA", dnserr.MalformedWire)
	}
	mac := append([]byte(nil), msg[pos:pos+macLen]...)
	pos += macLen
	if pos+6 > end {
		return fmt.Errorf("%w: TSIG rdata too short after MAC", dnserr.MalformedWire)
	}
	origID, _ := getUint16(msg, pos)
	errCode, _ := getUint16(msg, pos+2)
	otherLen := int(uint16(msg[pos+4])<<8 | uint16(msg[pos+5]))
	pos += 6
	if pos+otherLen > end {
		return fmt.Errorf("%w: TSIG other-data runs past RDATA", dnserr.MalformedWire)
	}
	r.AlgorithmName = name
	r.TimeSigned = timeSigned
	r.Fudge = fudge
	r.MAC = mac
	r.OriginalID = origID
	r.Error = errCode
	r.OtherData = append([]byte(nil), msg[pos:pos+otherLen]...)
	return nil
}

func (r *TSIG) String() string {
	return fmt.Sprintf("%s %d %d %s %d %d", r.AlgorithmName.String(), r.TimeSigned, r.Fudge,
		base64.StdEncoding.EncodeToString(r.MAC), r.OriginalID, r.Error)
}
