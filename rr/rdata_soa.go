package rr

import (
	"fmt"
	"strconv"

	"github.com/trustwalk/trustwalk/dnsname"
)

// SOA is the start-of-authority record (RFC 1035 §3.3.13).
type SOA struct {
	MName   dnsname.Name
	RName   dnsname.Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (r *SOA) Type() Type { return TypeSOA }

func (r *SOA) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	var err error
	buf, err = c.WriteName(buf, r.MName, true)
	if err != nil {
		return nil, err
	}
	buf, err = c.WriteName(buf, r.RName, true)
	if err != nil {
		return nil, err
	}
	buf = putUint32(buf, r.Serial)
	buf = putUint32(buf, r.Refresh)
	buf = putUint32(buf, r.Retry)
	buf = putUint32(buf, r.Expire)
	buf = putUint32(buf, r.Minimum)
	return buf, nil
}

func (r *SOA) unpack(msg []byte, off, rdlen int) error {
	end := off + rdlen
	mname, next, err := dnsname.ReadName(msg, off)
	if err != nil {
		return err
	}
	rname, next, err := dnsname.ReadName(msg, next)
	if err != nil {
		return err
	}
	if next+20 > end {
		return fmt.Errorf("SOA rdata too short")
	}
	r.MName, r.RName = mname, rname
	r.Serial, _ = getUint32(msg, next)
	r.Refresh, _ = getUint32(msg, next+4)
	r.Retry, _ = getUint32(msg, next+8)
	r.Expire, _ = getUint32(msg, next+12)
	r.Minimum, _ = getUint32(msg, next+16)
	return nil
}

func (r *SOA) String() string {
	return r.MName.String() + " " + r.RName.String() + " " +
		strconv.FormatUint(uint64(r.Serial), 10) + " " +
		strconv.FormatUint(uint64(r.Refresh), 10) + " " +
		strconv.FormatUint(uint64(r.Retry), 10) + " " +
		strconv.FormatUint(uint64(r.Expire), 10) + " " +
		strconv.FormatUint(uint64(r.Minimum), 10)
}
