package rr

import (
	"strconv"

	"github.com/trustwalk/trustwalk/dnsname"
)

// MX is a mail-exchange record (RFC 1035 §3.3.9).
type MX struct {
	Preference uint16
	Exchange   dnsname.Name
}

func (r *MX) Type() Type { return TypeMX }

func (r *MX) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Preference)
	return c.WriteName(buf, r.Exchange, true)
}

func (r *MX) unpack(msg []byte, off, _ int) error {
	pref, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+2)
	r.Preference, r.Exchange = pref, n
	return err
}

func (r *MX) String() string {
	return strconv.Itoa(int(r.Preference)) + " " + r.Exchange.String()
}

// SRV is a service-location record (RFC 2782).
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   dnsname.Name
}

func (r *SRV) Type() Type { return TypeSRV }

func (r *SRV) pack(c *dnsname.Compressor, buf []byte) ([]byte, error) {
	buf = putUint16(buf, r.Priority)
	buf = putUint16(buf, r.Weight)
	buf = putUint16(buf, r.Port)
	// RFC 2782: SRV target names are not compressed.
	return c.WriteName(buf, r.Target, false)
}

func (r *SRV) unpack(msg []byte, off, _ int) error {
	pri, err := getUint16(msg, off)
	if err != nil {
		return err
	}
	wt, err := getUint16(msg, off+2)
	if err != nil {
		return err
	}
	port, err := getUint16(msg, off+4)
	if err != nil {
		return err
	}
	n, _, err := dnsname.ReadName(msg, off+6)
	if err != nil {
		return err
	}
	r.Priority, r.Weight, r.Port, r.Target = pri, wt, port, n
	return nil
}

func (r *SRV) String() string {
	return strconv.Itoa(int(r.Priority)) + " " + strconv.Itoa(int(r.Weight)) + " " +
		strconv.Itoa(int(r.Port)) + " " + r.Target.String()
}
