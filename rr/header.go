package rr

import "strconv"

// Opcode is the 4-bit message opcode.
type Opcode uint8

const (
	OpcodeQuery  Opcode = 0
	OpcodeIQuery Opcode = 1
	OpcodeStatus Opcode = 2
	OpcodeNotify Opcode = 4
	OpcodeUpdate Opcode = 5
)

// Rcode is the combined 12-bit response code (4 bits in the header plus 8
// extended bits carried in the EDNS(0) OPT TTL field, spec §3). Per spec §9
// Open Questions, this module always uses the RFC spellings FORMERR,
// SERVFAIL, NOTIMP rather than the source's alternate FORMATERROR /
// SERVERFAILURE vocabulary.
type Rcode uint16

const (
	RcodeSuccess  Rcode = 0
	RcodeFormErr  Rcode = 1
	RcodeServFail Rcode = 2
	RcodeNXDomain Rcode = 3
	RcodeNotImp   Rcode = 4
	RcodeRefused  Rcode = 5
	RcodeYXDomain Rcode = 6
	RcodeYXRRSet  Rcode = 7
	RcodeNXRRSet  Rcode = 8
	RcodeNotAuth  Rcode = 9
	RcodeNotZone  Rcode = 10
	RcodeBadVers  Rcode = 16
)

var rcodeToString = map[Rcode]string{
	RcodeSuccess: "NOERROR", RcodeFormErr: "FORMERR", RcodeServFail: "SERVFAIL",
	RcodeNXDomain: "NXDOMAIN", RcodeNotImp: "NOTIMP", RcodeRefused: "REFUSED",
	RcodeYXDomain: "YXDOMAIN", RcodeYXRRSet: "YXRRSET", RcodeNXRRSet: "NXRRSET",
	RcodeNotAuth: "NOTAUTH", RcodeNotZone: "NOTZONE", RcodeBadVers: "BADVERS",
}

func (r Rcode) String() string {
	if s, ok := rcodeToString[r]; ok {
		return s
	}
	return "RCODE" + strconv.Itoa(int(r))
}

// Flags holds the single-bit and 4-bit flag fields of the 16-bit flags
// word, MSB to LSB per spec §6: QR(1) OPCODE(4) AA(1) TC(1) RD(1) RA(1)
// Z(1) AD(1) CD(1) RCODE(4).
type Flags struct {
	QR     bool
	Opcode Opcode
	AA     bool
	TC     bool
	RD     bool
	RA     bool
	Z      bool
	AD     bool
	CD     bool
	Rcode4 uint8 // low 4 bits of Rcode; the extended 8 bits live in OPT
}

func DecodeFlags(word uint16) Flags {
	return Flags{
		QR:     word&0x8000 != 0,
		Opcode: Opcode(word >> 11 & 0xf),
		AA:     word&0x0400 != 0,
		TC:     word&0x0200 != 0,
		RD:     word&0x0100 != 0,
		RA:     word&0x0080 != 0,
		Z:      word&0x0040 != 0,
		AD:     word&0x0020 != 0,
		CD:     word&0x0010 != 0,
		Rcode4: uint8(word & 0xf),
	}
}

func (f Flags) Encode() uint16 {
	var w uint16
	if f.QR {
		w |= 0x8000
	}
	w |= uint16(f.Opcode&0xf) << 11
	if f.AA {
		w |= 0x0400
	}
	if f.TC {
		w |= 0x0200
	}
	if f.RD {
		w |= 0x0100
	}
	if f.RA {
		w |= 0x0080
	}
	if f.Z {
		w |= 0x0040
	}
	if f.AD {
		w |= 0x0020
	}
	if f.CD {
		w |= 0x0010
	}
	w |= uint16(f.Rcode4 & 0xf)
	return w
}

// Header is the fixed 12-byte message header.
type Header struct {
	ID      uint16
	Flags   Flags
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}
