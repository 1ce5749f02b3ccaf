package rr

import "strconv"

// Class is the DNS class field. Per spec §9 Open Questions, two text
// vocabularies exist in the source material (INET/CSNET/CHAOS/HESIOD vs
// IN/CH/HS); the wire numbers are identical and this module always prints
// the short RFC spellings.
type Class uint16

const (
	ClassINET Class = 1
	ClassCS   Class = 2
	ClassCH   Class = 3
	ClassHS   Class = 4
	ClassNONE Class = 254
	ClassANY  Class = 255
)

var classToString = map[Class]string{
	ClassINET: "IN",
	ClassCS:   "CS",
	ClassCH:   "CH",
	ClassHS:   "HS",
	ClassNONE: "NONE",
	ClassANY:  "ANY",
}

var stringToClass = map[string]Class{
	"IN": ClassINET, "CS": ClassCS, "CH": ClassCH, "HS": ClassHS,
	"NONE": ClassNONE, "ANY": ClassANY,
}

func (c Class) String() string {
	if s, ok := classToString[c]; ok {
		return s
	}
	return "CLASS" + strconv.Itoa(int(c))
}

func ParseClass(s string) (Class, bool) {
	c, ok := stringToClass[s]
	return c, ok
}
