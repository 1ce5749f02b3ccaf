package nsec3

import "encoding/base32"

func newBase32Hex() *base32.Encoding {
	return base32.HexEncoding.WithPadding(base32.NoPadding)
}
