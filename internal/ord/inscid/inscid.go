// Package inscid implements the InscriptionID codec: parsing and
// formatting the canonical "<reversed-hex-txid>i<index>" string form.
package inscid

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// ID identifies an inscription by the transaction that created it and
// the zero-based index of the envelope within that transaction.
type ID struct {
	Txid  [32]byte
	Index uint32
}

// New builds an ID from a transaction hash (natural, not display, byte
// order) and envelope index.
func New(txid [32]byte, index uint32) ID {
	return ID{Txid: txid, Index: index}
}

// String formats the ID as "<reversed-hex-txid>i<index>", matching the
// Bitcoin convention of displaying txids byte-reversed.
func (id ID) String() string {
	var rev [32]byte
	for i, b := range id.Txid {
		rev[31-i] = b
	}
	var sb strings.Builder
	sb.Grow(64 + 1 + 10)
	sb.WriteString(hex.EncodeToString(rev[:]))
	sb.WriteByte('i')
	sb.WriteString(strconv.FormatUint(uint64(id.Index), 10))
	return sb.String()
}

// Parse decodes the canonical string form. It returns (ID{}, false) for
// any structural defect — missing 'i', wrong-length or non-hex txid, or
// a non-numeric index — never an error, matching the spec's "structural
// parse failures return None" policy.
func Parse(s string) (ID, bool) {
	i := strings.IndexByte(s, 'i')
	if i < 0 {
		return ID{}, false
	}
	txidHex, indexStr := s[:i], s[i+1:]
	if len(txidHex) != 64 {
		return ID{}, false
	}
	revBytes, err := hex.DecodeString(txidHex)
	if err != nil {
		return ID{}, false
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return ID{}, false
	}
	var txid [32]byte
	for i, b := range revBytes {
		txid[31-i] = b
	}
	return ID{Txid: txid, Index: uint32(index)}, true
}

// Equal reports whether two IDs refer to the same inscription.
func (id ID) Equal(other ID) bool {
	return id.Txid == other.Txid && id.Index == other.Index
}
