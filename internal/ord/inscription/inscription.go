// Package inscription defines the Inscription entity and the builder
// that folds validated records into newly numbered inscriptions
// (spec §3, §4.4).
package inscription

import (
	"errors"
	"strings"

	"github.com/rawblock/ord-engine/internal/ord/areas"
	"github.com/rawblock/ord-engine/internal/ord/inscid"
	"github.com/rawblock/ord-engine/internal/ord/objectid"
)

// ErrFrozen is returned by Transfer, SetOffset, and the metaprotocol
// SealValidity/Attach operations once an inscription is burned (frozen).
// The area bags (Permanent, Temporary, Fields) do not check freeze
// status.
var ErrFrozen = errors.New("ord: inscription is frozen")

// Inscription is the owned entity created once by the builder and
// thereafter mutated only by the sat-point tracker and transaction
// processor (spec §3).
type Inscription struct {
	// Txid and Index are the creation coordinates; immutable.
	Txid  [32]byte
	Index uint32

	// Offset is the byte offset within the current holding output, in
	// satoshis. Updated on every transfer.
	Offset uint64

	SequenceNumber    uint32
	InscriptionNumber uint32
	IsCurse           bool

	Body            []byte
	ContentEncoding string
	ContentType     string
	Metadata        []byte
	Metaprotocol    string
	Parents         []objectid.ObjectID
	Pointer         *uint64
	Rune            *uint64 // reserved; never set by this engine

	// ObjectID is this inscription's derived child-object identity
	// (spec §4.9), stable for the inscription's entire lifetime.
	ObjectID objectid.ObjectID

	// Owner is the address currently holding this inscription's
	// satoshi, as tracked by the object store.
	Owner string

	// Frozen is set irrevocably once the satoshi lands in an
	// OP_RETURN (spec §3 lifecycle).
	Frozen bool

	// Permanent and Temporary are the spec §4.7 transfer-surviving and
	// transfer-wiped bags.
	Permanent *areas.Area
	Temporary *areas.Area

	// Fields holds the remaining type-name-keyed dynamic fields the
	// spec attaches directly to an inscription rather than to one of
	// the two named areas: "metaprotocol_validity", "inscription_charm",
	// and per-metaprotocol attachment fields (spec §6).
	Fields *areas.Area
}

// New constructs a freshly built inscription with empty areas. Callers
// still need to set ObjectID via the owning store before use.
func New(txid [32]byte, index uint32) *Inscription {
	return &Inscription{
		Txid:      txid,
		Index:     index,
		Permanent: areas.New(),
		Temporary: areas.New(),
		Fields:    areas.New(),
	}
}

// ID returns the immutable (txid, index) creation coordinates.
func (i *Inscription) ID() inscid.ID {
	return inscid.New(i.Txid, i.Index)
}

// Number recovers the signed ordinal: blessed inscriptions keep their
// inscription_number as-is; cursed ones would count down from -1. This
// engine never mints a cursed inscription (spec §9), so Number always
// equals InscriptionNumber here, but the split is preserved for forward
// compatibility.
func (i *Inscription) Number() int64 {
	if i.IsCurse {
		return -int64(i.InscriptionNumber) - 1
	}
	return int64(i.InscriptionNumber)
}

// Transfer moves ownership to addr. Refused once frozen.
func (i *Inscription) Transfer(addr string) error {
	if i.Frozen {
		return ErrFrozen
	}
	i.Owner = addr
	return nil
}

// SetOffset updates the inscription's position within its current
// holding output. Refused once frozen.
func (i *Inscription) SetOffset(offset uint64) error {
	if i.Frozen {
		return ErrFrozen
	}
	i.Offset = offset
	return nil
}

// Freeze irrevocably marks the inscription immutable. Idempotent.
func (i *Inscription) Freeze() {
	i.Frozen = true
}

// IsText reports whether the inscription's declared content type is a
// text/* MIME type.
func (i *Inscription) IsText() bool {
	return strings.HasPrefix(i.ContentType, "text/")
}

// IsImage reports whether the inscription's declared content type is an
// image/* MIME type.
func (i *Inscription) IsImage() bool {
	return strings.HasPrefix(i.ContentType, "image/")
}
