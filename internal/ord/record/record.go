// Package record defines the parsed inscription payload and the
// structural validity check that gates it into the builder.
package record

import "github.com/rawblock/ord-engine/internal/ord/inscid"

// Record is the parsed payload carried by one envelope, plus the
// structural defect flags surfaced by the envelope extractor.
type Record struct {
	Body            []byte
	ContentEncoding string
	ContentType     string
	Metadata        []byte
	Metaprotocol    string
	Parents         []inscid.ID
	Pointer         *uint64
	Rune            *uint64 // reserved placeholder; never set by this engine

	DuplicateField        bool
	IncompleteField       bool
	UnrecognizedEvenField bool
}

// Valid reports whether the record has no structural defect. Invalid
// records are dropped by the caller, which emits an
// InvalidInscriptionEvent instead of building an inscription from them.
func (r Record) Valid() bool {
	return !r.DuplicateField && !r.IncompleteField && !r.UnrecognizedEvenField
}

// InvalidEvent is emitted, once per dropped record, onto the
// process-wide diagnostic log (spec §4.3, §6).
type InvalidEvent struct {
	Txid       [32]byte
	InputIndex int
	Record     Record
}
