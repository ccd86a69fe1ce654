package inscription

import (
	"github.com/rawblock/ord-engine/internal/ord/envelope"
	"github.com/rawblock/ord-engine/internal/ord/events"
	"github.com/rawblock/ord-engine/internal/ord/record"
	"github.com/rawblock/ord-engine/internal/ord/store"
)

// InputSource is the per-input view the builder needs: the witness to
// extract envelopes from, and the input's previous-output satoshi
// value, used to advance the running offset accumulator.
type InputSource struct {
	Witness envelope.Witness
	Value   uint64
}

// Build folds every valid record extracted from inputs' witnesses into
// newly numbered inscriptions (spec §4.4). Inputs are walked in
// ascending index order; surviving records within an input are
// assigned in ascending envelope-offset order, giving every inscription
// in the transaction a contiguous, ascending (input_index,
// envelope_offset) identity (spec §5 ordering guarantee 2).
//
// Invalid records are dropped and reported via hub.EmitInvalid; they
// never reach the store and never consume a sequence number.
func Build(txid [32]byte, inputs []InputSource, extractor envelope.Extractor[record.Record], st *store.Store, hub *events.Hub) []*Inscription {
	var out []*Inscription
	var nextOffset uint64

	for inputIndex, in := range inputs {
		for _, env := range extractor.Extract(in.Witness) {
			rec := env.Payload
			if !rec.Valid() {
				hub.EmitInvalid(record.InvalidEvent{Txid: txid, InputIndex: inputIndex, Record: rec})
				continue
			}

			p := uint64(0)
			if rec.Pointer != nil {
				p = *rec.Pointer
			}
			if p >= in.Value {
				p = 0
			}

			insc := New(txid, uint32(len(out)))
			insc.Offset = nextOffset + p
			insc.SequenceNumber, insc.InscriptionNumber = st.Allocate()
			insc.IsCurse = false
			insc.Body = rec.Body
			insc.ContentEncoding = rec.ContentEncoding
			insc.ContentType = rec.ContentType
			insc.Metadata = rec.Metadata
			insc.Metaprotocol = rec.Metaprotocol
			insc.Pointer = rec.Pointer
			insc.Rune = nil

			for _, parentIID := range rec.Parents {
				insc.Parents = append(insc.Parents, st.DeriveInscriptionID(parentIID))
			}

			insc.ObjectID = st.DeriveInscriptionID(insc.ID())
			out = append(out, insc)
		}
		nextOffset += in.Value
	}

	return out
}
