// Package chainio implements script inspection on top of the btcsuite
// stack (txscript, btcutil, chaincfg): envelope extraction from witness
// data, and destination-address / OP_RETURN derivation from a
// scriptPubKey.
package chainio

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rawblock/ord-engine/internal/ord/envelope"
	"github.com/rawblock/ord-engine/internal/ord/record"
)

// opReturnOpcode is OP_RETURN (0x6a): a script beginning with it is
// provably unspendable (spec §6).
const opReturnOpcode = 0x6a

// IsOpReturn reports whether script starts with OP_RETURN.
func IsOpReturn(script []byte) bool {
	return len(script) > 0 && script[0] == opReturnOpcode
}

// AddressFromScript derives the destination address string for a
// scriptPubKey under the given network parameters. Scripts with no
// standard address encoding (OP_RETURN, nonstandard or unparseable
// script) return ok=false; callers should treat that as "no holder
// address" rather than an error — an inscription landing there is
// either burned (checked separately via IsOpReturn) or otherwise inert.
// A bare multisig script resolves to the address of its first public key.
func AddressFromScript(script []byte, params *chaincfg.Params) (addr string, ok bool) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, params)
	if err != nil || len(addrs) == 0 {
		return "", false
	}
	return addrs[0].EncodeAddress(), true
}

// Envelope tag bytes. The decoded envelope is OP_IF "ord"
// <tag||value>... OP_0 <body...> OP_ENDIF: each tagged field is a single
// data push whose first byte is the tag and whose remaining bytes are
// the value. Fields written as a separate tag push followed by a value
// push are not paired up by this decoder.
var ordTag = []byte("ord")

const (
	tagContentType     = 1
	tagPointer         = 2
	tagParent          = 3
	tagMetadata        = 5
	tagMetaprotocol    = 7
	tagContentEncoding = 9
	tagBodyStart       = 0 // 0x00 is the "begin body pushes" marker
)

// ExtractEnvelopes implements envelope.Extractor[record.Record] over
// real witness data: it scans every witness item for OP_IF "ord" ...
// OP_ENDIF envelopes, and decodes their tag-value pushes into a
// record.Record. Multiple envelopes within one witness are each
// reported with an ascending Offset. Input is always 0, since a witness
// carries no input index, and Pushnum/Stutter are always false: this
// decoder does not detect those script-shape anomalies.
func ExtractEnvelopes(w envelope.Witness) []envelope.Envelope[record.Record] {
	var out []envelope.Envelope[record.Record]
	for _, item := range w {
		out = append(out, scanScriptForEnvelopes(item, len(out))...)
	}
	return out
}

func scanScriptForEnvelopes(script []byte, startOffset int) []envelope.Envelope[record.Record] {
	var out []envelope.Envelope[record.Record]
	tok := txscript.MakeScriptTokenizer(0, script)

	offset := startOffset
	for tok.Next() {
		if tok.Opcode() != txscript.OP_IF {
			continue
		}
		// The OP_FALSE before OP_IF is not checked, since the tokenizer
		// only exposes forward iteration; any OP_IF is a candidate, and
		// decodeEnvelopeBody rejects it unless the "ord" marker follows.
		rec, pushnum, stutter, ok := decodeEnvelopeBody(&tok)
		if !ok {
			continue
		}
		out = append(out, envelope.Envelope[record.Record]{
			Input:   0, // not known here; Build takes the input index from its own loop
			Offset:  offset,
			Pushnum: pushnum,
			Stutter: stutter,
			Payload: rec,
		})
		offset++
	}
	return out
}

// decodeEnvelopeBody walks tok from just after OP_IF through OP_ENDIF,
// collecting the "ord" marker, tagged fields, and body pushes. It
// returns ok=false if the envelope never resolves ("ord" marker absent
// or OP_ENDIF missing), matching the builder's tolerance for malformed
// witness data producing zero envelopes rather than an error.
func decodeEnvelopeBody(tok *txscript.ScriptTokenizer) (record.Record, bool, bool, bool) {
	var rec record.Record
	sawOrdMarker := false
	inBody := false
	var bodyParts [][]byte
	var pushnum, stutter bool

	for tok.Next() {
		op := tok.Opcode()
		if op == txscript.OP_ENDIF {
			if !sawOrdMarker {
				return record.Record{}, false, false, false
			}
			if inBody {
				rec.Body = joinBytes(bodyParts)
			}
			return rec, pushnum, stutter, true
		}

		data := tok.Data()
		if !sawOrdMarker {
			if len(data) == len(ordTag) && string(data) == string(ordTag) {
				sawOrdMarker = true
			} else if data != nil || op != txscript.OP_1 {
				// Not an ord envelope; bail without consuming OP_ENDIF for
				// the outer scanner's sake (best-effort).
				return record.Record{}, false, false, false
			}
			continue
		}

		if inBody {
			bodyParts = append(bodyParts, data)
			continue
		}

		if op == txscript.OP_0 || (len(data) == 0 && op == txscript.OP_FALSE) {
			inBody = true
			continue
		}

		if len(data) < 1 {
			continue
		}
		tag := data[0]
		value := data[1:]
		switch tag {
		case tagContentType:
			rec.ContentType = string(value)
		case tagContentEncoding:
			rec.ContentEncoding = string(value)
		case tagMetaprotocol:
			rec.Metaprotocol = string(value)
		case tagMetadata:
			if rec.Metadata != nil {
				rec.DuplicateField = true
			}
			rec.Metadata = value
		case tagPointer:
			if len(value) > 8 {
				rec.IncompleteField = true
				continue
			}
			p := leU64(value)
			rec.Pointer = &p
		case tagParent:
			// Parent InscriptionIDs are carried as raw bytes elsewhere in
			// the real protocol; left as a hook for a fuller decoder.
		default:
			if tag%2 == 0 {
				rec.UnrecognizedEvenField = true
			}
		}
	}
	// Ran out of script without OP_ENDIF.
	return record.Record{}, false, false, false
}

func joinBytes(parts [][]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func leU64(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}
