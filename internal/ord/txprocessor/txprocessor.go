// Package txprocessor orchestrates the three friend entry points the
// spec exposes to an outer block indexer: process_transaction,
// spend_utxo, and handle_coinbase_tx (spec §4.6).
package txprocessor

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/rawblock/ord-engine/internal/ord/areas"
	"github.com/rawblock/ord-engine/internal/ord/chainio"
	"github.com/rawblock/ord-engine/internal/ord/charm"
	"github.com/rawblock/ord-engine/internal/ord/envelope"
	"github.com/rawblock/ord-engine/internal/ord/events"
	"github.com/rawblock/ord-engine/internal/ord/inscription"
	"github.com/rawblock/ord-engine/internal/ord/objectid"
	"github.com/rawblock/ord-engine/internal/ord/record"
	"github.com/rawblock/ord-engine/internal/ord/satpoint"
	"github.com/rawblock/ord-engine/internal/ord/store"
)

// TxInput is the per-input view the processor needs from an
// already-parsed transaction: its witness (for envelope extraction) and
// the previous outpoint it spends.
type TxInput struct {
	Witness          envelope.Witness
	PreviousOutpoint string
}

// TxOutput is one output of an already-parsed transaction.
type TxOutput struct {
	Value        uint64
	ScriptPubKey []byte
}

// Tx is the already-parsed transaction view the core consumes (spec
// §6). Decoding raw transaction/witness bytes into this shape is an
// external collaborator's job.
type Tx struct {
	Txid    [32]byte
	Inputs  []TxInput
	Outputs []TxOutput
}

// UTXO is the live unspent-output view handed to spend_utxo, carrying
// the ordered list of inscriptions currently sealed to it.
type UTXO struct {
	Seals []*inscription.Inscription
}

// Processor wires together the store (allocator), event hub, network
// parameters, and envelope extractor the three entry points share.
type Processor struct {
	Store     *store.Store
	Hub       *events.Hub
	Extractor envelope.Extractor[record.Record]
	Params    *chaincfg.Params
}

// New constructs a Processor. If extractor is nil, chainio.ExtractEnvelopes
// is used as the default real-witness parser.
func New(st *store.Store, hub *events.Hub, extractor envelope.Extractor[record.Record], params *chaincfg.Params) *Processor {
	if extractor == nil {
		extractor = envelope.ExtractorFunc[record.Record](chainio.ExtractEnvelopes)
	}
	return &Processor{Store: st, Hub: hub, Extractor: extractor, Params: params}
}

// ProcessTransaction builds every new inscription envelope-extracted
// from tx's inputs, places each according to the SeparateOutputs vs
// SameSat/SharedOutput rule (spec §4.6 step 2), and transfers each to
// its landing output's address. It returns the newly built inscriptions
// (so the caller can persist and seal them onto UTXOs) and one SatPoint
// per inscription.
func (p *Processor) ProcessTransaction(tx Tx, inputUTXOValues []uint64) ([]*inscription.Inscription, []satpoint.SatPoint) {
	inputs := make([]inscription.InputSource, len(tx.Inputs))
	for i, in := range tx.Inputs {
		var value uint64
		if i < len(inputUTXOValues) {
			value = inputUTXOValues[i]
		}
		inputs[i] = inscription.InputSource{Witness: in.Witness, Value: value}
	}

	newInscriptions := inscription.Build(tx.Txid, inputs, p.Extractor, p.Store, p.Hub)
	if len(newInscriptions) == 0 {
		return nil, nil
	}

	separateOutputs := len(tx.Outputs) == len(newInscriptions)

	points := make([]satpoint.SatPoint, 0, len(newInscriptions))
	for i, insc := range newInscriptions {
		outputIndex := 0
		if separateOutputs {
			outputIndex = i
			insc.Offset = 0
		}

		if outputIndex < len(tx.Outputs) {
			if addr, ok := chainio.AddressFromScript(tx.Outputs[outputIndex].ScriptPubKey, p.Params); ok {
				_ = insc.Transfer(addr)
			}
		}

		p.Store.RecordSequence(insc.SequenceNumber, insc.ID())
		if insc.Metaprotocol != "" {
			p.Hub.EmitInscriptionEvent(events.InscriptionEvent{
				Metaprotocol:     insc.Metaprotocol,
				SequenceNumber:   insc.SequenceNumber,
				InscriptionObjID: insc.ObjectID,
				EventType:        events.EventNew,
			})
		}

		points = append(points, satpoint.SatPoint{
			OutputIndex: uint32(outputIndex),
			Offset:      insc.Offset,
			ObjectID:    insc.ObjectID,
		})
	}

	return newInscriptions, points
}

// SpendUTXO applies the sat-point tracker to every inscription sealed
// to utxo and either lands it on an output (transferring ownership, or
// burning it if the output is an OP_RETURN) or carries it forward as a
// Flotsam bound for the next coinbase (spec §4.6 spend_utxo).
func (p *Processor) SpendUTXO(utxo *UTXO, tx Tx, inputUTXOValues []uint64, inputIndex int) ([]satpoint.SatPoint, []satpoint.Flotsam) {
	sealed := utxo.Seals
	utxo.Seals = nil

	outputs := toSatpointOutputs(tx.Outputs)

	var points []satpoint.SatPoint
	var flotsams []satpoint.Flotsam

	for _, insc := range sealed {
		originOwner := insc.Owner

		matched, sp := satpoint.MatchUTXO(insc.Offset, insc.ObjectID, outputs, inputUTXOValues, inputIndex)
		if matched {
			_ = insc.SetOffset(sp.Offset)
			insc.Temporary.Drop()

			dest := tx.Outputs[sp.OutputIndex]
			if chainio.IsOpReturn(dest.ScriptPubKey) {
				areas.Add(insc.Fields, charm.Charm{Burned: true})
				insc.Freeze()
				if insc.Metaprotocol != "" {
					p.Hub.EmitInscriptionEvent(events.InscriptionEvent{
						Metaprotocol:     insc.Metaprotocol,
						SequenceNumber:   insc.SequenceNumber,
						InscriptionObjID: insc.ObjectID,
						EventType:        events.EventBurn,
					})
				}
			} else if addr, ok := chainio.AddressFromScript(dest.ScriptPubKey, p.Params); ok {
				_ = insc.Transfer(addr)
			}

			points = append(points, sp)
			continue
		}

		flotsams = append(flotsams, satpoint.Flotsam{
			OutputIndex: sp.OutputIndex,
			Offset:      sp.Offset,
			ObjectID:    sp.ObjectID,
		})
		insc.Temporary.Drop()
		_ = insc.Transfer(originOwner)
	}

	return points, flotsams
}

// HandleCoinbaseTx lands every flotsam accumulated across the block
// onto the coinbase transaction's outputs, in the exact order the
// caller supplies them — which must be the block's transaction-then-
// input spend order (spec §5 ordering guarantee 3). lookup resolves a
// flotsam's object ID back to the live inscription so its offset and
// owner can be updated.
//
// Per spec §9's flagged open question, the temporary area is
// deliberately NOT dropped here: a fee-path transfer already dropped it
// in SpendUTXO, and the coinbase landing is treated as a continuation
// of that same transfer rather than a second one (see DESIGN.md).
func (p *Processor) HandleCoinbaseTx(coinbaseTx Tx, flotsams []satpoint.Flotsam, blockHeight uint64, lookup func(objectid.ObjectID) (*inscription.Inscription, bool)) []satpoint.SatPoint {
	if len(flotsams) == 0 {
		return nil
	}
	outputs := toSatpointOutputs(coinbaseTx.Outputs)

	points := make([]satpoint.SatPoint, 0, len(flotsams))
	for i, f := range flotsams {
		sp := satpoint.MatchCoinbase(i, outputs, flotsams, blockHeight)

		if insc, ok := lookup(f.ObjectID); ok {
			_ = insc.SetOffset(sp.Offset)
			if int(sp.OutputIndex) < len(coinbaseTx.Outputs) {
				if addr, ok := chainio.AddressFromScript(coinbaseTx.Outputs[sp.OutputIndex].ScriptPubKey, p.Params); ok {
					_ = insc.Transfer(addr)
				}
			}
		}

		points = append(points, sp)
	}
	return points
}

func toSatpointOutputs(outs []TxOutput) []satpoint.Output {
	o := make([]satpoint.Output, len(outs))
	for i, out := range outs {
		o[i] = satpoint.Output{Value: out.Value}
	}
	return o
}
