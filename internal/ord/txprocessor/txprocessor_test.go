package txprocessor

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/rawblock/ord-engine/internal/ord/envelope"
	"github.com/rawblock/ord-engine/internal/ord/events"
	"github.com/rawblock/ord-engine/internal/ord/inscription"
	"github.com/rawblock/ord-engine/internal/ord/objectid"
	"github.com/rawblock/ord-engine/internal/ord/record"
	"github.com/rawblock/ord-engine/internal/ord/store"
)

// fakeExtract returns a one-envelope-per-nonempty-witness extractor, so
// tests can drive ProcessTransaction/SpendUTXO without depending on the
// real taproot-script envelope decoder.
func fakeExtract(w envelope.Witness) []envelope.Envelope[record.Record] {
	if len(w) == 0 {
		return nil
	}
	return []envelope.Envelope[record.Record]{{
		Input:   0,
		Offset:  0,
		Payload: record.Record{ContentType: "text/plain"},
	}}
}

func p2pkhScript() []byte {
	// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG, enough to
	// exercise AddressFromScript's happy path against mainnet params.
	script := make([]byte, 0, 25)
	script = append(script, 0x76, 0xa9, 0x14)
	script = append(script, make([]byte, 20)...)
	script = append(script, 0x88, 0xac)
	return script
}

func opReturnScript() []byte {
	return []byte{0x6a, 0x00}
}

func newProcessor() *Processor {
	return New(store.New(), events.NewHub(), envelope.ExtractorFunc[record.Record](fakeExtract), &chaincfg.MainNetParams)
}

func TestProcessTransactionSeparateOutputs(t *testing.T) {
	p := newProcessor()

	tx := Tx{
		Txid: [32]byte{1},
		Inputs: []TxInput{
			{Witness: envelope.Witness{[]byte("reveal")}},
		},
		Outputs: []TxOutput{
			{Value: 1000, ScriptPubKey: p2pkhScript()},
		},
	}

	inscriptions, points := p.ProcessTransaction(tx, []uint64{1000})
	if len(inscriptions) != 1 {
		t.Fatalf("expected 1 inscription, got %d", len(inscriptions))
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 satpoint, got %d", len(points))
	}
	if points[0].OutputIndex != 0 {
		t.Fatalf("expected output index 0, got %d", points[0].OutputIndex)
	}
	if inscriptions[0].Owner == "" {
		t.Fatalf("expected owner to be set from destination script")
	}
	if inscriptions[0].SequenceNumber != 0 {
		t.Fatalf("expected first allocated sequence number 0, got %d", inscriptions[0].SequenceNumber)
	}
}

func TestSpendUTXOBurnsOnOpReturn(t *testing.T) {
	p := newProcessor()

	creationTx := Tx{
		Txid:    [32]byte{2},
		Inputs:  []TxInput{{Witness: envelope.Witness{[]byte("reveal")}}},
		Outputs: []TxOutput{{Value: 1000, ScriptPubKey: p2pkhScript()}},
	}
	inscriptions, _ := p.ProcessTransaction(creationTx, []uint64{1000})
	insc := inscriptions[0]

	u := &UTXO{Seals: inscriptions}
	spendTx := Tx{
		Txid:    [32]byte{3},
		Inputs:  []TxInput{{Witness: nil}},
		Outputs: []TxOutput{{Value: 1000, ScriptPubKey: opReturnScript()}},
	}

	points, flotsams := p.SpendUTXO(u, spendTx, []uint64{1000}, 0)
	if len(flotsams) != 0 {
		t.Fatalf("expected no flotsams, got %d", len(flotsams))
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 satpoint, got %d", len(points))
	}
	if !insc.Frozen {
		t.Fatalf("expected inscription to be frozen after OP_RETURN landing")
	}
	if len(u.Seals) != 0 {
		t.Fatalf("expected utxo seals cleared after spend")
	}
}

func TestSpendUTXOCarriesToFeesOnDryOutputs(t *testing.T) {
	p := newProcessor()

	creationTx := Tx{
		Txid:    [32]byte{4},
		Inputs:  []TxInput{{Witness: envelope.Witness{[]byte("reveal")}}},
		Outputs: []TxOutput{{Value: 1000, ScriptPubKey: p2pkhScript()}},
	}
	inscriptions, _ := p.ProcessTransaction(creationTx, []uint64{1000})

	u := &UTXO{Seals: inscriptions}
	spendTx := Tx{
		Txid:    [32]byte{5},
		Inputs:  []TxInput{{Witness: nil}},
		Outputs: []TxOutput{{Value: 0, ScriptPubKey: opReturnScript()}},
	}

	points, flotsams := p.SpendUTXO(u, spendTx, []uint64{1000}, 0)
	if len(points) != 0 {
		t.Fatalf("expected no direct matches, got %d", len(points))
	}
	if len(flotsams) != 1 {
		t.Fatalf("expected 1 flotsam, got %d", len(flotsams))
	}
}

func TestHandleCoinbaseTxLandsFlotsams(t *testing.T) {
	p := newProcessor()

	creationTx := Tx{
		Txid:    [32]byte{6},
		Inputs:  []TxInput{{Witness: envelope.Witness{[]byte("reveal")}}},
		Outputs: []TxOutput{{Value: 1000, ScriptPubKey: p2pkhScript()}},
	}
	inscriptions, _ := p.ProcessTransaction(creationTx, []uint64{1000})
	insc := inscriptions[0]

	u := &UTXO{Seals: inscriptions}
	spendTx := Tx{
		Txid:    [32]byte{7},
		Inputs:  []TxInput{{Witness: nil}},
		Outputs: []TxOutput{{Value: 0, ScriptPubKey: opReturnScript()}},
	}
	_, flotsams := p.SpendUTXO(u, spendTx, []uint64{1000}, 0)
	if len(flotsams) != 1 {
		t.Fatalf("setup: expected 1 flotsam, got %d", len(flotsams))
	}

	coinbaseTx := Tx{
		Txid:    [32]byte{8},
		Outputs: []TxOutput{{Value: 5_000_000_000, ScriptPubKey: p2pkhScript()}},
	}

	points := p.HandleCoinbaseTx(coinbaseTx, flotsams, 800_000, func(id objectid.ObjectID) (*inscription.Inscription, bool) {
		if id == insc.ObjectID {
			return insc, true
		}
		return nil, false
	})
	if len(points) != 1 {
		t.Fatalf("expected 1 satpoint, got %d", len(points))
	}
	if points[0].OutputIndex != 0 {
		t.Fatalf("expected landed on the single coinbase output, got %d", points[0].OutputIndex)
	}
}
