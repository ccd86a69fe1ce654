package inscription

import (
	"testing"

	"github.com/rawblock/ord-engine/internal/ord/envelope"
	"github.com/rawblock/ord-engine/internal/ord/events"
	"github.com/rawblock/ord-engine/internal/ord/record"
	"github.com/rawblock/ord-engine/internal/ord/store"
)

// fixedExtract returns one envelope per input carrying recs[inputIndex],
// or none past the end of recs, letting each test drive Build with an
// exact per-input record sequence.
func fixedExtract(recs []record.Record) envelope.Extractor[record.Record] {
	return envelope.ExtractorFunc[record.Record](func(w envelope.Witness) []envelope.Envelope[record.Record] {
		if len(w) == 0 {
			return nil
		}
		idx := int(w[0][0])
		if idx >= len(recs) {
			return nil
		}
		return []envelope.Envelope[record.Record]{{Input: idx, Offset: 0, Payload: recs[idx]}}
	})
}

func marker(i int) []byte { return []byte{byte(i)} }

func TestBuildAccumulatesOffsetAcrossInputs(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	recs := []record.Record{
		{ContentType: "text/plain"},
		{ContentType: "text/plain"},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 1000},
		{Witness: envelope.Witness{marker(1)}, Value: 500},
	}

	out := Build([32]byte{9}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 2 {
		t.Fatalf("want 2 inscriptions, got %d", len(out))
	}
	if out[0].Offset != 0 {
		t.Fatalf("first inscription offset = %d, want 0", out[0].Offset)
	}
	if out[1].Offset != 1000 {
		t.Fatalf("second inscription offset = %d, want 1000 (after input 0's value)", out[1].Offset)
	}
}

func TestBuildPointerWithinInputValueOffsetsWithinInput(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	p := uint64(200)
	recs := []record.Record{
		{ContentType: "text/plain", Pointer: &p},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 1000},
	}

	out := Build([32]byte{1}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 1 {
		t.Fatalf("want 1 inscription, got %d", len(out))
	}
	if out[0].Offset != 200 {
		t.Fatalf("offset = %d, want 200 (pointer within input value)", out[0].Offset)
	}
}

// TestBuildPointerExceedingInputValueClampsToZero exercises spec
// scenario S2: a pointer at or beyond the input's value is clamped to
// the input's own start offset rather than landing past its last sat.
func TestBuildPointerExceedingInputValueClampsToZero(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	p := uint64(1000) // equal to the input's value: out of range
	recs := []record.Record{
		{ContentType: "text/plain", Pointer: &p},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 1000},
	}

	out := Build([32]byte{2}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 1 {
		t.Fatalf("want 1 inscription, got %d", len(out))
	}
	if out[0].Offset != 0 {
		t.Fatalf("offset = %d, want 0 (pointer clamped, not carried through)", out[0].Offset)
	}
}

func TestBuildPointerExceedingInputValueClampsOnLaterInput(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	p := uint64(5000) // far beyond input 1's own value
	recs := []record.Record{
		{ContentType: "text/plain"},
		{ContentType: "text/plain", Pointer: &p},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 1000},
		{Witness: envelope.Witness{marker(1)}, Value: 300},
	}

	out := Build([32]byte{3}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 2 {
		t.Fatalf("want 2 inscriptions, got %d", len(out))
	}
	// Clamped pointer falls back to the running accumulator at the
	// start of input 1 (1000), not 1000+5000.
	if out[1].Offset != 1000 {
		t.Fatalf("second inscription offset = %d, want 1000 (clamp, not carry)", out[1].Offset)
	}
}

func TestBuildSkipsInvalidRecordsAndLogsThem(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	recs := []record.Record{
		{ContentType: "text/plain", DuplicateField: true},
		{ContentType: "text/plain"},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 1000},
		{Witness: envelope.Witness{marker(1)}, Value: 1000},
	}

	out := Build([32]byte{4}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 1 {
		t.Fatalf("want 1 surviving inscription, got %d", len(out))
	}
	if out[0].Index != 0 {
		t.Fatalf("surviving inscription's envelope index = %d, want 0 (invalid one consumed none)", out[0].Index)
	}
	if n := len(hub.InvalidEvents()); n != 1 {
		t.Fatalf("want 1 invalid record logged, got %d", n)
	}
}

func TestBuildAllocatesAscendingSequenceAndInscriptionNumbers(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	recs := []record.Record{
		{ContentType: "text/plain"},
		{ContentType: "text/plain"},
		{ContentType: "text/plain"},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 100},
		{Witness: envelope.Witness{marker(1)}, Value: 100},
		{Witness: envelope.Witness{marker(2)}, Value: 100},
	}

	out := Build([32]byte{5}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 3 {
		t.Fatalf("want 3 inscriptions, got %d", len(out))
	}
	for i, insc := range out {
		if insc.SequenceNumber != uint32(i) {
			t.Fatalf("inscription %d sequence number = %d, want %d", i, insc.SequenceNumber, i)
		}
		if insc.InscriptionNumber != uint32(i) {
			t.Fatalf("inscription %d inscription number = %d, want %d", i, insc.InscriptionNumber, i)
		}
		if insc.IsCurse {
			t.Fatalf("inscription %d unexpectedly cursed", i)
		}
	}
	if st.NextSequenceNumber() != 3 {
		t.Fatalf("store next sequence number = %d, want 3", st.NextSequenceNumber())
	}
}

func TestBuildDerivesDistinctObjectIDsPerInscription(t *testing.T) {
	st := store.New()
	hub := events.NewHub()
	recs := []record.Record{
		{ContentType: "text/plain"},
		{ContentType: "text/plain"},
	}
	inputs := []InputSource{
		{Witness: envelope.Witness{marker(0)}, Value: 100},
		{Witness: envelope.Witness{marker(1)}, Value: 100},
	}

	out := Build([32]byte{6}, inputs, fixedExtract(recs), st, hub)

	if len(out) != 2 {
		t.Fatalf("want 2 inscriptions, got %d", len(out))
	}
	if out[0].ObjectID == out[1].ObjectID {
		t.Fatalf("both inscriptions derived the same object ID")
	}
	if out[0].ObjectID.IsZero() || out[1].ObjectID.IsZero() {
		t.Fatalf("object ID not derived")
	}
}
