// Package envelope defines the Envelope container surfaced from witness
// data and the Extractor collaborator boundary. The engine treats the
// extractor as opaque: it only relies on input/offset numbering and the
// pushnum/stutter anomaly flags, never on how the payload was parsed.
package envelope

// Envelope wraps one inscription record with its position inside the
// witness and the Bitcoin-script-shape anomaly flags that feed curse
// determination (spec §4.2).
type Envelope[T any] struct {
	// Input is the zero-based input index the envelope came from.
	Input int
	// Offset is the zero-based envelope-within-input index.
	Offset int
	// Pushnum flags a non-minimal-push script anomaly.
	Pushnum bool
	// Stutter flags a repeated-opcode script anomaly.
	Stutter bool
	Payload T
}

// NotAtOffsetZero reports the "NotAtOffsetZero" curse-diagnostic token
// condition: the envelope is not the first one in its input.
func (e Envelope[T]) NotAtOffsetZero() bool {
	return e.Offset != 0
}

// NotInFirstInput reports the "NotInFirstInput" curse-diagnostic token
// condition: the envelope did not come from input 0.
func (e Envelope[T]) NotInFirstInput() bool {
	return e.Input != 0
}

// Witness is the minimal view of witness data the extractor consumes.
// The engine never inspects its contents directly.
type Witness [][]byte

// Extractor is the external collaborator boundary: given a witness, it
// returns the ordered sequence of envelopes found within it. Its only
// contract (spec §4.2) is that Envelope.Input/Offset are correctly
// numbered and Pushnum/Stutter reflect real script-shape anomalies;
// everything about payload parsing is implementation-defined.
type Extractor[T any] interface {
	Extract(w Witness) []Envelope[T]
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc[T any] func(w Witness) []Envelope[T]

func (f ExtractorFunc[T]) Extract(w Witness) []Envelope[T] {
	return f(w)
}
