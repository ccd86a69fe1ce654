// Package satpoint implements the core value-accumulator algorithm
// (spec §4.5): locating where an inscription's satoshi lands among a
// transaction's outputs, or — when the outputs run dry first — where
// it falls into fees as a Flotsam bound for the next coinbase.
package satpoint

import "github.com/rawblock/ord-engine/internal/ord/objectid"

// SatPoint pinpoints where an inscription's satoshi landed: an output
// index plus a byte offset within that output.
type SatPoint struct {
	OutputIndex uint32
	Offset      uint64
	ObjectID    objectid.ObjectID
}

// Flotsam is produced when an inscription's satoshi spills into fees.
// Its Offset is the fee-relative carry position, NOT a byte offset
// within any output — it is only meaningful as input to the coinbase
// placement in the same shape the per-input miss branch produced it.
type Flotsam struct {
	OutputIndex uint32
	Offset      uint64
	ObjectID    objectid.ObjectID
}

// Output is the minimal per-output view the tracker needs.
type Output struct {
	Value uint64
}

// subsidyHalvingInterval and firstZeroSubsidyEpoch are Bitcoin
// consensus constants; see spec §6.
const (
	subsidyHalvingInterval  = 210_000
	firstZeroSubsidyEpoch   = 33
	coinValue        uint64 = 100_000_000
	initialSubsidy          = 50 * coinValue
)

// Subsidy returns the base block reward at height, halving every
// subsidyHalvingInterval blocks and dropping to zero from epoch 33
// onward.
func Subsidy(height uint64) uint64 {
	epoch := height / subsidyHalvingInterval
	if epoch >= firstZeroSubsidyEpoch {
		return 0
	}
	return initialSubsidy >> epoch
}

// MatchUTXO locates the satoshi at absolute position offset within
// inputValues[inputIndex]'s input, given all inputs' previous-output
// values (spec §4.5(a)).
//
// It scans outputs in order, using strict "first output that exceeds"
// comparison: an inscription landing exactly on an output boundary goes
// to the LATER output, at offset 0 (spec's tie-breaking rule). If no
// output accumulates past the absolute index, the satoshi went to
// fees: matched is false and the returned point's offset is the
// fee-relative carry (absolute index minus total output value), with
// OutputIndex set to inputIndex per spec.
func MatchUTXO(offset uint64, oid objectid.ObjectID, outputs []Output, inputValues []uint64, inputIndex int) (matched bool, point SatPoint) {
	var inputAcc uint64
	for _, v := range inputValues[:inputIndex] {
		inputAcc += v
	}
	inputAcc += offset

	var outputAcc uint64
	for j, out := range outputs {
		if outputAcc+out.Value > inputAcc {
			return true, SatPoint{
				OutputIndex: uint32(j),
				Offset:      out.Value - (outputAcc + out.Value - inputAcc),
				ObjectID:    oid,
			}
		}
		outputAcc += out.Value
	}

	return false, SatPoint{
		OutputIndex: uint32(inputIndex),
		Offset:      inputAcc - outputAcc,
		ObjectID:    oid,
	}
}

// MatchCoinbase locates a flotsam's satoshi among the coinbase
// transaction's outputs (spec §4.5(b)). reward_acc accumulates the
// block subsidy followed by every flotsam's carry-offset up to and
// including flotsamIndex, in the order the caller supplied them — which
// must be the block's transaction-then-input spend order (spec §5
// ordering guarantee 3). The caller guarantees the coinbase carries
// enough output value to absorb every flotsam; there is no miss branch.
func MatchCoinbase(flotsamIndex int, outputs []Output, flotsams []Flotsam, blockHeight uint64) SatPoint {
	rewardAcc := Subsidy(blockHeight)
	for _, f := range flotsams[:flotsamIndex+1] {
		rewardAcc += f.Offset
	}

	var outputAcc uint64
	for j, out := range outputs {
		if outputAcc+out.Value > rewardAcc {
			return SatPoint{
				OutputIndex: uint32(j),
				Offset:      out.Value - (outputAcc + out.Value - rewardAcc),
				ObjectID:    flotsams[flotsamIndex].ObjectID,
			}
		}
		outputAcc += out.Value
	}

	// The caller guarantees sufficient coinbase output value; reaching
	// here means that guarantee was violated.
	last := outputs[len(outputs)-1]
	return SatPoint{
		OutputIndex: uint32(len(outputs) - 1),
		Offset:      last.Value,
		ObjectID:    flotsams[flotsamIndex].ObjectID,
	}
}
