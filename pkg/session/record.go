package session

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/korthochain/classvdf/pkg/accumulator"
)

// recordVersion prefixes every stored record.
const recordVersion byte = 1

// Record is the persisted form of a session.
type Record struct {
	Discriminant []byte             `cbor:"1,keyasint"`
	Inputs       [][]byte           `cbor:"2,keyasint"`
	Iterations   uint64             `cbor:"3,keyasint"`
	State        *accumulator.State `cbor:"4,keyasint"`
	Proof        []byte             `cbor:"5,keyasint,omitempty"`
	Created      int64              `cbor:"6,keyasint"`
}

// Complete reports whether every input has been folded.
func (r *Record) Complete() bool {
	return r.State.Count == uint64(len(r.Inputs))
}

func encodeRecord(r *Record) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteByte(recordVersion)

	encoder := cbor.NewEncoder(buf)
	err := encoder.Encode(r)
	return buf.Bytes(), err
}

func decodeRecord(buf []byte) (*Record, error) {
	if len(buf) == 0 || buf[0] != recordVersion {
		return nil, fmt.Errorf("unsupported session record version")
	}
	var r Record
	if err := cbor.NewDecoder(bytes.NewReader(buf[1:])).Decode(&r); err != nil {
		return nil, err
	}
	if r.State == nil {
		return nil, fmt.Errorf("session record without state")
	}
	return &r, nil
}
