package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/korthochain/classvdf/pkg/accumulator"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/korthochain/classvdf/pkg/session"
	"github.com/valyala/fasthttp"
)

const (
	Success     = 0
	ErrJSON     = -41201
	ErrData     = -41205
	ErrNotFound = -41206
	ErrEngine   = -41207
	ErrOrder    = -41208
	ErrLimited  = -41209
	ErrInternal = -41210
)

type resultInfo struct {
	ErrorCode int         `json:"errorcode"`
	ErrorMsg  string      `json:"errormsg"`
	Result    interface{} `json:"result,omitempty"`
}

// hexBytes is a byte string carried as hex in JSON.
type hexBytes []byte

func (h hexBytes) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(out, h)
	return out, nil
}

func (h *hexBytes) UnmarshalText(text []byte) error {
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return err
	}
	*h = out
	return nil
}

type discriminantRequest struct {
	Seed hexBytes `json:"seed"`
	Bits int      `json:"bits"`
}

type discriminantResult struct {
	Discriminant hexBytes `json:"discriminant"`
}

type hashRequest struct {
	Discriminant hexBytes `json:"discriminant"`
	Seed         hexBytes `json:"seed"`
}

type hashResult struct {
	Form hexBytes `json:"form"`
}

type evaluateRequest struct {
	Discriminant hexBytes `json:"discriminant"`
	X            hexBytes `json:"x"`
	Iterations   uint64   `json:"iterations"`
}

type evaluateResult struct {
	Y     hexBytes `json:"y"`
	Proof hexBytes `json:"proof"`
}

type verifyRequest struct {
	Discriminant hexBytes `json:"discriminant"`
	X            hexBytes `json:"x"`
	Y            hexBytes `json:"y"`
	Proof        hexBytes `json:"proof"`
	Iterations   uint64   `json:"iterations"`
}

type verifyResult struct {
	Valid bool `json:"valid"`
}

// createSessionRequest carries either the inputs themselves or seeds that
// are hashed into the group.
type createSessionRequest struct {
	Discriminant hexBytes   `json:"discriminant"`
	Inputs       []hexBytes `json:"inputs"`
	Seeds        []hexBytes `json:"seeds"`
	Iterations   uint64     `json:"iterations"`
}

type foldRequest struct {
	Index uint64   `json:"index"`
	Y     hexBytes `json:"y"`
}

type proofResult struct {
	Proof hexBytes `json:"proof"`
}

type sessionView struct {
	ID           string     `json:"id"`
	Discriminant hexBytes   `json:"discriminant"`
	Inputs       []hexBytes `json:"inputs"`
	Iterations   uint64     `json:"iterations"`
	Folded       uint64     `json:"folded"`
	AccX         hexBytes   `json:"accx"`
	AccY         hexBytes   `json:"accy"`
	Proof        hexBytes   `json:"proof,omitempty"`
	Created      int64      `json:"created"`
}

func newSessionView(id string, r *session.Record) *sessionView {
	inputs := make([]hexBytes, len(r.Inputs))
	for i, x := range r.Inputs {
		inputs[i] = x
	}
	return &sessionView{
		ID:           id,
		Discriminant: r.Discriminant,
		Inputs:       inputs,
		Iterations:   r.Iterations,
		Folded:       r.State.Count,
		AccX:         r.State.X,
		AccY:         r.State.Y,
		Proof:        r.Proof,
		Created:      r.Created,
	}
}

// errorStatus maps an error to its HTTP status and error code.
func errorStatus(err error) (int, int) {
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, ErrJSON
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, accumulator.ErrOutOfOrder),
		errors.Is(err, accumulator.ErrSessionComplete),
		errors.Is(err, accumulator.ErrSessionIncomplete):
		return http.StatusConflict, ErrOrder
	case errors.Is(err, classgroup.ErrEngine):
		return http.StatusBadRequest, ErrEngine
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, classgroup.ErrInvalidDiscriminant),
		errors.Is(err, hashtogroup.ErrDiscriminantTooSmall),
		errors.Is(err, hashtogroup.ErrInsecureDiscriminant):
		return http.StatusBadRequest, ErrData
	}
	return http.StatusInternalServerError, ErrInternal
}

func writeResult(ctx *fasthttp.RequestCtx, status, code int, msg string, result interface{}) {
	body, err := json.Marshal(&resultInfo{ErrorCode: code, ErrorMsg: msg, Result: result})
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(&resultInfo{ErrorCode: ErrInternal, ErrorMsg: err.Error()})
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.Write(body)
}
