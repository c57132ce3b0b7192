package vrf

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FulfillmentCall is a contract call that delivers randomness for one request.
// Only the target and the calldata are part of the wire format; the remaining
// fields describe the call for logs and inspection.
type FulfillmentCall struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`

	RequestID *big.Int      `json:"-"`
	Round     uint64        `json:"-"`
	Seed      common.Hash   `json:"-"`
	Words     []common.Hash `json:"-"`
}

// ExecutionResult is the outcome of one invocation. Either the invocation can
// execute the (possibly empty) list of calls, or it cannot and Message says why.
type ExecutionResult struct {
	CanExec  bool              `json:"canExec"`
	CallData []FulfillmentCall `json:"callData"`
	Message  string            `json:"message"`
}

// MarshalJSON encodes only the fields of the active variant, the shape the
// transaction submitter expects.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	if !r.CanExec {
		return json.Marshal(struct {
			CanExec bool   `json:"canExec"`
			Message string `json:"message"`
		}{false, r.Message})
	}
	calls := r.CallData
	if calls == nil {
		calls = []FulfillmentCall{}
	}
	return json.Marshal(struct {
		CanExec  bool              `json:"canExec"`
		CallData []FulfillmentCall `json:"callData"`
	}{true, calls})
}

// Executable returns a successful result. A nil call list is normalized to an
// empty one so the result always reads as "nothing to do" rather than missing.
func Executable(calls []FulfillmentCall) *ExecutionResult {
	if calls == nil {
		calls = []FulfillmentCall{}
	}
	return &ExecutionResult{CanExec: true, CallData: calls}
}

// Blocked returns a result that cannot be executed.
func Blocked(message string) *ExecutionResult {
	return &ExecutionResult{CanExec: false, Message: message}
}
