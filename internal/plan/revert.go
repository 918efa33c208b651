package plan

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"poolLens/internal/model"
)

var (
	errorStringSelector     = errorSelector("Error(string)")
	panicSelector           = errorSelector("Panic(uint256)")
	executionFailedSelector = errorSelector("ExecutionFailed(uint256,bytes)")

	// Custom errors raised by the router, delegate contract and pool
	// manager. Selectors are derived from the signatures at init so the
	// table stays greppable.
	knownErrors = map[[4]byte]string{
		errorSelector("V4TooLittleReceived(uint256,uint256)"):       "V4TooLittleReceived",
		errorSelector("V4TooMuchRequested(uint256,uint256)"):        "V4TooMuchRequested",
		errorSelector("CurrencyNotSettled()"):                       "CurrencyNotSettled",
		errorSelector("TransactionDeadlinePassed()"):                "TransactionDeadlinePassed",
		errorSelector("DeadlinePassed(uint256)"):                    "DeadlinePassed",
		errorSelector("InsufficientToken()"):                        "InsufficientToken",
		errorSelector("InsufficientETH()"):                          "InsufficientETH",
		errorSelector("NotApproved(address)"):                       "NotApproved",
		errorSelector("PoolNotInitialized()"):                       "PoolNotInitialized",
		errorSelector("AllowanceExpired(uint256)"):                  "AllowanceExpired",
		errorSelector("InsufficientAllowance(uint256)"):             "InsufficientAllowance",
		errorSelector("MaximumAmountExceeded(uint128,uint128)"):     "MaximumAmountExceeded",
		errorSelector("MinimumAmountInsufficient(uint128,uint128)"): "MinimumAmountInsufficient",
	}
)

func errorSelector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// DecodeRevert translates raw revert data into a readable RevertError.
// Standard Error(string) and Panic(uint256) payloads are decoded fully,
// ExecutionFailed wrappers are unwrapped one level, and known custom errors
// are resolved by selector. Anything else reports the raw selector.
func DecodeRevert(data []byte) *model.RevertError {
	if len(data) < 4 {
		return &model.RevertError{Reason: "empty revert data"}
	}

	var sel [4]byte
	copy(sel[:], data[:4])
	selHex := "0x" + hex.EncodeToString(sel[:])

	switch sel {
	case errorStringSelector:
		reason, err := decodeErrorString(data[4:])
		if err != nil {
			return &model.RevertError{Selector: selHex, Reason: "malformed Error(string) payload"}
		}
		return &model.RevertError{Selector: selHex, Reason: reason}

	case panicSelector:
		if len(data) < 36 {
			return &model.RevertError{Selector: selHex, Reason: "malformed Panic(uint256) payload"}
		}
		code := new(big.Int).SetBytes(data[4:36])
		return &model.RevertError{Selector: selHex, Reason: fmt.Sprintf("panic code 0x%02x", code)}

	case executionFailedSelector:
		inner, command, err := decodeExecutionFailed(data[4:])
		if err != nil {
			return &model.RevertError{Selector: selHex, Reason: "malformed ExecutionFailed payload"}
		}
		// Unwrap a single level. Nested wrappers inside the inner
		// payload report their own selector without further descent.
		return &model.RevertError{
			Selector: selHex,
			Reason:   fmt.Sprintf("command %d failed", command),
			Inner:    decodeInner(inner),
		}
	}

	if name, ok := knownErrors[sel]; ok {
		return &model.RevertError{Selector: selHex, Reason: name}
	}
	return &model.RevertError{Selector: selHex, Reason: "unrecognized revert"}
}

// decodeInner resolves the nested payload of an ExecutionFailed wrapper. It
// deliberately does not recurse into further wrappers.
func decodeInner(data []byte) *model.RevertError {
	if len(data) < 4 {
		return &model.RevertError{Reason: "empty inner revert data"}
	}
	var sel [4]byte
	copy(sel[:], data[:4])
	selHex := "0x" + hex.EncodeToString(sel[:])

	if sel == errorStringSelector {
		if reason, err := decodeErrorString(data[4:]); err == nil {
			return &model.RevertError{Selector: selHex, Reason: reason}
		}
	}
	if name, ok := knownErrors[sel]; ok {
		return &model.RevertError{Selector: selHex, Reason: name}
	}
	return &model.RevertError{Selector: selHex, Reason: "unrecognized revert"}
}

func decodeErrorString(payload []byte) (string, error) {
	if len(payload) < 64 {
		return "", fmt.Errorf("payload too short: %d bytes", len(payload))
	}
	body, err := dynamicBytesAt(payload, payload[:32])
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func decodeExecutionFailed(payload []byte) ([]byte, uint64, error) {
	if len(payload) < 64 {
		return nil, 0, fmt.Errorf("payload too short: %d bytes", len(payload))
	}
	command := new(big.Int).SetBytes(payload[:32])
	inner, err := dynamicBytesAt(payload, payload[32:64])
	if err != nil {
		return nil, 0, err
	}
	return inner, command.Uint64(), nil
}

// dynamicBytesAt resolves one dynamic bytes/string value inside payload from
// its offset word. The offset and length come from untrusted revert data, so
// every bound is checked in a form that cannot wrap uint64 arithmetic.
func dynamicBytesAt(payload, offsetWord []byte) ([]byte, error) {
	size := uint64(len(payload))
	offset := new(big.Int).SetBytes(offsetWord)
	if !offset.IsUint64() || offset.Uint64() > size-32 {
		return nil, fmt.Errorf("offset out of range")
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(payload[start : start+32])
	if !length.IsUint64() || length.Uint64() > size-32-start {
		return nil, fmt.Errorf("length out of range")
	}
	return payload[start+32 : start+32+length.Uint64()], nil
}
