package plan

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

func encodeErrorString(t *testing.T, reason string) []byte {
	t.Helper()
	args := abi.Arguments{{Type: mustType("string")}}
	payload, err := args.Pack(reason)
	if err != nil {
		t.Fatalf("pack reason: %v", err)
	}
	return append(errorStringSelector[:], payload...)
}

func TestDecodeRevertErrorString(t *testing.T) {
	decoded := DecodeRevert(encodeErrorString(t, "STF"))
	if decoded.Reason != "STF" {
		t.Fatalf("reason = %q, want STF", decoded.Reason)
	}
	if decoded.Inner != nil {
		t.Fatal("plain Error(string) should have no inner error")
	}
}

func TestDecodeRevertPanic(t *testing.T) {
	args := abi.Arguments{{Type: uint256T}}
	payload, err := args.Pack(big.NewInt(0x11))
	if err != nil {
		t.Fatalf("pack code: %v", err)
	}
	decoded := DecodeRevert(append(panicSelector[:], payload...))
	if decoded.Reason != "panic code 0x11" {
		t.Fatalf("reason = %q, want panic code 0x11", decoded.Reason)
	}
}

func TestDecodeRevertKnownSelector(t *testing.T) {
	sel := errorSelector("CurrencyNotSettled()")
	decoded := DecodeRevert(sel[:])
	if decoded.Reason != "CurrencyNotSettled" {
		t.Fatalf("reason = %q, want CurrencyNotSettled", decoded.Reason)
	}
}

func TestDecodeRevertExecutionFailedNested(t *testing.T) {
	inner := encodeErrorString(t, "Too little received")
	args := abi.Arguments{{Type: uint256T}, {Type: bytesT}}
	payload, err := args.Pack(big.NewInt(0), inner)
	if err != nil {
		t.Fatalf("pack wrapper: %v", err)
	}

	decoded := DecodeRevert(append(executionFailedSelector[:], payload...))
	if decoded.Reason != "command 0 failed" {
		t.Fatalf("reason = %q, want command 0 failed", decoded.Reason)
	}
	if decoded.Inner == nil {
		t.Fatal("wrapper should expose the inner revert")
	}
	if decoded.Inner.Reason != "Too little received" {
		t.Fatalf("inner reason = %q", decoded.Inner.Reason)
	}
}

func TestDecodeRevertExecutionFailedKnownInner(t *testing.T) {
	sel := errorSelector("V4TooLittleReceived(uint256,uint256)")
	innerArgs := abi.Arguments{{Type: uint256T}, {Type: uint256T}}
	innerPayload, err := innerArgs.Pack(big.NewInt(100), big.NewInt(90))
	if err != nil {
		t.Fatalf("pack inner: %v", err)
	}
	inner := append(sel[:], innerPayload...)

	args := abi.Arguments{{Type: uint256T}, {Type: bytesT}}
	payload, err := args.Pack(big.NewInt(1), inner)
	if err != nil {
		t.Fatalf("pack wrapper: %v", err)
	}

	decoded := DecodeRevert(append(executionFailedSelector[:], payload...))
	if decoded.Inner == nil || decoded.Inner.Reason != "V4TooLittleReceived" {
		t.Fatalf("inner = %+v, want V4TooLittleReceived", decoded.Inner)
	}
}

func TestDecodeRevertUnknownSelector(t *testing.T) {
	raw := crypto.Keccak256([]byte("SomethingNobodyDeclared()"))[:4]
	decoded := DecodeRevert(raw)
	if decoded.Reason != "unrecognized revert" {
		t.Fatalf("reason = %q", decoded.Reason)
	}
	if decoded.Selector == "" {
		t.Fatal("selector should always be reported")
	}
}

func TestDecodeRevertHostileOffset(t *testing.T) {
	// Offset word near 2^64 so that offset+32 wraps in uint64 arithmetic.
	// The decoder must report a malformed payload, never panic.
	hostile := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(16))

	payload := make([]byte, 64)
	hostile.FillBytes(payload[:32])
	decoded := DecodeRevert(append(errorStringSelector[:], payload...))
	if decoded.Reason != "malformed Error(string) payload" {
		t.Fatalf("reason = %q, want malformed payload", decoded.Reason)
	}

	wrapper := make([]byte, 96)
	hostile.FillBytes(wrapper[32:64])
	decoded = DecodeRevert(append(executionFailedSelector[:], wrapper...))
	if decoded.Reason != "malformed ExecutionFailed payload" {
		t.Fatalf("reason = %q, want malformed payload", decoded.Reason)
	}
}

func TestDecodeRevertHostileLength(t *testing.T) {
	// Valid offset, length word of 2^256-1.
	payload := make([]byte, 64)
	payload[31] = 32
	for i := 32; i < 64; i++ {
		payload[i] = 0xff
	}
	decoded := DecodeRevert(append(errorStringSelector[:], payload...))
	if decoded.Reason != "malformed Error(string) payload" {
		t.Fatalf("reason = %q, want malformed payload", decoded.Reason)
	}
}

func TestDecodeRevertOffsetPastEnd(t *testing.T) {
	// A small offset that still leaves no room for the length word.
	payload := make([]byte, 64)
	payload[31] = 33
	decoded := DecodeRevert(append(errorStringSelector[:], payload...))
	if decoded.Reason != "malformed Error(string) payload" {
		t.Fatalf("reason = %q, want malformed payload", decoded.Reason)
	}
}

func TestDecodeRevertShortData(t *testing.T) {
	decoded := DecodeRevert([]byte{0x08})
	if decoded.Reason != "empty revert data" {
		t.Fatalf("reason = %q", decoded.Reason)
	}
}
