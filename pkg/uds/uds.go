// Package uds carries the diagnostic queries used against the radar and
// camera ECUs. Only single frame ISO-TP exchanges are supported.
package uds

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service IDs
const (
	DIAGNOSTIC_SESSION_CONTROL = 0x10
	COMMUNICATION_CONTROL      = 0x28
	TESTER_PRESENT             = 0x3E
	NEGATIVE_RESPONSE          = 0x7F

	POSITIVE_RESPONSE_OFFSET = 0x40
)

// Session and control types
const (
	SESSION_EXTENDED_DIAGNOSTIC   = 0x03
	CONTROL_DISABLE_RX_DISABLE_TX = 0x03
	MESSAGE_TYPE_NORMAL_AND_NM    = 0x03
	SUPPRESS_POSITIVE_RESPONSE    = 0x80
)

var (
	ExtDiagRequest  = []byte{DIAGNOSTIC_SESSION_CONTROL, SESSION_EXTENDED_DIAGNOSTIC}
	ExtDiagResponse = []byte{DIAGNOSTIC_SESSION_CONTROL + POSITIVE_RESPONSE_OFFSET, SESSION_EXTENDED_DIAGNOSTIC}
	// ComContRequest disables rx and tx with the positive response suppressed.
	ComContRequest  = []byte{COMMUNICATION_CONTROL, SUPPRESS_POSITIVE_RESPONSE | CONTROL_DISABLE_RX_DISABLE_TX, MESSAGE_TYPE_NORMAL_AND_NM}
	ComContResponse = []byte{}
	// TesterPresent is a raw frame, PCI byte included.
	TesterPresent = []byte{0x02, TESTER_PRESENT, SUPPRESS_POSITIVE_RESPONSE, 0x00, 0x00, 0x00, 0x00, 0x00}
)

var (
	ErrPayloadTooLong = errors.New("payload does not fit a single frame")
	ErrNoClient       = errors.New("no CAN client for bus")
)

// Addr is a physical ECU request address.
type Addr uint32

// ResponseID returns the id the ECU answers on.
func (a Addr) ResponseID() uint32 {
	return uint32(a) + 8
}

func (a Addr) String() string {
	return fmt.Sprintf("0x%03X", uint32(a))
}

// Query sends Requests in order to every address in Addrs. Responses holds
// the expected prefix for each request, an empty prefix accepts any
// positive reply. A zero Timeout sends without waiting for replies.
type Query struct {
	Bus       int
	Addrs     []Addr
	Requests  [][]byte
	Responses [][]byte
	Timeout   time.Duration
}

func (q Query) validate() error {
	if len(q.Requests) != len(q.Responses) {
		return fmt.Errorf("query has %d requests but %d responses", len(q.Requests), len(q.Responses))
	}
	for _, req := range q.Requests {
		if len(req) > 7 {
			return fmt.Errorf("%w: % X", ErrPayloadTooLong, req)
		}
	}
	return nil
}

// Result maps an address to the reply of its last request. Addresses that
// did not answer every request are absent.
type Result map[Addr][]byte

type QueryTransport interface {
	Query(ctx context.Context, q Query) (Result, error)
}

// Sender puts a raw frame on a bus.
type Sender interface {
	Send(bus int, id uint32, data []byte) error
}
