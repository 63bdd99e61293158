package radar

import (
	"context"
	"fmt"

	"github.com/roffe/hkgcan/pkg/uds"
)

// ControlPair is a communication control type and message type.
type ControlPair struct {
	ControlType byte
	MessageType byte
}

func (p ControlPair) String() string {
	return fmt.Sprintf("0x%X - 0x%X", p.ControlType, p.MessageType)
}

func (p ControlPair) request() []byte {
	return []byte{uds.COMMUNICATION_CONTROL, p.ControlType, p.MessageType}
}

// Sweep tries communication control on addr with the pairs encoded in
// 0..n-1, control type in the high byte and message type in the low byte.
// It returns the pairs answered with a positive response. progress, if
// set, is called before each request.
func Sweep(ctx context.Context, q uds.QueryTransport, addr uds.Addr, opts Options, n int, progress func(ControlPair)) ([]ControlPair, error) {
	opts.setDefaults()
	positive := []byte{uds.COMMUNICATION_CONTROL + uds.POSITIVE_RESPONSE_OFFSET}

	var accepted []ControlPair
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}
		p := ControlPair{ControlType: byte(i >> 8), MessageType: byte(i)}
		if progress != nil {
			progress(p)
		}
		res, err := q.Query(ctx, uds.Query{
			Bus:       opts.Bus,
			Addrs:     []uds.Addr{addr},
			Requests:  [][]byte{p.request()},
			Responses: [][]byte{positive},
			Timeout:   opts.Timeout,
		})
		if err != nil {
			return accepted, fmt.Errorf("%s: %w", p, err)
		}
		if _, ok := res[addr]; ok {
			opts.OnMessage(fmt.Sprintf("%s: success", p))
			accepted = append(accepted, p)
		}
	}
	return accepted, nil
}
