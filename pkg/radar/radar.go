// Package radar silences the forward radar so the SCC messages can be sent
// by software instead.
package radar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/roffe/hkgcan/pkg/uds"
)

const (
	DefaultAddr    uds.Addr = 0x7D0
	DefaultBus              = 2
	DefaultTimeout          = 100 * time.Millisecond
	DefaultRetries          = 5
)

var errNoResponse = errors.New("no extended session response")

type Options struct {
	Bus     int
	Timeout time.Duration
	Retries int
	Debug   bool

	OnMessage func(string)
	OnWarning func(string)
}

// Outcome is the result of a Disable call. Attempts counts the extended
// session requests that were made.
type Outcome struct {
	Success  bool
	Attempts int
	Addr     uds.Addr
}

func (o Outcome) String() string {
	if o.Success {
		return fmt.Sprintf("ecu %s disabled after %d attempt(s)", o.Addr, o.Attempts)
	}
	return fmt.Sprintf("ecu %s not disabled after %d attempt(s)", o.Addr, o.Attempts)
}

// DefaultOptions returns bus 2, 100ms timeout and 5 retries.
func DefaultOptions() Options {
	return Options{
		Bus:     DefaultBus,
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
	}
}

func (o *Options) setDefaults() {
	if o.OnMessage == nil {
		o.OnMessage = func(msg string) {
			log.Println(msg)
		}
	}
	if o.OnWarning == nil {
		o.OnWarning = func(msg string) {
			log.Println("warning: " + msg)
		}
	}
}

type phaseResult struct {
	matched bool
	addr    uds.Addr
	err     error
}

// Disable enters the extended diagnostic session on addr and then turns
// off its normal communication. The session request is retried up to
// opts.Retries times, the communication control request is sent once
// without waiting for a reply. Failures are reported in the Outcome,
// Disable never returns an error.
func Disable(ctx context.Context, q uds.QueryTransport, addr uds.Addr, opts Options) Outcome {
	opts.setDefaults()
	out := Outcome{Addr: addr}

	opts.OnMessage(fmt.Sprintf("ecu disable %s ...", addr))
	if opts.Retries <= 0 {
		return out
	}

	err := retry.Do(func() error {
		out.Attempts++
		res := enterExtendedSession(ctx, q, addr, opts)
		if res.err != nil {
			return res.err
		}
		if !res.matched {
			return errNoResponse
		}
		opts.OnMessage("ecu communication control disable tx/rx ...")
		if err := disableCommunication(ctx, q, res.addr, opts); err != nil {
			return err
		}
		return nil
	},
		retry.Context(ctx),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.Attempts(uint(opts.Retries)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if errors.Is(err, errNoResponse) {
				opts.OnWarning(fmt.Sprintf("ecu %s: no extended session response (attempt %d)", addr, n+1))
				opts.OnMessage(fmt.Sprintf("ecu disable retry (%d) ...", n+1))
				return
			}
			opts.OnWarning(fmt.Sprintf("ecu disable exception: %v", err))
		}),
	)
	if err != nil {
		if opts.Debug {
			opts.OnMessage(fmt.Sprintf("ecu disable failed: %v", err))
		}
		return out
	}
	out.Success = true
	return out
}

func enterExtendedSession(ctx context.Context, q uds.QueryTransport, addr uds.Addr, opts Options) phaseResult {
	res, err := q.Query(ctx, uds.Query{
		Bus:       opts.Bus,
		Addrs:     []uds.Addr{addr},
		Requests:  [][]byte{uds.ExtDiagRequest},
		Responses: [][]byte{uds.ExtDiagResponse},
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return phaseResult{err: fmt.Errorf("extended session: %w", err)}
	}
	for a, dat := range res {
		if opts.Debug {
			opts.OnMessage(fmt.Sprintf("%s: % X", a, dat))
		}
		return phaseResult{matched: true, addr: a}
	}
	return phaseResult{}
}

func disableCommunication(ctx context.Context, q uds.QueryTransport, addr uds.Addr, opts Options) error {
	if _, err := q.Query(ctx, uds.Query{
		Bus:       opts.Bus,
		Addrs:     []uds.Addr{addr},
		Requests:  [][]byte{uds.ComContRequest},
		Responses: [][]byte{uds.ComContResponse},
	}); err != nil {
		return fmt.Errorf("communication control: %w", err)
	}
	return nil
}
