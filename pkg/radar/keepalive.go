package radar

import (
	"context"
	"time"

	"github.com/roffe/hkgcan/pkg/uds"
)

// KeepAlive sends tester present to addr every interval until ctx is done,
// keeping the ECU in the extended session. The first frame is sent right
// away. Send errors are returned.
func KeepAlive(ctx context.Context, s uds.Sender, addr uds.Addr, bus int, interval time.Duration) error {
	if err := s.Send(bus, uint32(addr), uds.TesterPresent); err != nil {
		return err
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := s.Send(bus, uint32(addr), uds.TesterPresent); err != nil {
				return err
			}
		}
	}
}
