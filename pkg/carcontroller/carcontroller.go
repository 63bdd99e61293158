// Package carcontroller runs the 100 Hz control cycle. It owns the frame
// counter and decides which lane keep and cruise frames go out each cycle.
package carcontroller

import (
	"log"
	"math"

	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/roffe/hkgcan/pkg/hyundaican"
)

// Steering torque limits for the MDPS.
const (
	SteerMax              = 384
	SteerDeltaUp          = 3
	SteerDeltaDown        = 7
	SteerDriverAllowance  = 50
	SteerDriverMultiplier = 2
	SteerDriverFactor     = 1
)

// Cruise buttons carried in CLU11.
const (
	ButtonNone     = 0
	ButtonResAccel = 1
	ButtonSetDecel = 2
	ButtonCancel   = 4
)

const (
	resumeInterval = 5
	resumeBurst    = 5
)

// Packer packs and unpacks signal records.
type Packer interface {
	Pack(bus int, rec dbc.Record) dbc.Frame
	Unpack(f dbc.Frame, rec dbc.Record) error
}

// Stock gives the last frame received for an id, usually an eventbus.
type Stock interface {
	Last(id uint32) (dbc.Frame, bool)
}

type Params struct {
	Platform hyundaican.Platform
	// MDPSBus is 1 when the MDPS sits on the second bus and needs its own
	// LKAS11 and CLU11.
	MDPSBus      int
	LFAAvailable bool
	UseStockSCC  bool
	NoSCCRadar   bool
}

type CarState struct {
	// Speed is the cluster speed in the cluster's unit.
	Speed          float64
	SteeringTorque float64
	Standstill     bool
	GasPressed     bool
	BrakePressed   bool
	CruiseOn       bool
	AEBCmdAct      bool
}

type Actuators struct {
	Enabled bool
	// Steer is the normalized torque request, -1 to 1.
	Steer       float64
	Accel       float64
	SetSpeed    float64
	LeadVisible bool
	GapSetting  int

	LeftLane        bool
	RightLane       bool
	LeftLaneDepart  bool
	RightLaneDepart bool
	SteerWarning    bool
	Cancel          bool
}

type Controller struct {
	enc    *hyundaican.Encoder
	packer Packer
	stock  Stock
	params Params

	frame           uint
	applySteerLast  int
	cluCnt          uint
	resumeCnt       int
	lastResumeFrame uint
}

func New(p Packer, stock Stock, params Params) *Controller {
	return &Controller{
		enc:    hyundaican.NewEncoder(p, params.Platform),
		packer: p,
		stock:  stock,
		params: params,
	}
}

// Frame returns the number of completed cycles.
func (c *Controller) Frame() uint {
	return c.frame
}

// Update runs one cycle and returns the frames to send.
func (c *Controller) Update(cs CarState, act Actuators) []dbc.Frame {
	var out []dbc.Frame
	frame := c.frame

	applySteer := 0
	steerReq := act.Enabled
	if act.Enabled {
		newSteer := int(math.Round(act.Steer * SteerMax))
		applySteer = SteerTorqueLimits(newSteer, c.applySteerLast, cs.SteeringTorque)
	}
	c.applySteerLast = applySteer

	var lkas hyundaican.LKAS11
	c.seed(hyundaican.IDLKAS11, &lkas)
	st := hyundaican.LKASState{
		SysWarning:      act.SteerWarning,
		SysState:        lkasSysState(act),
		Enabled:         act.Enabled,
		LeftLane:        act.LeftLane,
		RightLane:       act.RightLane,
		LeftLaneDepart:  act.LeftLaneDepart,
		RightLaneDepart: act.RightLaneDepart,
		LFAAvailable:    c.params.LFAAvailable,
	}
	out = append(out, c.enc.CreateLKAS11(frame, applySteer, steerReq, lkas, st))

	var clu hyundaican.CLU11
	c.seed(hyundaican.IDCLU11, &clu)
	if c.params.MDPSBus == 1 {
		st.Bus = 1
		out = append(out, c.enc.CreateLKAS11(frame, applySteer, steerReq, lkas, st))
		out = append(out, c.enc.CreateCLU11(1, clu, ButtonNone, cs.Speed, c.cluCnt))
		c.cluCnt++
	}

	switch {
	case act.Cancel:
		out = append(out, c.enc.CreateCLU11(0, clu, ButtonCancel, cs.Speed, frame))
	case cs.Standstill && act.Enabled:
		if frame-c.lastResumeFrame > resumeInterval {
			out = append(out, c.enc.CreateCLU11(0, clu, ButtonResAccel, cs.Speed, uint(c.resumeCnt)))
			c.resumeCnt++
			if c.resumeCnt > resumeBurst {
				c.lastResumeFrame = frame
				c.resumeCnt = 0
			}
		}
	default:
		c.resumeCnt = 0
	}

	if !c.params.UseStockSCC && frame%2 == 0 {
		s := hyundaican.SCCState{
			Enabled:      act.Enabled,
			SetSpeed:     act.SetSpeed,
			LeadVisible:  act.LeadVisible,
			GapSetting:   act.GapSetting,
			Standstill:   cs.Standstill,
			GasPressed:   cs.GasPressed,
			BrakePressed: cs.BrakePressed,
			CruiseOn:     cs.CruiseOn,
			AEBCmdAct:    cs.AEBCmdAct,
			ApplyAccel:   act.Accel,
			NoSCCRadar:   c.params.NoSCCRadar,
		}
		var scc12 hyundaican.SCC12
		c.seed(hyundaican.IDSCC12, &scc12)
		out = append(out, c.enc.CreateSCC12(frame/2, s, scc12))

		var scc11 hyundaican.SCC11
		c.seed(hyundaican.IDSCC11, &scc11)
		out = append(out, c.enc.CreateSCC11(frame, s, scc11))

		var scc14 hyundaican.SCC14
		if c.seed(hyundaican.IDSCC14, &scc14) || c.params.NoSCCRadar {
			out = append(out, c.enc.CreateSCC14(s, scc14))
		}
	}

	if c.params.NoSCCRadar && frame%20 == 0 {
		scc13 := hyundaican.SCC13{SCCEquip: true, AebDrvSetStatus: 2}
		c.seed(hyundaican.IDSCC13, &scc13)
		out = append(out, c.enc.CreateSCC13(scc13))
	}

	if c.params.LFAAvailable && frame%5 == 0 {
		out = append(out, c.enc.CreateLFAMFA(frame, act.Enabled))
	}

	c.frame++
	return out
}

// seed fills rec from the last stock frame for id. It reports whether a
// stock frame was found.
func (c *Controller) seed(id uint32, rec dbc.Record) bool {
	if c.stock == nil {
		return false
	}
	f, ok := c.stock.Last(id)
	if !ok {
		return false
	}
	if err := c.packer.Unpack(f, rec); err != nil {
		log.Printf("unpack 0x%03X: %v", id, err)
		return false
	}
	return true
}

func lkasSysState(act Actuators) int {
	switch {
	case !act.Enabled:
		return 1
	case act.LeftLane && act.RightLane:
		return 3
	case act.LeftLane:
		return 5
	case act.RightLane:
		return 6
	default:
		return 1
	}
}

// SteerTorqueLimits clamps a torque request to the MDPS limits, the driver
// override window and the per cycle rate limits.
func SteerTorqueLimits(apply, last int, driverTorque float64) int {
	driverMax := SteerMax + (SteerDriverAllowance+driverTorque*SteerDriverFactor)*SteerDriverMultiplier
	driverMin := -SteerMax + (-SteerDriverAllowance+driverTorque*SteerDriverFactor)*SteerDriverMultiplier
	maxAllowed := max(min(SteerMax, int(driverMax)), 0)
	minAllowed := min(max(-SteerMax, int(driverMin)), 0)
	apply = clip(apply, minAllowed, maxAllowed)

	if last > 0 {
		return clip(apply, max(last-SteerDeltaDown, -SteerDeltaUp), last+SteerDeltaUp)
	}
	return clip(apply, last-SteerDeltaUp, min(last+SteerDeltaDown, SteerDeltaUp))
}

func clip(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
