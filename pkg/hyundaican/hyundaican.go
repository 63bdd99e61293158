// Package hyundaican builds the lane keep and smart cruise frames sent to the
// MDPS, cluster and SCC modules.
//
// Every Create function takes the record for its message by value. The record
// holds the last stock values seen on the bus; fields the encoder does not set
// are sent as they were received, and the caller's copy is never modified.
package hyundaican

import (
	"github.com/roffe/hkgcan/pkg/checksum"
	"github.com/roffe/hkgcan/pkg/dbc"
)

// Packer turns a signal record into a raw frame.
type Packer interface {
	Pack(bus int, rec dbc.Record) dbc.Frame
}

// LFA presentation codes on the cluster.
const (
	// FcwOpt_USM 5 = orange blinking car + lanes
	// FcwOpt_USM 4 = orange car + lanes
	// FcwOpt_USM 3 = green blinking car + lanes
	// FcwOpt_USM 2 = green car + lanes
	// FcwOpt_USM 1 = white car + lanes
	// FcwOpt_USM 0 = no car + lanes
	FcwOptUSMWhite = 1
	FcwOptUSMGreen = 2

	LdwsOptUSMLFA = 2

	// SysWarning 4 = keep hands on wheel
	// SysWarning 5 = keep hands on wheel (red)
	// SysWarning 6 = keep hands on wheel (red) + beep
	// The warning is hidden while the blinkers are on.
	SysWarningNone         = 0
	SysWarningHandsOnWheel = 4
)

// SCC12 ACCMode values.
const (
	ACCModeOff      = 0
	ACCModeActive   = 1
	ACCModeOverride = 2
)

// SCC14 limits used when the software owns longitudinal control.
const (
	JerkUpperLimit   = 3.2
	JerkLowerLimit   = 0.1
	ComfortBandUpper = 0.24
	ComfortBandLower = 0.24
)

// LKASState carries the per cycle inputs for LKAS11.
type LKASState struct {
	SysWarning      bool
	SysState        int
	Enabled         bool
	LeftLane        bool
	RightLane       bool
	LeftLaneDepart  bool
	RightLaneDepart bool
	LFAAvailable    bool
	Bus             int
}

// SCCState carries the per cycle inputs for the SCC messages.
type SCCState struct {
	Enabled      bool
	SetSpeed     float64
	LeadVisible  bool
	GapSetting   int
	Standstill   bool
	GasPressed   bool
	BrakePressed bool
	CruiseOn     bool
	AEBCmdAct    bool
	ApplyAccel   float64

	// UseStockSCC leaves the radar's SCC messages untouched.
	UseStockSCC bool
	// NoSCCRadar is set when the radar is disabled and the software is the
	// only sender of the SCC messages.
	NoSCCRadar bool
}

type Encoder struct {
	packer   Packer
	platform Platform
	variant  checksum.Variant
}

func NewEncoder(p Packer, platform Platform) *Encoder {
	return &Encoder{
		packer:   p,
		platform: platform,
		variant:  ChecksumFor(platform),
	}
}

func (e *Encoder) Platform() Platform {
	return e.platform
}

// CreateLKAS11 builds the steering command. apply is the requested torque.
func (e *Encoder) CreateLKAS11(frame uint, apply int, steerReq bool, lkas LKAS11, st LKASState) dbc.Frame {
	if steerReq {
		lkas.LdwsSysState = 3
	} else {
		lkas.LdwsSysState = st.SysState
	}
	lkas.SysWarning = b2i(st.SysWarning)
	lkas.LdwsLHWarning = b2i(st.LeftLaneDepart)
	lkas.LdwsRHWarning = b2i(st.RightLaneDepart)
	lkas.StrToqReq = apply
	lkas.ActToi = steerReq
	lkas.ToiFlt = false
	lkas.MsgCount = frame % 0x10
	lkas.Chksum = 0

	switch {
	case st.LFAAvailable:
		lkas.LdwsActivemode = b2i(st.LeftLane) + b2i(st.RightLane)<<1
		lkas.LdwsOptUSM = LdwsOptUSMLFA
		if st.Enabled {
			lkas.FcwOptUSM = FcwOptUSMGreen
		} else {
			lkas.FcwOptUSM = FcwOptUSMWhite
		}
		if st.SysWarning {
			lkas.SysWarning = SysWarningHandsOnWheel
		} else {
			lkas.SysWarning = SysWarningNone
		}
	case e.platform == HyundaiGenesis:
		// This field is actually LdwsActivemode.
		// Genesis and Optima fault when forwarding while engaged.
		lkas.LdwsActivemode = 2
	case e.platform == KiaOptima:
		lkas.LdwsActivemode = 0
	}

	dat := e.packer.Pack(0, lkas).Data
	lkas.Chksum = checksum.Compute(e.variant, dat[:])
	return e.packer.Pack(st.Bus, lkas)
}

// CreateCLU11 builds the cluster message. Only the bus that forwards buttons
// gets the button field, bus 1 carries speed and counter only.
func (e *Encoder) CreateCLU11(bus int, clu CLU11, button int, speed float64, cnt uint) dbc.Frame {
	if bus != 1 {
		clu.CruiseSwState = button
	}
	clu.Vanz = speed
	clu.AliveCnt1 = cnt % 0x10
	return e.packer.Pack(bus, clu)
}

// CreateLFAMFA builds the lane following assist indicator.
//
// ACTIVE 1 = green steering wheel icon
// LFA_USM 2 & 3 = LFA cancelled, fast loud beeping
// LFA_USM 0 & 1 = no message
// LFA_SysWarning 1 = "Switching to HDA", short beep
// LFA_SysWarning 2 = "Switching to Smart Cruise control", short beep
// LFA_SysWarning 3 = LFA error
func (e *Encoder) CreateLFAMFA(frame uint, enabled bool) dbc.Frame {
	return e.packer.Pack(0, LFAHDAMFC{Active: enabled})
}

func (e *Encoder) CreateSCC11(frame uint, s SCCState, scc SCC11) dbc.Frame {
	switch {
	case !s.UseStockSCC:
		if s.Enabled {
			scc.VSetDis = s.SetSpeed
		}
		if s.Standstill {
			scc.SCCInfoDisplay = 0
		}
		scc.DriverAlertDisplay = 0
		scc.TauGapSet = s.GapSetting
		scc.ObjValid = s.LeadVisible
		scc.ACCObjStatus = b2i(s.LeadVisible)
		if s.NoSCCRadar {
			scc.MainModeACC = true
			scc.AliveCounterACC = frame / 2 % 0x10
		}
	case s.NoSCCRadar:
		scc.AliveCounterACC = frame / 2 % 0x10
	}
	return e.packer.Pack(0, scc)
}

// CreateSCC12 builds the longitudinal command. Acceleration is only
// requested while engaged with cruise on and the brake released, an active
// AEB command from the stock system is passed through untouched.
func (e *Encoder) CreateSCC12(cnt uint, s SCCState, scc SCC12) dbc.Frame {
	switch {
	case !s.UseStockSCC && !s.AEBCmdAct:
		active := s.Enabled && s.CruiseOn && !s.BrakePressed
		if active {
			if s.GasPressed {
				scc.ACCMode = ACCModeOverride
			} else {
				scc.ACCMode = ACCModeActive
			}
			if s.ApplyAccel < -0.5 {
				scc.StopReq = s.Standstill
			}
			scc.AReqRaw = s.ApplyAccel
			scc.AReqValue = s.ApplyAccel
		} else {
			scc.ACCMode = ACCModeOff
			scc.AReqRaw = 0
			scc.AReqValue = 0
		}
		if s.NoSCCRadar {
			scc.VSMAlive = cnt % 0x10
			if active {
				scc.ACCMode = ACCModeActive
			} else {
				scc.ACCMode = ACCModeOff
			}
		}
		scc.VSMChkSum = e.nibbleChecksum(scc)
	case s.NoSCCRadar:
		scc.VSMAlive = cnt % 0x10
		scc.VSMChkSum = e.nibbleChecksum(scc)
	}
	return e.packer.Pack(0, scc)
}

func (e *Encoder) nibbleChecksum(scc SCC12) uint8 {
	scc.VSMChkSum = 0
	dat := e.packer.Pack(0, scc).Data
	return checksum.Nibble(dat[:])
}

func (e *Encoder) CreateSCC13(scc SCC13) dbc.Frame {
	return e.packer.Pack(0, scc)
}

func (e *Encoder) CreateSCC14(s SCCState, scc SCC14) dbc.Frame {
	if !s.UseStockSCC && !s.AEBCmdAct && s.Enabled {
		scc.JerkUpperLimit = JerkUpperLimit
		scc.JerkLowerLimit = JerkLowerLimit
		scc.SCCMode = 1
		scc.ComfortBandUpper = ComfortBandUpper
		scc.ComfortBandLower = ComfortBandLower
	}
	return e.packer.Pack(0, scc)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
