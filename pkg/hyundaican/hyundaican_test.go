package hyundaican

import (
	"testing"

	"github.com/roffe/hkgcan/pkg/checksum"
	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db = NewDB()

func unpack[T any, P interface {
	*T
	dbc.Record
}](t *testing.T, f dbc.Frame) T {
	t.Helper()
	var rec T
	require.NoError(t, db.Unpack(f, P(&rec)))
	return rec
}

func nibbleSum(dat []byte) int {
	var total int
	for _, b := range dat {
		total += int(b>>4) + int(b&0x0F)
	}
	return total
}

func TestCreateLKAS11Golden(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		want     []byte
	}{
		{"crc8", HyundaiSonata, []byte{0x0C, 0x04, 0x64, 0x0C, 0x50, 0x00, 0xF5, 0x00}},
		{"7B", KiaStinger, []byte{0x0C, 0x04, 0x64, 0x0C, 0x50, 0x00, 0xD0, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder(db, tt.platform)
			f := enc.CreateLKAS11(5, 100, true, LKAS11{}, LKASState{Enabled: true, LeftLaneDepart: true})
			assert.Equal(t, IDLKAS11, f.ID)
			assert.Equal(t, 0, f.Bus)
			assert.Equal(t, tt.want, f.Bytes())
		})
	}
}

func TestCreateLKAS11(t *testing.T) {
	enc := NewEncoder(db, KiaStinger)
	f := enc.CreateLKAS11(37, -200, true, LKAS11{}, LKASState{LeftLaneDepart: true, Bus: 1})
	got := unpack[LKAS11](t, f)

	assert.Equal(t, 1, f.Bus)
	assert.Equal(t, 3, got.LdwsSysState)
	assert.Equal(t, 1, got.LdwsLHWarning)
	assert.Equal(t, 0, got.LdwsRHWarning)
	assert.Equal(t, -200, got.StrToqReq)
	assert.True(t, got.ActToi)
	assert.False(t, got.ToiFlt)
	assert.Equal(t, uint(37%16), got.MsgCount)
}

func TestCreateLKAS11SysState(t *testing.T) {
	enc := NewEncoder(db, KiaStinger)
	f := enc.CreateLKAS11(0, 0, false, LKAS11{}, LKASState{SysState: 1})
	got := unpack[LKAS11](t, f)
	assert.Equal(t, 1, got.LdwsSysState)
	assert.False(t, got.ActToi)
}

func TestCreateLKAS11MsgCountWraps(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	for _, frame := range []uint{0, 15, 16, 255, 1 << 20, 1<<31 + 7} {
		got := unpack[LKAS11](t, enc.CreateLKAS11(frame, 0, false, LKAS11{}, LKASState{}))
		assert.Less(t, got.MsgCount, uint(16))
		assert.Equal(t, frame%16, got.MsgCount)
	}
}

func TestCreateLKAS11Checksum(t *testing.T) {
	for _, p := range []Platform{HyundaiSonata, HyundaiPalisade, KiaSorento, HyundaiGenesis, KiaStinger, HyundaiKona} {
		t.Run(string(p), func(t *testing.T) {
			enc := NewEncoder(db, p)
			f := enc.CreateLKAS11(9, 321, true, LKAS11{FcwOpt: 1, HbaOpt: 2}, LKASState{RightLaneDepart: true})
			dat := f.Bytes()
			want := dat[6]
			dat[6] = 0
			assert.Equal(t, checksum.Compute(ChecksumFor(p), dat), want)
		})
	}
}

func TestCreateLKAS11LFA(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)

	f := enc.CreateLKAS11(0, 0, true, LKAS11{}, LKASState{
		LFAAvailable: true,
		Enabled:      true,
		SysWarning:   true,
		LeftLane:     true,
		RightLane:    true,
	})
	got := unpack[LKAS11](t, f)
	assert.Equal(t, SysWarningHandsOnWheel, got.SysWarning)
	assert.Equal(t, FcwOptUSMGreen, got.FcwOptUSM)
	assert.Equal(t, LdwsOptUSMLFA, got.LdwsOptUSM)
	assert.Equal(t, 3, got.LdwsActivemode)

	f = enc.CreateLKAS11(0, 0, true, LKAS11{}, LKASState{LFAAvailable: true, LeftLane: true})
	got = unpack[LKAS11](t, f)
	assert.Equal(t, SysWarningNone, got.SysWarning)
	assert.Equal(t, FcwOptUSMWhite, got.FcwOptUSM)
	assert.Equal(t, 1, got.LdwsActivemode)
}

func TestCreateLKAS11PlatformOverrides(t *testing.T) {
	stock := LKAS11{LdwsActivemode: 1}
	tests := []struct {
		platform Platform
		want     int
	}{
		{HyundaiGenesis, 2},
		{KiaOptima, 0},
		{KiaStinger, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			f := NewEncoder(db, tt.platform).CreateLKAS11(0, 0, false, stock, LKASState{})
			assert.Equal(t, tt.want, unpack[LKAS11](t, f).LdwsActivemode)
		})
	}
}

func TestCreateLKAS11KeepsStockFields(t *testing.T) {
	stock := LKAS11{FcwSysState: 3, FusionState: 2, HbaLamp: 1, Chksum: 0xAA, MsgCount: 9}
	orig := stock
	got := unpack[LKAS11](t, NewEncoder(db, KiaStinger).CreateLKAS11(1, 0, false, stock, LKASState{}))

	assert.Equal(t, orig, stock, "caller record modified")
	assert.Equal(t, 3, got.FcwSysState)
	assert.Equal(t, 2, got.FusionState)
	assert.Equal(t, 1, got.HbaLamp)
}

func TestCreateCLU11(t *testing.T) {
	enc := NewEncoder(db, KiaStinger)
	stock := CLU11{CruiseSwState: 0, CruiseSwMain: 1, RheostatLevel: 12}

	tests := []struct {
		name       string
		bus        int
		wantButton int
	}{
		{"bus 0 forwards button", 0, 1},
		{"bus 2 forwards button", 2, 1},
		{"bus 1 keeps stock button", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := enc.CreateCLU11(tt.bus, stock, 1, 42.5, 21)
			got := unpack[CLU11](t, f)
			assert.Equal(t, tt.bus, f.Bus)
			assert.Equal(t, tt.wantButton, got.CruiseSwState)
			assert.Equal(t, 42.5, got.Vanz)
			assert.Equal(t, uint(5), got.AliveCnt1)
			assert.Equal(t, 1, got.CruiseSwMain)
			assert.Equal(t, 12, got.RheostatLevel)
		})
	}
}

func TestCreateLFAMFA(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	on := enc.CreateLFAMFA(3, true)
	assert.Equal(t, IDLFAHDAMFC, on.ID)
	assert.True(t, unpack[LFAHDAMFC](t, on).Active)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, enc.CreateLFAMFA(3, false).Bytes())
}

func TestCreateSCC11(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	stock := SCC11{SCCInfoDisplay: 3, DriverAlertDisplay: 1, VSetDis: 80, ACCObjDist: 50}

	t.Run("software", func(t *testing.T) {
		s := SCCState{Enabled: true, SetSpeed: 100, LeadVisible: true, GapSetting: 2, Standstill: true, NoSCCRadar: true}
		got := unpack[SCC11](t, enc.CreateSCC11(7, s, stock))
		assert.Equal(t, 100.0, got.VSetDis)
		assert.Equal(t, 0, got.SCCInfoDisplay)
		assert.Equal(t, 0, got.DriverAlertDisplay)
		assert.Equal(t, 2, got.TauGapSet)
		assert.True(t, got.ObjValid)
		assert.Equal(t, 1, got.ACCObjStatus)
		assert.True(t, got.MainModeACC)
		assert.Equal(t, uint(3), got.AliveCounterACC)
		assert.InDelta(t, 50, got.ACCObjDist, 0.05)
	})

	t.Run("disabled keeps set speed", func(t *testing.T) {
		got := unpack[SCC11](t, enc.CreateSCC11(7, SCCState{}, stock))
		assert.Equal(t, 80.0, got.VSetDis)
		assert.Equal(t, 3, got.SCCInfoDisplay)
		assert.False(t, got.MainModeACC)
		assert.Equal(t, uint(0), got.AliveCounterACC)
	})

	t.Run("stock only counter", func(t *testing.T) {
		got := unpack[SCC11](t, enc.CreateSCC11(40, SCCState{UseStockSCC: true, NoSCCRadar: true}, stock))
		assert.Equal(t, 3, got.SCCInfoDisplay)
		assert.Equal(t, 1, got.DriverAlertDisplay)
		assert.Equal(t, uint(4), got.AliveCounterACC)
	})
}

func TestCreateSCC12(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)

	tests := []struct {
		name      string
		state     SCCState
		wantMode  int
		wantAccel float64
		wantStop  bool
	}{
		{"active", SCCState{Enabled: true, CruiseOn: true, ApplyAccel: 1.2}, ACCModeActive, 1.2, false},
		{"gas override", SCCState{Enabled: true, CruiseOn: true, GasPressed: true, ApplyAccel: 0.5}, ACCModeOverride, 0.5, false},
		{"cruise off", SCCState{Enabled: true, ApplyAccel: 1.2}, ACCModeOff, 0, false},
		{"brake pressed", SCCState{Enabled: true, CruiseOn: true, BrakePressed: true, ApplyAccel: -2}, ACCModeOff, 0, false},
		{"disabled", SCCState{CruiseOn: true, ApplyAccel: -2}, ACCModeOff, 0, false},
		{"standstill stop", SCCState{Enabled: true, CruiseOn: true, Standstill: true, ApplyAccel: -1}, ACCModeActive, -1, true},
		{"standstill mild", SCCState{Enabled: true, CruiseOn: true, Standstill: true, ApplyAccel: -0.3}, ACCModeActive, -0.3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unpack[SCC12](t, enc.CreateSCC12(0, tt.state, SCC12{}))
			assert.Equal(t, tt.wantMode, got.ACCMode)
			assert.InDelta(t, tt.wantAccel, got.AReqRaw, 0.005)
			assert.InDelta(t, tt.wantAccel, got.AReqValue, 0.005)
			assert.Equal(t, tt.wantStop, got.StopReq)
		})
	}
}

func TestCreateSCC12NoRadar(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	s := SCCState{Enabled: true, CruiseOn: true, GasPressed: true, ApplyAccel: 0.8, NoSCCRadar: true}
	f := enc.CreateSCC12(18, s, SCC12{VSMAlive: 9, VSMChkSum: 0xF})
	got := unpack[SCC12](t, f)

	assert.Equal(t, ACCModeActive, got.ACCMode)
	assert.Equal(t, uint(2), got.VSMAlive)
	assert.Zero(t, nibbleSum(f.Bytes())%16, "nibble checksum does not balance the frame")

	s.CruiseOn = false
	got = unpack[SCC12](t, enc.CreateSCC12(18, s, SCC12{}))
	assert.Equal(t, ACCModeOff, got.ACCMode)
}

func TestCreateSCC12AEBPassthrough(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	stock := SCC12{AEBCmdAct: true, AEBStatus: 1, ACCMode: ACCModeActive, AReqRaw: -5, AReqValue: -5, VSMAlive: 7, VSMChkSum: 3}

	f := enc.CreateSCC12(1, SCCState{Enabled: true, CruiseOn: true, AEBCmdAct: true}, stock)
	assert.Equal(t, db.Pack(0, stock).Bytes(), f.Bytes())

	f = enc.CreateSCC12(4, SCCState{AEBCmdAct: true, NoSCCRadar: true}, stock)
	got := unpack[SCC12](t, f)
	assert.Equal(t, uint(4), got.VSMAlive)
	assert.InDelta(t, -5, got.AReqValue, 0.005)
	assert.Zero(t, nibbleSum(f.Bytes())%16)
}

func TestCreateSCC12ChecksumMatchesRecompute(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	s := SCCState{Enabled: true, CruiseOn: true, ApplyAccel: -1.7}
	f := enc.CreateSCC12(3, s, SCC12{VSMStat: 2})
	got := unpack[SCC12](t, f)

	got.VSMChkSum = 0
	dat := db.Pack(0, got).Bytes()
	assert.Equal(t, checksum.Nibble(dat), unpack[SCC12](t, f).VSMChkSum)
}

func TestCreateSCC13(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	f := enc.CreateSCC13(SCC13{SCCEquip: true, AebDrvSetStatus: 2})
	assert.Equal(t, IDSCC13, f.ID)
	assert.Equal(t, byte(0x28), f.Data[0])
}

func TestCreateSCC14(t *testing.T) {
	enc := NewEncoder(db, HyundaiSonata)
	stock := SCC14{ObjGap: 3, SCCMode: 0}

	got := unpack[SCC14](t, enc.CreateSCC14(SCCState{Enabled: true}, stock))
	assert.InDelta(t, JerkUpperLimit, got.JerkUpperLimit, 0.05)
	assert.InDelta(t, JerkLowerLimit, got.JerkLowerLimit, 0.05)
	assert.InDelta(t, ComfortBandUpper, got.ComfortBandUpper, 0.01)
	assert.InDelta(t, ComfortBandLower, got.ComfortBandLower, 0.01)
	assert.Equal(t, 1, got.SCCMode)
	assert.Equal(t, 3, got.ObjGap)

	for _, s := range []SCCState{{}, {Enabled: true, AEBCmdAct: true}, {Enabled: true, UseStockSCC: true}} {
		got := unpack[SCC14](t, enc.CreateSCC14(s, stock))
		assert.Equal(t, 0, got.SCCMode)
		assert.Zero(t, got.JerkUpperLimit)
	}
}

func TestChecksumFor(t *testing.T) {
	tests := []struct {
		platform Platform
		want     checksum.Variant
	}{
		{HyundaiSonata, checksum.CRC8},
		{HyundaiSantaFe, checksum.CRC8},
		{HyundaiSonataHybrid, checksum.CRC8},
		{KiaSorento, checksum.Sum6},
		{HyundaiGenesis, checksum.Sum6},
		{KiaStinger, checksum.Sum6Tail},
		{Platform("SOMETHING ELSE"), checksum.Sum6Tail},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			assert.Equal(t, tt.want, ChecksumFor(tt.platform))
			assert.Equal(t, tt.platform, NewEncoder(db, tt.platform).Platform())
		})
	}
}
