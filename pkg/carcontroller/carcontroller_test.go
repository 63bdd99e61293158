package carcontroller

import (
	"testing"
	"time"

	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/roffe/hkgcan/pkg/eventbus"
	"github.com/roffe/hkgcan/pkg/hyundaican"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db = hyundaican.NewDB()

type mapStock map[uint32]dbc.Frame

func (m mapStock) Last(id uint32) (dbc.Frame, bool) {
	f, ok := m[id]
	return f, ok
}

type busID struct {
	Bus int
	ID  uint32
}

func ids(frames []dbc.Frame) []busID {
	out := make([]busID, 0, len(frames))
	for _, f := range frames {
		out = append(out, busID{f.Bus, f.ID})
	}
	return out
}

func lkas(t *testing.T, f dbc.Frame) hyundaican.LKAS11 {
	t.Helper()
	var rec hyundaican.LKAS11
	require.NoError(t, db.Unpack(f, &rec))
	return rec
}

func TestSteerTorqueLimits(t *testing.T) {
	tests := []struct {
		name   string
		apply  int
		last   int
		driver float64
		want   int
	}{
		{"ramp up from zero", 384, 0, 0, 3},
		{"ramp up positive", 384, 300, 0, 303},
		{"ramp down positive", 0, 100, 0, 93},
		{"ramp down negative", 0, -100, 0, -93},
		{"ramp up negative", -384, -300, 0, -303},
		{"clamped to max", 500, 384, 0, 384},
		{"driver override", 384, 0, -300, 0},
		{"steady", 120, 120, 0, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SteerTorqueLimits(tt.apply, tt.last, tt.driver))
		})
	}
}

func TestUpdateSchedule(t *testing.T) {
	lkas0 := busID{0, hyundaican.IDLKAS11}
	scc11 := busID{0, hyundaican.IDSCC11}
	scc12 := busID{0, hyundaican.IDSCC12}
	scc13 := busID{0, hyundaican.IDSCC13}
	scc14 := busID{0, hyundaican.IDSCC14}
	lfa := busID{0, hyundaican.IDLFAHDAMFC}

	tests := []struct {
		name   string
		params Params
		frames [][]busID
	}{
		{
			name:   "software scc",
			params: Params{Platform: hyundaican.HyundaiSonata},
			frames: [][]busID{
				{lkas0, scc12, scc11},
				{lkas0},
				{lkas0, scc12, scc11},
			},
		},
		{
			name:   "stock scc",
			params: Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true},
			frames: [][]busID{{lkas0}, {lkas0}},
		},
		{
			name:   "radar disabled with lfa",
			params: Params{Platform: hyundaican.HyundaiSonata, NoSCCRadar: true, LFAAvailable: true},
			frames: [][]busID{
				{lkas0, scc12, scc11, scc14, scc13, lfa},
				{lkas0},
				{lkas0, scc12, scc11, scc14},
			},
		},
		{
			name:   "mdps on bus 1",
			params: Params{Platform: hyundaican.KiaStinger, MDPSBus: 1, UseStockSCC: true},
			frames: [][]busID{
				{lkas0, {1, hyundaican.IDLKAS11}, {1, hyundaican.IDCLU11}},
				{lkas0, {1, hyundaican.IDLKAS11}, {1, hyundaican.IDCLU11}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(db, nil, tt.params)
			for i, want := range tt.frames {
				assert.Equal(t, want, ids(c.Update(CarState{}, Actuators{})), "frame %d", i)
			}
			assert.Equal(t, uint(len(tt.frames)), c.Frame())
		})
	}
}

func TestUpdateLFACadence(t *testing.T) {
	c := New(db, nil, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true, LFAAvailable: true})
	var got []uint
	for i := uint(0); i < 21; i++ {
		for _, f := range c.Update(CarState{}, Actuators{Enabled: true}) {
			if f.ID == hyundaican.IDLFAHDAMFC {
				got = append(got, i)
				assert.Equal(t, byte(0x01), f.Data[3]&0x03, "active while enabled")
			}
		}
	}
	assert.Equal(t, []uint{0, 5, 10, 15, 20}, got)
}

func TestUpdateSteering(t *testing.T) {
	c := New(db, nil, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true})
	for i := 1; i <= 5; i++ {
		rec := lkas(t, c.Update(CarState{}, Actuators{Enabled: true, Steer: 1})[0])
		assert.Equal(t, i*SteerDeltaUp, rec.StrToqReq)
		assert.True(t, rec.ActToi)
		assert.Equal(t, 3, rec.LdwsSysState)
	}

	rec := lkas(t, c.Update(CarState{}, Actuators{})[0])
	assert.Equal(t, 0, rec.StrToqReq, "disengage drops torque at once")
	assert.False(t, rec.ActToi)
	assert.Equal(t, 1, rec.LdwsSysState)

	rec = lkas(t, c.Update(CarState{}, Actuators{Enabled: true, Steer: -1})[0])
	assert.Equal(t, -SteerDeltaUp, rec.StrToqReq)
}

func TestUpdateCounter(t *testing.T) {
	c := New(db, nil, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true})
	for i := uint(0); i < 40; i++ {
		rec := lkas(t, c.Update(CarState{}, Actuators{})[0])
		assert.Equal(t, i%16, rec.MsgCount)
	}
}

func TestUpdateSeedsFromStock(t *testing.T) {
	stock := mapStock{
		hyundaican.IDLKAS11: db.Pack(0, hyundaican.LKAS11{FcwSysState: 3, HbaOpt: 2}),
	}
	c := New(db, stock, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true})
	rec := lkas(t, c.Update(CarState{}, Actuators{})[0])
	assert.Equal(t, 3, rec.FcwSysState)
	assert.Equal(t, 2, rec.HbaOpt)
}

func TestUpdateSeedsFromEventbus(t *testing.T) {
	eb := eventbus.New(nil)
	defer eb.Close()
	require.NoError(t, eb.Publish(db.Pack(0, hyundaican.SCC14{ObjGap: 3})))
	require.Eventually(t, func() bool {
		_, ok := eb.Last(hyundaican.IDSCC14)
		return ok
	}, time.Second, 5*time.Millisecond)

	c := New(db, eb, Params{Platform: hyundaican.HyundaiSonata})
	var found bool
	for _, f := range c.Update(CarState{}, Actuators{}) {
		if f.ID != hyundaican.IDSCC14 {
			continue
		}
		found = true
		var rec hyundaican.SCC14
		require.NoError(t, db.Unpack(f, &rec))
		assert.Equal(t, 3, rec.ObjGap)
	}
	assert.True(t, found, "stock SCC14 is forwarded")
}

func TestUpdateResume(t *testing.T) {
	c := New(db, nil, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true})
	var resumed []uint
	for i := uint(0); i < 18; i++ {
		for _, f := range c.Update(CarState{Standstill: true}, Actuators{Enabled: true}) {
			if f.ID != hyundaican.IDCLU11 {
				continue
			}
			var rec hyundaican.CLU11
			require.NoError(t, db.Unpack(f, &rec))
			assert.Equal(t, ButtonResAccel, rec.CruiseSwState)
			assert.Equal(t, 0, f.Bus)
			resumed = append(resumed, i)
		}
	}
	assert.Equal(t, []uint{6, 7, 8, 9, 10, 11, 17}, resumed)
}

func TestUpdateCancel(t *testing.T) {
	c := New(db, nil, Params{Platform: hyundaican.HyundaiSonata, UseStockSCC: true})
	frames := c.Update(CarState{Speed: 50}, Actuators{Cancel: true})
	require.Len(t, frames, 2)
	var rec hyundaican.CLU11
	require.NoError(t, db.Unpack(frames[1], &rec))
	assert.Equal(t, ButtonCancel, rec.CruiseSwState)
	assert.Equal(t, 50.0, rec.Vanz)
}
