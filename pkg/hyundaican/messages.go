package hyundaican

import (
	"github.com/roffe/hkgcan/pkg/dbc"
	"go.einride.tech/can/pkg/descriptor"
)

const (
	IDLKAS11    uint32 = 0x340
	IDSCC14     uint32 = 0x389
	IDSCC11     uint32 = 0x420
	IDSCC12     uint32 = 0x421
	IDLFAHDAMFC uint32 = 0x485
	IDCLU11     uint32 = 0x4F1
	IDSCC13     uint32 = 0x50A
)

func sig(name string, start, length uint8, scale, offset float64) *descriptor.Signal {
	return &descriptor.Signal{Name: name, Start: start, Length: length, Scale: scale, Offset: offset}
}

var messages = []*descriptor.Message{
	{
		Name: "LKAS11", ID: IDLKAS11, Length: 8, SenderNode: "LDWS_LKAS",
		Signals: []*descriptor.Signal{
			sig("CF_Lkas_LdwsActivemode", 0, 2, 1, 0),
			sig("CF_Lkas_LdwsSysState", 2, 4, 1, 0),
			sig("CF_Lkas_SysWarning", 6, 4, 1, 0),
			sig("CF_Lkas_LdwsLHWarning", 10, 2, 1, 0),
			sig("CF_Lkas_LdwsRHWarning", 12, 2, 1, 0),
			sig("CF_Lkas_HbaLamp", 14, 1, 1, 0),
			sig("CF_Lkas_FcwBasReq", 15, 1, 1, 0),
			sig("CR_Lkas_StrToqReq", 16, 11, 1, -1024),
			sig("CF_Lkas_ActToi", 27, 1, 1, 0),
			sig("CF_Lkas_ToiFlt", 28, 1, 1, 0),
			sig("CF_Lkas_HbaSysState", 29, 3, 1, 0),
			sig("CF_Lkas_FcwOpt", 32, 2, 1, 0),
			sig("CF_Lkas_HbaOpt", 34, 2, 1, 0),
			sig("CF_Lkas_MsgCount", 36, 4, 1, 0),
			sig("CF_Lkas_FcwSysState", 40, 3, 1, 0),
			sig("CF_Lkas_FcwCollisionWarning", 43, 2, 1, 0),
			sig("CF_Lkas_FusionState", 45, 2, 1, 0),
			sig("CF_Lkas_Chksum", 48, 8, 1, 0),
			sig("CF_Lkas_FcwOpt_USM", 56, 3, 1, 0),
			sig("CF_Lkas_LdwsOpt_USM", 59, 3, 1, 0),
		},
	},
	{
		Name: "CLU11", ID: IDCLU11, Length: 4, SenderNode: "CLU",
		Signals: []*descriptor.Signal{
			sig("CF_Clu_CruiseSwState", 0, 3, 1, 0),
			sig("CF_Clu_CruiseSwMain", 3, 1, 1, 0),
			sig("CF_Clu_SldMainSW", 4, 1, 1, 0),
			sig("CF_Clu_ParityBit1", 5, 1, 1, 0),
			sig("CF_Clu_VanzDecimal", 6, 2, 0.125, 0),
			sig("CF_Clu_Vanz", 8, 9, 0.5, 0),
			sig("CF_Clu_SPEED_UNIT", 17, 1, 1, 0),
			sig("CF_Clu_DetentOut", 18, 1, 1, 0),
			sig("CF_Clu_RheostatLevel", 19, 5, 1, 0),
			sig("CF_Clu_CluInfo", 24, 1, 1, 0),
			sig("CF_Clu_AmpInfo", 25, 1, 1, 0),
			sig("CF_Clu_AliveCnt1", 28, 4, 1, 0),
		},
	},
	{
		Name: "LFAHDA_MFC", ID: IDLFAHDAMFC, Length: 4, SenderNode: "XXX",
		Signals: []*descriptor.Signal{
			sig("HDA_USM", 0, 2, 1, 0),
			sig("HDA_Active", 2, 1, 1, 0),
			sig("HDA_Icon_State", 3, 2, 1, 0),
			sig("HDA_VSetReq", 8, 8, 1, 0),
			sig("LFA_SysWarning", 16, 3, 1, 0),
			sig("ACTIVE", 24, 2, 1, 0),
			sig("LFA_USM", 27, 2, 1, 0),
			sig("ACTIVE2", 29, 2, 1, 0),
		},
	},
	{
		Name: "SCC11", ID: IDSCC11, Length: 8, SenderNode: "SCC",
		Signals: []*descriptor.Signal{
			sig("MainMode_ACC", 0, 1, 1, 0),
			sig("SCCInfoDisplay", 1, 3, 1, 0),
			sig("AliveCounterACC", 4, 4, 1, 0),
			sig("VSetDis", 8, 8, 1, 0),
			sig("ObjValid", 16, 1, 1, 0),
			sig("DriverAlertDisplay", 17, 2, 1, 0),
			sig("TauGapSet", 19, 3, 1, 0),
			sig("ACC_ObjStatus", 22, 2, 1, 0),
			sig("ACC_ObjLatPos", 24, 9, 0.1, -20),
			sig("ACC_ObjDist", 33, 11, 0.1, 0),
			sig("ACC_ObjRelSpd", 44, 12, 0.1, -170),
			sig("Navi_SCC_Curve_Status", 56, 2, 1, 0),
			sig("Navi_SCC_Curve_Act", 58, 2, 1, 0),
			sig("Navi_SCC_Camera_Act", 60, 2, 1, 0),
			sig("Navi_SCC_Camera_Status", 62, 2, 1, 0),
		},
	},
	{
		Name: "SCC12", ID: IDSCC12, Length: 8, SenderNode: "SCC",
		Signals: []*descriptor.Signal{
			sig("CF_VSM_Prefill", 0, 1, 1, 0),
			sig("CF_VSM_DecCmdAct", 1, 1, 1, 0),
			sig("CF_VSM_HBACmd", 2, 2, 1, 0),
			sig("CF_VSM_Warn", 4, 2, 1, 0),
			sig("CF_VSM_Stat", 6, 2, 1, 0),
			sig("CF_VSM_BeltCmd", 8, 3, 1, 0),
			sig("ACCFailInfo", 11, 2, 1, 0),
			sig("ACCMode", 13, 2, 1, 0),
			sig("StopReq", 15, 1, 1, 0),
			sig("CR_VSM_DecCmd", 16, 8, 0.01, 0),
			sig("aReqRaw", 24, 11, 0.01, -10.23),
			sig("TakeOverReq", 35, 1, 1, 0),
			sig("PreFill", 36, 1, 1, 0),
			sig("aReqValue", 37, 11, 0.01, -10.23),
			sig("CF_VSM_ConfMode", 48, 2, 1, 0),
			sig("AEB_Failinfo", 50, 2, 1, 0),
			sig("AEB_Status", 52, 2, 1, 0),
			sig("AEB_CmdAct", 54, 1, 1, 0),
			sig("AEB_StopReq", 55, 1, 1, 0),
			sig("CR_VSM_Alive", 56, 4, 1, 0),
			sig("CR_VSM_ChkSum", 60, 4, 1, 0),
		},
	},
	{
		Name: "SCC13", ID: IDSCC13, Length: 8, SenderNode: "SCC",
		Signals: []*descriptor.Signal{
			sig("SCCDrvModeRValue", 0, 3, 1, 0),
			sig("SCC_Equip", 3, 1, 1, 0),
			sig("AebDrvSetStatus", 4, 3, 1, 0),
		},
	},
	{
		Name: "SCC14", ID: IDSCC14, Length: 8, SenderNode: "SCC",
		Signals: []*descriptor.Signal{
			sig("ComfortBandUpper", 0, 6, 0.02, 0),
			sig("ComfortBandLower", 6, 6, 0.02, 0),
			sig("JerkUpperLimit", 12, 7, 0.1, 0),
			sig("JerkLowerLimit", 19, 7, 0.1, 0),
			sig("SCCMode", 32, 3, 1, 0),
			sig("ObjGap", 56, 8, 1, 0),
		},
	},
}

// NewDB returns a packer loaded with the lane keep and smart cruise messages.
func NewDB() *dbc.DB {
	return dbc.New(messages...)
}

// LKAS11 is the steering command sent by the camera to the MDPS.
type LKAS11 struct {
	LdwsActivemode      int   `dbc:"CF_Lkas_LdwsActivemode"`
	LdwsSysState        int   `dbc:"CF_Lkas_LdwsSysState"`
	SysWarning          int   `dbc:"CF_Lkas_SysWarning"`
	LdwsLHWarning       int   `dbc:"CF_Lkas_LdwsLHWarning"`
	LdwsRHWarning       int   `dbc:"CF_Lkas_LdwsRHWarning"`
	HbaLamp             int   `dbc:"CF_Lkas_HbaLamp"`
	FcwBasReq           int   `dbc:"CF_Lkas_FcwBasReq"`
	StrToqReq           int   `dbc:"CR_Lkas_StrToqReq"`
	ActToi              bool  `dbc:"CF_Lkas_ActToi"`
	ToiFlt              bool  `dbc:"CF_Lkas_ToiFlt"`
	HbaSysState         int   `dbc:"CF_Lkas_HbaSysState"`
	FcwOpt              int   `dbc:"CF_Lkas_FcwOpt"`
	HbaOpt              int   `dbc:"CF_Lkas_HbaOpt"`
	MsgCount            uint  `dbc:"CF_Lkas_MsgCount"`
	FcwSysState         int   `dbc:"CF_Lkas_FcwSysState"`
	FcwCollisionWarning int   `dbc:"CF_Lkas_FcwCollisionWarning"`
	FusionState         int   `dbc:"CF_Lkas_FusionState"`
	Chksum              uint8 `dbc:"CF_Lkas_Chksum"`
	FcwOptUSM           int   `dbc:"CF_Lkas_FcwOpt_USM"`
	LdwsOptUSM          int   `dbc:"CF_Lkas_LdwsOpt_USM"`
}

func (LKAS11) MessageName() string { return "LKAS11" }

// CLU11 is the cluster message carrying cruise buttons and vehicle speed.
type CLU11 struct {
	CruiseSwState int     `dbc:"CF_Clu_CruiseSwState"`
	CruiseSwMain  int     `dbc:"CF_Clu_CruiseSwMain"`
	SldMainSW     int     `dbc:"CF_Clu_SldMainSW"`
	ParityBit1    int     `dbc:"CF_Clu_ParityBit1"`
	VanzDecimal   float64 `dbc:"CF_Clu_VanzDecimal"`
	Vanz          float64 `dbc:"CF_Clu_Vanz"`
	SpeedUnit     int     `dbc:"CF_Clu_SPEED_UNIT"`
	DetentOut     int     `dbc:"CF_Clu_DetentOut"`
	RheostatLevel int     `dbc:"CF_Clu_RheostatLevel"`
	CluInfo       int     `dbc:"CF_Clu_CluInfo"`
	AmpInfo       int     `dbc:"CF_Clu_AmpInfo"`
	AliveCnt1     uint    `dbc:"CF_Clu_AliveCnt1"`
}

func (CLU11) MessageName() string { return "CLU11" }

// LFAHDAMFC drives the lane following assist icon on the cluster.
type LFAHDAMFC struct {
	HDAUSM        int  `dbc:"HDA_USM"`
	HDAActive     bool `dbc:"HDA_Active"`
	HDAIconState  int  `dbc:"HDA_Icon_State"`
	HDAVSetReq    int  `dbc:"HDA_VSetReq"`
	LFASysWarning int  `dbc:"LFA_SysWarning"`
	Active        bool `dbc:"ACTIVE"`
	LFAUSM        int  `dbc:"LFA_USM"`
	Active2       int  `dbc:"ACTIVE2"`
}

func (LFAHDAMFC) MessageName() string { return "LFAHDA_MFC" }

type SCC11 struct {
	MainModeACC         bool    `dbc:"MainMode_ACC"`
	SCCInfoDisplay      int     `dbc:"SCCInfoDisplay"`
	AliveCounterACC     uint    `dbc:"AliveCounterACC"`
	VSetDis             float64 `dbc:"VSetDis"`
	ObjValid            bool    `dbc:"ObjValid"`
	DriverAlertDisplay  int     `dbc:"DriverAlertDisplay"`
	TauGapSet           int     `dbc:"TauGapSet"`
	ACCObjStatus        int     `dbc:"ACC_ObjStatus"`
	ACCObjLatPos        float64 `dbc:"ACC_ObjLatPos"`
	ACCObjDist          float64 `dbc:"ACC_ObjDist"`
	ACCObjRelSpd        float64 `dbc:"ACC_ObjRelSpd"`
	NaviSCCCurveStatus  int     `dbc:"Navi_SCC_Curve_Status"`
	NaviSCCCurveAct     int     `dbc:"Navi_SCC_Curve_Act"`
	NaviSCCCameraAct    int     `dbc:"Navi_SCC_Camera_Act"`
	NaviSCCCameraStatus int     `dbc:"Navi_SCC_Camera_Status"`
}

func (SCC11) MessageName() string { return "SCC11" }

type SCC12 struct {
	VSMPrefill   bool    `dbc:"CF_VSM_Prefill"`
	VSMDecCmdAct bool    `dbc:"CF_VSM_DecCmdAct"`
	VSMHBACmd    int     `dbc:"CF_VSM_HBACmd"`
	VSMWarn      int     `dbc:"CF_VSM_Warn"`
	VSMStat      int     `dbc:"CF_VSM_Stat"`
	VSMBeltCmd   int     `dbc:"CF_VSM_BeltCmd"`
	ACCFailInfo  int     `dbc:"ACCFailInfo"`
	ACCMode      int     `dbc:"ACCMode"`
	StopReq      bool    `dbc:"StopReq"`
	VSMDecCmd    float64 `dbc:"CR_VSM_DecCmd"`
	AReqRaw      float64 `dbc:"aReqRaw"`
	TakeOverReq  bool    `dbc:"TakeOverReq"`
	PreFill      bool    `dbc:"PreFill"`
	AReqValue    float64 `dbc:"aReqValue"`
	VSMConfMode  int     `dbc:"CF_VSM_ConfMode"`
	AEBFailinfo  int     `dbc:"AEB_Failinfo"`
	AEBStatus    int     `dbc:"AEB_Status"`
	AEBCmdAct    bool    `dbc:"AEB_CmdAct"`
	AEBStopReq   bool    `dbc:"AEB_StopReq"`
	VSMAlive     uint    `dbc:"CR_VSM_Alive"`
	VSMChkSum    uint8   `dbc:"CR_VSM_ChkSum"`
}

func (SCC12) MessageName() string { return "SCC12" }

type SCC13 struct {
	SCCDrvModeRValue int  `dbc:"SCCDrvModeRValue"`
	SCCEquip         bool `dbc:"SCC_Equip"`
	AebDrvSetStatus  int  `dbc:"AebDrvSetStatus"`
}

func (SCC13) MessageName() string { return "SCC13" }

type SCC14 struct {
	ComfortBandUpper float64 `dbc:"ComfortBandUpper"`
	ComfortBandLower float64 `dbc:"ComfortBandLower"`
	JerkUpperLimit   float64 `dbc:"JerkUpperLimit"`
	JerkLowerLimit   float64 `dbc:"JerkLowerLimit"`
	SCCMode          int     `dbc:"SCCMode"`
	ObjGap           int     `dbc:"ObjGap"`
}

func (SCC14) MessageName() string { return "SCC14" }
