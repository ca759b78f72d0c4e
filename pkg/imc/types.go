package imc

// ZUnits tells how the z reference of a maneuver is interpreted.
type ZUnits uint8

const (
	ZUnitsNone ZUnits = iota
	ZUnitsDepth
	ZUnitsAltitude
	ZUnitsHeight
)

func (z ZUnits) String() string {
	switch z {
	case ZUnitsNone:
		return "NONE"
	case ZUnitsDepth:
		return "DEPTH"
	case ZUnitsAltitude:
		return "ALTITUDE"
	case ZUnitsHeight:
		return "HEIGHT"
	}
	return "UNKNOWN"
}

// SpeedUnits tells how the speed of a maneuver is interpreted.
type SpeedUnits uint8

const (
	SpeedUnitsMetersPS SpeedUnits = iota
	SpeedUnitsRPM
	SpeedUnitsPercentage
)

func (s SpeedUnits) String() string {
	switch s {
	case SpeedUnitsMetersPS:
		return "METERS_PS"
	case SpeedUnitsRPM:
		return "RPM"
	case SpeedUnitsPercentage:
		return "PERCENTAGE"
	}
	return "UNKNOWN"
}

// PlanControlType is the role of a PlanControl message in a request/reply exchange.
type PlanControlType uint8

const (
	PlanControlRequest PlanControlType = iota
	PlanControlSuccess
	PlanControlFailure
	PlanControlInProgress
)

// PlanControlOp is the operation a PlanControl message asks for.
type PlanControlOp uint8

const (
	PlanOpStart PlanControlOp = iota
	PlanOpStop
	PlanOpLoad
	PlanOpGet
)

func (o PlanControlOp) String() string {
	switch o {
	case PlanOpStart:
		return "START"
	case PlanOpStop:
		return "STOP"
	case PlanOpLoad:
		return "LOAD"
	case PlanOpGet:
		return "GET"
	}
	return "UNKNOWN"
}

// Heartbeat keeps the link with a peer alive.
type Heartbeat struct {
	Envelope `json:"-"`
}

func (*Heartbeat) Type() Type { return TypeHeartbeat }

// Announce advertises a system's name and location to the network.
type Announce struct {
	Envelope `json:"-"`

	SysName  string  `json:"sys_name"`
	SysType  string  `json:"sys_type"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Height   float32 `json:"height"`
	Services string  `json:"services,omitempty"`
}

func (*Announce) Type() Type { return TypeAnnounce }

// EstimatedState is the navigation estimate of a vehicle. The position is the
// reference point (Lat, Lon, Height) displaced by the NED offsets (X, Y, Z).
type EstimatedState struct {
	Envelope `json:"-"`

	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Height float32 `json:"height"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
	Phi    float32 `json:"phi"`
	Theta  float32 `json:"theta"`
	Psi    float32 `json:"psi"`
	U      float32 `json:"u"`
	V      float32 `json:"v"`
	W      float32 `json:"w"`
	Depth  float32 `json:"depth"`
	Alt    float32 `json:"alt"`
}

func (*EstimatedState) Type() Type { return TypeEstimatedState }

// Abort stops whatever the receiving vehicle is executing.
type Abort struct {
	Envelope `json:"-"`
}

func (*Abort) Type() Type { return TypeAbort }

// Goto moves a vehicle to a point.
type Goto struct {
	Envelope `json:"-"`

	Timeout    uint16     `json:"timeout"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Z          float32    `json:"z"`
	ZUnits     ZUnits     `json:"z_units"`
	Speed      float32    `json:"speed"`
	SpeedUnits SpeedUnits `json:"speed_units"`
	Roll       float64    `json:"roll"`
	Pitch      float64    `json:"pitch"`
	Yaw        float64    `json:"yaw"`
	Custom     string     `json:"custom,omitempty"`
}

func (*Goto) Type() Type { return TypeGoto }
func (*Goto) maneuver()  {}

// PlanManeuver names a maneuver inside a plan.
type PlanManeuver struct {
	Envelope `json:"-"`

	ManeuverID string   `json:"maneuver_id"`
	Data       Maneuver `json:"data"`
}

func (*PlanManeuver) Type() Type { return TypePlanManeuver }

// PlanSpecification is an ordered list of maneuvers with a designated start.
type PlanSpecification struct {
	Envelope `json:"-"`

	PlanID      string         `json:"plan_id"`
	Description string         `json:"description,omitempty"`
	VNamespace  string         `json:"vnamespace,omitempty"`
	StartManID  string         `json:"start_man_id"`
	Maneuvers   []PlanManeuver `json:"maneuvers"`
}

func (*PlanSpecification) Type() Type { return TypePlanSpecification }

// Maneuver returns the maneuver with the given id, or nil.
func (p *PlanSpecification) Maneuver(id string) *PlanManeuver {
	for i := range p.Maneuvers {
		if p.Maneuvers[i].ManeuverID == id {
			return &p.Maneuvers[i]
		}
	}
	return nil
}

// PlanControl requests an operation on a plan, or reports its outcome.
type PlanControl struct {
	Envelope `json:"-"`

	Kind      PlanControlType `json:"type"`
	Op        PlanControlOp   `json:"op"`
	RequestID uint16          `json:"request_id"`
	PlanID    string          `json:"plan_id"`
	Flags     uint16          `json:"flags"`
	Arg       Message         `json:"arg,omitempty"`
	Info      string          `json:"info,omitempty"`
}

func (*PlanControl) Type() Type { return TypePlanControl }
