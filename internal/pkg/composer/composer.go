// Package composer builds outbound command messages from the latest known vehicle
// state. Every function is pure: it either returns a message that is safe to send
// or an error, and never touches the network.
package composer

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/teleop/pkg/geo"
	"github.com/autopeer-io/teleop/pkg/imc"
)

var (
	// ErrNoOrigin is returned when a relative move is requested without a known position.
	ErrNoOrigin = errors.New("no origin position")

	// ErrInvalidPlan is returned when a plan violates the plan invariants.
	ErrInvalidPlan = errors.New("invalid plan")
)

// RelativeMove returns a Goto to the point north/east metres away from origin,
// at the surface (depth 0) and at speed metres per second.
func RelativeMove(origin *imc.EstimatedState, north, east float64, speed float32) (*imc.Goto, error) {
	if origin == nil {
		return nil, ErrNoOrigin
	}

	lat, lon, _ := geo.StateToWGS84(origin)
	lat, lon = geo.Displace(lat, lon, north, east)

	return &imc.Goto{
		Lat:        lat,
		Lon:        lon,
		Z:          0.0,
		ZUnits:     imc.ZUnitsDepth,
		Speed:      speed,
		SpeedUnits: imc.SpeedUnitsMetersPS,
	}, nil
}

// Plan wraps a single maneuver into the smallest valid plan.
func Plan(m imc.Maneuver, planID, maneuverID string) (*imc.PlanSpecification, error) {
	return NewPlan(planID, maneuverID, imc.PlanManeuver{ManeuverID: maneuverID, Data: m})
}

// NewPlan builds a plan from maneuvers in execution order, starting at startManID.
func NewPlan(planID, startManID string, maneuvers ...imc.PlanManeuver) (*imc.PlanSpecification, error) {
	spec := &imc.PlanSpecification{
		PlanID:      planID,
		StartManID:  startManID,
		Description: "plan sent from cpeer-teleop",
		Maneuvers:   maneuvers,
	}
	if err := ValidatePlan(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// ValidatePlan checks that a plan has an id, at least one maneuver, unique non-empty
// maneuver ids with a payload each, and a start maneuver it contains.
func ValidatePlan(spec *imc.PlanSpecification) error {
	if spec == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if spec.PlanID == "" {
		return fmt.Errorf("%w: empty plan id", ErrInvalidPlan)
	}
	if len(spec.Maneuvers) == 0 {
		return fmt.Errorf("%w: plan %q has no maneuvers", ErrInvalidPlan, spec.PlanID)
	}

	seen := make(map[string]struct{}, len(spec.Maneuvers))
	for i, m := range spec.Maneuvers {
		if m.ManeuverID == "" {
			return fmt.Errorf("%w: maneuver #%d has no id", ErrInvalidPlan, i)
		}
		if _, dup := seen[m.ManeuverID]; dup {
			return fmt.Errorf("%w: duplicate maneuver id %q", ErrInvalidPlan, m.ManeuverID)
		}
		if m.Data == nil {
			return fmt.Errorf("%w: maneuver %q has no data", ErrInvalidPlan, m.ManeuverID)
		}
		seen[m.ManeuverID] = struct{}{}
	}

	if _, ok := seen[spec.StartManID]; !ok {
		return fmt.Errorf("%w: start maneuver %q not in plan %q", ErrInvalidPlan, spec.StartManID, spec.PlanID)
	}
	return nil
}

// StartRequest wraps a plan into a request to start it.
func StartRequest(spec *imc.PlanSpecification) (*imc.PlanControl, error) {
	if err := ValidatePlan(spec); err != nil {
		return nil, err
	}
	return &imc.PlanControl{
		Kind:   imc.PlanControlRequest,
		Op:     imc.PlanOpStart,
		PlanID: spec.PlanID,
		Arg:    spec,
	}, nil
}

// Abort returns an abort command.
func Abort() *imc.Abort {
	return &imc.Abort{}
}
