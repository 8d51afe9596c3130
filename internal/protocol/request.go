package protocol

import "fmt"

// Request is an operation request in caller terms. The CLI builds one from
// arguments and the bridge decodes one from JSON.
type Request struct {
	Operation   string  `json:"operation"`
	Temperature float64 `json:"temperature,omitempty"` // room-heat, central-heat, hot-water-temp
	Hours       int     `json:"hours,omitempty"`       // interval-heat
	Minutes     int     `json:"minutes,omitempty"`     // interval-heat
	Level       string  `json:"level,omitempty"`       // heat-level
	Schedule    []int   `json:"schedule,omitempty"`    // program-24h: hours to heat, [] clears
}

// Build resolves the request into a Command. Temperature operations are
// bounds checked against state.
func (r Request) Build(state *DeviceState) (Command, error) {
	op, err := ParseOperation(r.Operation)
	if err != nil {
		return Command{}, err
	}

	switch op {
	case OpPowerOn:
		return PowerOn(), nil
	case OpPowerOff:
		return PowerOff(), nil
	case OpHolidayOn:
		return HolidayOn(), nil
	case OpHolidayOff:
		return HolidayOff(), nil
	case OpHotWaterOn:
		return HotWaterOn(), nil
	case OpHotWaterOff:
		return HotWaterOff(), nil
	case OpQuickHotWater:
		return QuickHotWater(), nil
	case OpRoomHeat:
		return RoomHeat(state, r.Temperature)
	case OpCentralHeat:
		return CentralHeat(state, r.Temperature)
	case OpWaterSetTemp:
		return HotWaterTemperature(state, r.Temperature)
	case OpIntervalHeat:
		return IntervalHeating(r.Hours, r.Minutes)
	case OpProgram24h:
		if r.Schedule == nil {
			return Command{}, fmt.Errorf("%w: program-24h needs a schedule (an empty list clears it)", ErrInvalidOperand)
		}
		s, err := ScheduleFromHours(r.Schedule...)
		if err != nil {
			return Command{}, err
		}
		return Program24h(s), nil
	case OpHeatLevel:
		level, err := ParseHeatLevel(r.Level)
		if err != nil {
			return Command{}, err
		}
		return SetHeatLevel(level)
	default:
		// simple-reserve has no documented operand layout
		return Command{}, fmt.Errorf("%w: %s is not supported", ErrUnknownOperation, op)
	}
}
