package protocol

import (
	"fmt"
	"strings"
)

// Mode is the controller's current operating mode (closed enumeration)
type Mode byte

const (
	ModePowerOff        Mode = 1
	ModeHoliday         Mode = 2
	ModeRoomHeat        Mode = 3
	ModeCentralHeat     Mode = 4
	ModeIntervalHeating Mode = 5
	ModeProgram24h      Mode = 6
	ModeHotWaterOnly    Mode = 8
)

// String returns a human-readable mode name
func (m Mode) String() string {
	switch m {
	case ModePowerOff:
		return "Powered Off"
	case ModeHoliday:
		return "Holiday"
	case ModeRoomHeat:
		return "Room Temperature Control"
	case ModeCentralHeat:
		return "Central Heating Control"
	case ModeIntervalHeating:
		return "Heating Interval"
	case ModeProgram24h:
		return "24 Hour Program"
	case ModeHotWaterOnly:
		return "Hot Water Only"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// Known reports whether m is one of the documented modes
func (m Mode) Known() bool {
	switch m {
	case ModePowerOff, ModeHoliday, ModeRoomHeat, ModeCentralHeat,
		ModeIntervalHeating, ModeProgram24h, ModeHotWaterOnly:
		return true
	}
	return false
}

// HeatLevel is the heating intensity (closed enumeration)
type HeatLevel byte

const (
	HeatLevelLow    HeatLevel = 1
	HeatLevelMedium HeatLevel = 2
	HeatLevelHigh   HeatLevel = 3
)

// String returns a human-readable heat level name
func (h HeatLevel) String() string {
	switch h {
	case HeatLevelLow:
		return "Low"
	case HeatLevelMedium:
		return "Medium"
	case HeatLevelHigh:
		return "High"
	default:
		return fmt.Sprintf("HeatLevel(%d)", byte(h))
	}
}

// Valid reports whether h is Low, Medium or High
func (h HeatLevel) Valid() bool {
	return h >= HeatLevelLow && h <= HeatLevelHigh
}

// ParseHeatLevel accepts "low", "medium", "high" or "1".."3"
func ParseHeatLevel(s string) (HeatLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "1":
		return HeatLevelLow, nil
	case "medium", "2":
		return HeatLevelMedium, nil
	case "high", "3":
		return HeatLevelHigh, nil
	}
	return 0, fmt.Errorf("%w: heat level %q (want low, medium or high)", ErrInvalidOperand, s)
}

// OperateMode is the operation code carried in a command frame
type OperateMode byte

const (
	OpPowerOff      OperateMode = 1
	OpPowerOn       OperateMode = 2
	OpHolidayOff    OperateMode = 3
	OpHolidayOn     OperateMode = 4
	OpRoomHeat      OperateMode = 5
	OpCentralHeat   OperateMode = 6
	OpIntervalHeat  OperateMode = 7
	OpProgram24h    OperateMode = 8
	OpSimpleReserve OperateMode = 9
	OpHotWaterOn    OperateMode = 10
	OpHotWaterOff   OperateMode = 11
	OpWaterSetTemp  OperateMode = 12
	OpQuickHotWater OperateMode = 13
	OpHeatLevel     OperateMode = 14

	// OpActive is the high bit the controller sets in OperateFlags
	OpActive OperateMode = 0x80
)

var operateModeNames = map[OperateMode]string{
	OpPowerOff:      "power-off",
	OpPowerOn:       "power-on",
	OpHolidayOff:    "holiday-off",
	OpHolidayOn:     "holiday-on",
	OpRoomHeat:      "room-heat",
	OpCentralHeat:   "central-heat",
	OpIntervalHeat:  "interval-heat",
	OpProgram24h:    "program-24h",
	OpSimpleReserve: "simple-reserve",
	OpHotWaterOn:    "hot-water-on",
	OpHotWaterOff:   "hot-water-off",
	OpWaterSetTemp:  "hot-water-temp",
	OpQuickHotWater: "quick-hot-water",
	OpHeatLevel:     "heat-level",
}

// String returns the operation name used by the CLI and the bridge
func (o OperateMode) String() string {
	if name, ok := operateModeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operate-mode(%d)", byte(o))
}

// ParseOperation resolves an operation name such as "power-on"
func ParseOperation(name string) (OperateMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for op, n := range operateModeNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// OperationNames returns every known operation name in operation-code order
func OperationNames() []string {
	names := make([]string, 0, len(operateModeNames))
	for op := OpPowerOff; op <= OpHeatLevel; op++ {
		names = append(names, operateModeNames[op])
	}
	return names
}

// OptionFlags is the optionUseFlags bitmask
type OptionFlags byte

const optionSchedule24h OptionFlags = 0x80

// Has24HourSchedule reports whether the controller supports the 24-hour program
func (f OptionFlags) Has24HourSchedule() bool {
	return f&optionSchedule24h != 0
}

// WaterMode is the hot-water control submode held in the low 3 bits of TempControl
type WaterMode byte

const (
	WaterModeUnsupported WaterMode = 0
	WaterModeStepped     WaterMode = 1
	WaterModeContinuous  WaterMode = 2
)

// String returns a human-readable water mode name
func (w WaterMode) String() string {
	switch w {
	case WaterModeUnsupported:
		return "Unsupported"
	case WaterModeStepped:
		return "Stepped"
	case WaterModeContinuous:
		return "Temperature Controlled"
	default:
		return fmt.Sprintf("WaterMode(%d)", byte(w))
	}
}

// TempControl is the tempControlType bitmask
type TempControl byte

const (
	tempControlRoomPoint    TempControl = 0x20
	tempControlCentralPoint TempControl = 0x10
	tempControlWaterPoint   TempControl = 0x08
	tempControlWaterMode    TempControl = 0x07
)

// RoomPoint reports support for room-temperature point control
func (t TempControl) RoomPoint() bool { return t&tempControlRoomPoint != 0 }

// CentralPoint reports support for central-heating point control
func (t TempControl) CentralPoint() bool { return t&tempControlCentralPoint != 0 }

// WaterPoint reports support for hot-water point control
func (t TempControl) WaterPoint() bool { return t&tempControlWaterPoint != 0 }

// WaterMode returns the hot-water control submode
func (t TempControl) WaterMode() WaterMode { return WaterMode(t & tempControlWaterMode) }

// OperateFlags is the operateMode byte: the last applied operation plus an active bit
type OperateFlags byte

// Active reports whether the high "active" bit is set
func (f OperateFlags) Active() bool { return OperateMode(f)&OpActive != 0 }

// Operation returns the operation code without the active bit
func (f OperateFlags) Operation() OperateMode { return OperateMode(f) &^ OpActive }

// Zone identifies a temperature zone with its own min/max bounds
type Zone int

const (
	ZoneRoom Zone = iota
	ZoneCentralHeat
	ZoneHotWater
)

// String returns the zone name
func (z Zone) String() string {
	switch z {
	case ZoneRoom:
		return "room"
	case ZoneCentralHeat:
		return "central heating"
	case ZoneHotWater:
		return "hot water"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Schedule is the 24-hour program: three bytes, one bit per hour.
// Hour 0 is the most significant bit of the first byte.
type Schedule [3]byte

// Hour reports whether heating is scheduled for hour h (0-23)
func (s Schedule) Hour(h int) bool {
	if h < 0 || h > 23 {
		return false
	}
	return s[h/8]&(0x80>>(h%8)) != 0
}

// Hours returns the scheduled hours in ascending order
func (s Schedule) Hours() []int {
	var hours []int
	for h := 0; h < 24; h++ {
		if s.Hour(h) {
			hours = append(hours, h)
		}
	}
	return hours
}

// ScheduleFromHours builds a Schedule with the given hours set
func ScheduleFromHours(hours ...int) (Schedule, error) {
	var s Schedule
	for _, h := range hours {
		if h < 0 || h > 23 {
			return Schedule{}, fmt.Errorf("%w: schedule hour %d (want 0-23)", ErrInvalidOperand, h)
		}
		s[h/8] |= 0x80 >> (h % 8)
	}
	return s, nil
}

// String renders the schedule as 24 characters, '#' for scheduled hours
func (s Schedule) String() string {
	var b strings.Builder
	for h := 0; h < 24; h++ {
		if s.Hour(h) {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
