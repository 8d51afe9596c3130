package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/navien/internal/protocol"
)

// StateDetails lists the decoded status fields in display order
func StateDetails(s *protocol.DeviceState) []Detail {
	details := []Detail{
		D("Device ID", s.DeviceID.String()),
		D("Mode", s.CurrentMode.String()),
		D("Room temperature", HeatValueStyle.Render(celsius(s.CurrentInsideCelsius()))),
		D("Room setpoint", HeatValueStyle.Render(celsius(s.InsideHeatCelsius()))+rangeNote(s, protocol.ZoneRoom)),
		D("Central heat setpoint", HeatValueStyle.Render(celsius(s.OndolHeatCelsius()))+rangeNote(s, protocol.ZoneCentralHeat)),
		D("Hot water setpoint", WaterValueStyle.Render(celsius(s.HotWaterSetCelsius()))+rangeNote(s, protocol.ZoneHotWater)),
		D("Hot water", s.TempControl.WaterMode().String()),
		D("Heat level", s.HeatLevel.String()),
		D("Active operation", activeOperation(s)),
	}

	if s.CurrentMode == protocol.ModeIntervalHeating {
		details = append(details, D("Interval", fmt.Sprintf("every %dh for %d min", s.RepeatReserveHour, s.RepeatReserveMinute)))
	}
	if s.OptionFlags.Has24HourSchedule() || s.CurrentMode == protocol.ModeProgram24h {
		details = append(details, D("Schedule", RenderSchedule(s.Schedule)))
	}

	errorCode := "none"
	if s.HasError() {
		errorCode = ErrorMessageStyle.Render(fmt.Sprintf("%d", s.ErrorCode))
	}
	details = append(details,
		D("Error code", errorCode),
		D("Rooms", fmt.Sprintf("%d", s.RoomCount)),
		D("Firmware", fmt.Sprintf("hw %d / sw %d", s.HWRev, s.SWRev)),
	)
	return details
}

// RenderState renders a controller status box. name is the nickname or
// MAC shown in the title.
func RenderState(s *protocol.DeviceState, name string, width int) string {
	width = clampWidth(width)

	title := "Controller status"
	if name != "" {
		title += " ─ " + name
	}

	lines := []string{"", HeaderTitleStyle.Render(strings.ToUpper(title)), ""}
	lines = append(lines, renderDetails(StateDetails(s))...)
	lines = append(lines, "")

	color := PrimaryColor
	if err := s.UnsupportedRoomData(); err != nil {
		lines = append(lines, WarningTitleStyle.Render("   "+WarningMarker+"  "+err.Error()), "")
		color = WarningColor
	}
	if s.HasError() {
		color = ErrorColor
	}

	return ResultBoxStyle(width, color).Render(strings.Join(lines, "\n"))
}

// RenderSchedule draws the 24 hour program with hour markers every six hours
func RenderSchedule(s protocol.Schedule) string {
	var b strings.Builder
	for h := 0; h < 24; h++ {
		if h > 0 && h%6 == 0 {
			b.WriteByte(' ')
		}
		if s.Hour(h) {
			b.WriteString(ScheduleOnStyle.Render("█"))
		} else {
			b.WriteString(ScheduleOffStyle.Render("·"))
		}
	}
	return b.String() + lipgloss.NewStyle().Foreground(MutedColor).Render("  (00-23)")
}

func celsius(c float64) string {
	return fmt.Sprintf("%.1f°C", c)
}

func rangeNote(s *protocol.DeviceState, zone protocol.Zone) string {
	lo, hi := s.Range(zone)
	return StepNoteStyle.Render(fmt.Sprintf("  (%.1f-%.1f)", lo, hi))
}

func activeOperation(s *protocol.DeviceState) string {
	if !s.OperateFlags.Active() {
		return "none"
	}
	return s.OperateFlags.Operation().String()
}
