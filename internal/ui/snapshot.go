package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wrtsync/internal/discovery"
	"github.com/muurk/wrtsync/internal/reconcile"
	"github.com/muurk/wrtsync/internal/wireless"
)

func stateMarker(disabled bool) string {
	if disabled {
		return DisabledStyle.Render(DisabledMarker + " off")
	}
	return EnabledStyle.Render(EnabledMarker + " on ")
}

// RenderSnapshot renders the radios and networks of a snapshot, each
// network listed under its radio.
func RenderSnapshot(name string, snap *wireless.Snapshot, width int) string {
	width = clampWidth(width)

	if snap == nil {
		return BoxStyle(width).Render(
			TitleStyle.Render(strings.ToUpper(name)) + "\n" +
				SubtitleStyle.Render("no state received yet"))
	}

	var lines []string
	lines = append(lines, TitleStyle.Render(strings.ToUpper(name)))

	sub := snap.Info
	if snap.SystemInfo.Release.Description != "" {
		sub += " · " + snap.SystemInfo.Release.Description
	}
	link := EnabledStyle.Render("link up")
	if !snap.LinkUp {
		link = DisabledStyle.Render("link down")
	}
	lines = append(lines, SubtitleStyle.Render(sub)+"  "+link)
	lines = append(lines, RenderHorizontalDivider(width-6, "─"))

	if len(snap.Radios) == 0 {
		lines = append(lines, SubtitleStyle.Render("no radios configured"))
	}

	for _, r := range snap.Radios {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			NameStyle.Render(r.Device),
			BandStyle.Render(string(r.Band)),
			stateMarker(r.Disabled),
		))
		for _, s := range snap.SsidsOn(r.Device) {
			name := s.Name
			if s.Hidden {
				name += " (hidden)"
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
				NameStyle.Render("  "+name),
				BandStyle.Render(s.Mode),
				stateMarker(s.Disabled),
			))
		}
	}

	// Networks whose radio is not in the snapshot
	for _, s := range snap.Ssids {
		if _, ok := snap.Radio(s.Device); ok {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			NameStyle.Render(s.Name),
			BandStyle.Render(s.Device),
			stateMarker(s.Disabled),
		))
	}

	lines = append(lines, SubtitleStyle.Render("updated "+snap.Time.Format("15:04:05")))

	return BoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderPlan renders reconciliation decisions as a diff-like list.
// An empty plan renders as an empty string.
func RenderPlan(plan reconcile.Plan) string {
	if plan.Empty() {
		return ""
	}

	var lines []string
	for _, e := range plan.ToAdd {
		lines = append(lines, AddStyle.Render("+ "+e.Key))
	}
	for _, e := range plan.ToUpdate {
		lines = append(lines, UpdateStyle.Render("~ "+e.Key))
	}
	for _, k := range plan.ToRemove {
		lines = append(lines, RemoveStyle.Render("- "+k))
	}
	return strings.Join(lines, "\n")
}

// RenderRouters renders an mDNS scan result.
func RenderRouters(routers []*discovery.Router, width int) string {
	width = clampWidth(width)

	if len(routers) == 0 {
		return SubtitleStyle.Render("No HTTP services found on the local network.")
	}

	lines := []string{TitleStyle.Render(fmt.Sprintf("FOUND %d SERVICE(S)", len(routers)))}
	for _, r := range routers {
		marker := SubtitleStyle.Render(DisabledMarker)
		if r.LikelyOpenWrt() {
			marker = EnabledStyle.Render(EnabledMarker)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			marker,
			NameStyle.Render(r.Instance),
			SubtitleStyle.Render(r.BaseURL())))
	}
	return BoxStyle(width).Render(strings.Join(lines, "\n"))
}
