package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
)

const (
	iconOK   = "✓"
	iconFail = "✗"
)

var (
	styleTitle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleOK     = lipgloss.NewStyle().Foreground(colorSuccess)
	styleFail   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleLabel  = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers(headers...)
}

// verdict renders a pass or fail mark with its message.
func verdict(ok bool, msg string) string {
	if ok {
		return styleOK.Render(iconOK) + " " + msg
	}
	return styleFail.Render(iconFail) + " " + msg
}
