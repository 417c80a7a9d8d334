package tui

import (
	"github.com/charmbracelet/lipgloss"

	"invoicedesk/internal/console"
	"invoicedesk/internal/grid"
)

// Theme defines the color palette of the invoice console. All colors are
// ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Status badges.
	BadgeSuccess lipgloss.Color
	BadgeWarning lipgloss.Color
	BadgeDanger  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	BadgeSuccess: lipgloss.Color("114"), // green
	BadgeWarning: lipgloss.Color("220"), // yellow/amber
	BadgeDanger:  lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("203"),
}

// BadgeColor returns the color for a status badge. Unknown badges use
// FaintText.
func (theme Theme) BadgeColor(badge grid.Badge) lipgloss.Color {
	switch badge {
	case grid.BadgeSuccess:
		return theme.BadgeSuccess
	case grid.BadgeWarning:
		return theme.BadgeWarning
	case grid.BadgeDanger:
		return theme.BadgeDanger
	default:
		return theme.FaintText
	}
}

// LevelColor returns the toast color for a notification level.
func (theme Theme) LevelColor(level console.Level) lipgloss.Color {
	switch level {
	case console.LevelSuccess:
		return theme.BadgeSuccess
	case console.LevelWarning:
		return theme.BadgeWarning
	case console.LevelError:
		return theme.BadgeDanger
	default:
		return theme.NormalText
	}
}

func (theme Theme) header() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
}

func (theme Theme) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.FaintText)
}

func (theme Theme) errorText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.ErrorText)
}

func (theme Theme) dialog() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 1)
}
