package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds all customizable style colors for the publisher UI.
type StyleConfig struct {
	PrimaryBlue   lipgloss.Color
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	BorderColor   lipgloss.Color
	SuccessColor  lipgloss.Color
	ErrorColor    lipgloss.Color

	// Accent colors per partition, indexed by partition number
	PartitionColors []lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:   lipgloss.Color("#8AB4F8"),
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		BorderColor:   lipgloss.Color("#5F6368"),
		SuccessColor:  lipgloss.Color("#34A853"),
		ErrorColor:    lipgloss.Color("#EA4335"),
		PartitionColors: []lipgloss.Color{
			lipgloss.Color("#FBBC04"), // Yellow
			lipgloss.Color("#24C1E0"), // Cyan
			lipgloss.Color("#A142F4"), // Purple
		},
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 1)
}

// HistoryStyle returns the bordered container for the send history
func (s *StyleConfig) HistoryStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextPrimary).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}

// OKStyle marks a successfully sent line
func (s *StyleConfig) OKStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.SuccessColor).Bold(true)
}

// ErrorStyle marks a failed line
func (s *StyleConfig) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.ErrorColor).Bold(true)
}

// PartitionStyle colors a partition badge
func (s *StyleConfig) PartitionStyle(partition int32) lipgloss.Style {
	color := s.TextSecondary
	if int(partition) >= 0 && int(partition) < len(s.PartitionColors) {
		color = s.PartitionColors[partition]
	}
	return lipgloss.NewStyle().Foreground(color)
}
