package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/linkguard/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F56", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	muted lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		muted: NewStyle(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// status renders a link status badge.
func (p *Palette) status(s models.LinkStatus) string {
	switch s {
	case models.LinkActive:
		return p.ok.Render("● active")
	case models.LinkWarning:
		return p.warn.Render("● warning")
	case models.LinkBroken:
		return p.err.Render("● broken")
	default:
		return string(s)
	}
}

// alert renders an alert type marker.
func (p *Palette) alert(t models.AlertType) string {
	switch t {
	case models.AlertBroken:
		return p.err.Render("✗")
	case models.AlertWarning:
		return p.warn.Render("!")
	default:
		return p.muted.Render("i")
	}
}
