package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/petrijr/stepform"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(purple)
)

func successMsg(format string, a ...any) string {
	return successStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func warnMsg(format string, a ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func errorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func infoMsg(format string, a ...any) string {
	return accentStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

// progress renders "● ● ○" for the wizard's steps, highlighting the
// current one.
func progress(w stepform.Wizard) string {
	steps := w.Steps()
	cur := w.CurrentStepIndex()
	furthest := w.FurthestStepIndex()

	dots := make([]string, len(steps))
	for i := range steps {
		switch {
		case i == cur:
			dots[i] = accentStyle.Render("●")
		case i <= furthest:
			dots[i] = successStyle.Render("●")
		default:
			dots[i] = mutedStyle.Render("○")
		}
	}
	return strings.Join(dots, " ")
}

func stepHeader(w stepform.Wizard) string {
	step := w.CurrentStep()
	title := step.Title
	if title == "" {
		title = step.ID
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(progress(w))
	sb.WriteString("  ")
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Step %d/%d: %s", w.CurrentStepIndex()+1, len(w.Steps()), title)))
	sb.WriteString("\n")
	if step.Description != "" {
		sb.WriteString(mutedStyle.Render(step.Description))
		sb.WriteString("\n")
	}
	return sb.String()
}

func fieldErrorLines(errs stepform.FieldErrors) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString("  " + errorMsg("%s %s", k, errs[k]) + "\n")
	}
	return sb.String()
}

// snapshotTable renders the fields of a snapshot with rounded borders.
func snapshotTable(snap stepform.Snapshot) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(snap.FormState))
	for _, k := range snap.FormState.Keys() {
		rows = append(rows, []string{k, snap.FormState.String(k)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("FIELD", "VALUE").
		Rows(rows...)

	return t.Render()
}
