package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/poncho-chat/pkg/agent"
)

// wrapWidth — ширина переноса в человекочитаемом выводе.
const wrapWidth = 100

type palette struct {
	title   lipgloss.Style
	role    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
}

func newPalette(noColor bool) palette {
	if noColor {
		plain := lipgloss.NewStyle()
		return palette{title: plain, role: plain, warning: plain, err: plain, dim: plain}
	}
	return palette{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		role:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		err:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

// failure — JSON результат неудачного вызова.
type failure struct {
	Changed bool   `json:"changed"`
	Failed  bool   `json:"failed"`
	Msg     string `json:"msg"`
}

// printJSON выводит результат в JSON формате.
func printJSON(w io.Writer, result agent.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printFailureJSON(w io.Writer, cause error) error {
	data, err := json.MarshalIndent(failure{Changed: false, Failed: true, Msg: cause.Error()}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printHuman выводит результат в человекочитаемом формате.
func printHuman(w io.Writer, result agent.Result, noColor bool) {
	p := newPalette(noColor)

	fmt.Fprintln(w, p.title.Render("=== Conversation ==="))
	for _, m := range result.OriginalMessages {
		fmt.Fprintf(w, "%s %s\n", p.role.Render("["+string(m.Role)+"]"), wordwrap.String(m.Content, wrapWidth))
	}
	fmt.Fprintln(w)

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, p.title.Render("=== Warnings ==="))
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, p.warning.Render("! "+warning))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, p.title.Render("=== Response ==="))
	if result.Changed {
		fmt.Fprintln(w, wordwrap.String(result.Response, wrapWidth))
	} else {
		fmt.Fprintln(w, p.dim.Render("(check mode, endpoint not called)"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.dim.Render("invocation "+result.InvocationID))
}

func printFailureHuman(w io.Writer, cause error, noColor bool) {
	p := newPalette(noColor)
	fmt.Fprintln(w, p.err.Render("Error:"), wordwrap.String(cause.Error(), wrapWidth))
}
