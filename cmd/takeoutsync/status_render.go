package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type outcome int

const (
	outcomeNote outcome = iota
	outcomePass
	outcomeWarn
	outcomeFail
)

var outcomeStyles = [...]struct{ tag, color string }{
	outcomeNote: {"INFO", "\x1b[34m"},
	outcomePass: {"OK", "\x1b[32m"},
	outcomeWarn: {"WARN", "\x1b[33m"},
	outcomeFail: {"ERROR", "\x1b[31m"},
}

const (
	colorReset  = "\x1b[0m"
	statusLabel = 20
)

// statusWriter prints section headings and aligned "label: [TAG] detail"
// lines, colored only when out is a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, color: isTerminal(out)}
}

func (w *statusWriter) heading(title string) {
	head := "== " + strings.TrimSpace(title) + " =="
	w.println(outcomeStyles[outcomeNote].color, head)
	w.println(outcomeStyles[outcomeNote].color, strings.Repeat("-", len(head)))
}

func (w *statusWriter) line(o outcome, label, detail string) {
	style := outcomeStyles[o]
	text := fmt.Sprintf("  %-*s [%s]", statusLabel, label+":", style.tag)
	if detail != "" {
		text += " " + detail
	}
	w.println(style.color, text)
}

func (w *statusWriter) blank() {
	fmt.Fprintln(w.out)
}

func (w *statusWriter) println(color, text string) {
	if w.color {
		text = color + text + colorReset
	}
	fmt.Fprintln(w.out, text)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
