package codegen

import "strings"

type docParam struct {
	name string
	text string
}

// escapeComment keeps descriptions from terminating the surrounding
// comment early.
func escapeComment(s string) string {
	return strings.ReplaceAll(s, "*/", `*\/`)
}

// wrapText wraps text at whitespace to the given width. Words longer
// than the width occupy a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

// docComment writes a /** ... */ block wrapped to 80 columns minus the
// comment decoration and current indentation.
func (w *writer) docComment(text string, params []docParam) {
	width := 80 - 3 - w.indent*2
	if width < 20 {
		width = 20
	}
	w.p("/**")
	body := wrapText(text, width)
	for _, line := range body {
		w.p(" * " + escapeComment(line))
	}
	if len(params) > 0 {
		if len(body) > 0 {
			w.p(" *")
		}
		for _, p := range params {
			lines := wrapText("@param "+p.name+" "+p.text, width)
			for _, line := range lines {
				w.p(" * " + escapeComment(line))
			}
		}
	}
	w.p(" */")
}
