package webscrape

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// ExtractText returns the document title and its visible text. Script and
// style bodies are dropped, every tag becomes a space, runs of blanks collapse
// to one and runs of three or more newlines collapse to two.
func ExtractText(r io.Reader) (title, text string, err error) {
	z := html.NewTokenizer(r)

	var body, titleBuf strings.Builder
	skip := 0
	inTitle, titleDone := false, false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return collapse(titleBuf.String()), collapse(body.String()), nil
			}
			return "", "", z.Err()

		case html.StartTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Title:
				inTitle = !titleDone
			}
			body.WriteByte(' ')

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.Title:
				if inTitle {
					inTitle, titleDone = false, true
				}
			}
			body.WriteByte(' ')

		case html.SelfClosingTagToken:
			body.WriteByte(' ')

		case html.TextToken:
			if skip > 0 {
				continue
			}
			t := string(z.Text())
			if inTitle {
				titleBuf.WriteString(t)
			}
			body.WriteString(t)
		}
	}
}

func collapse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
