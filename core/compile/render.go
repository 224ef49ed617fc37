package compile

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/encoding"
	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/core/version"
	"github.com/ike5/CodeByLevelCLI/internal/fileutil"
)

// Renderer serializes a compiled document.
type Renderer interface {
	// Name is the format identifier accepted by --format.
	Name() string
	// Extension is the file extension used for default output paths.
	Extension() string
	// Render writes doc to w.
	Render(w io.Writer, doc *Document) error
}

// DefaultFormat is used when no format is requested.
const DefaultFormat = "markdown"

var renderers = map[string]Renderer{
	"markdown": markdownRenderer{},
	"text":     textRenderer{},
	"json":     jsonRenderer{},
	"html":     htmlRenderer{},
	"xml":      xmlRenderer{},
}

var formatAliases = map[string]string{
	"md":  "markdown",
	"txt": "text",
	"htm": "html",
}

// RendererFor returns the renderer registered under name or an alias.
// An empty name selects DefaultFormat.
func RendererFor(name string) (Renderer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultFormat
	}
	if alias, ok := formatAliases[key]; ok {
		key = alias
	}
	r, ok := renderers[key]
	if !ok {
		return nil, errors.NewInvalidValue("format", name,
			fmt.Sprintf("unknown format %q (want one of %s)", name, strings.Join(Formats(), ", ")))
	}
	return r, nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFile renders doc with r and writes it to path atomically. The parent
// directory must exist; otherwise an *errors.IOError is returned and nothing
// is written. An empty document still produces a file.
func WriteFile(path string, doc *Document, r Renderer) error {
	return fileutil.Write(path, 0644, func(w io.Writer) error {
		return r.Render(w, doc)
	})
}

// BaseName derives "<project>-<version>[-<level>]" for output files.
func BaseName(project string, v version.Version, level *audience.Audience) string {
	base := encoding.Slug(project)
	if base == "" {
		base = "document"
	}
	name := base + "-" + v.String()
	if level != nil {
		name += "-" + level.String()
	}
	return name
}

// DefaultOutputPath derives "<project>-<version>[-<level>].<ext>" inside dir.
func DefaultOutputPath(dir, project string, v version.Version, level *audience.Audience, r Renderer) string {
	return filepath.Join(dir, BaseName(project, v, level)+"."+r.Extension())
}

func title(doc *Document) string {
	return fmt.Sprintf("%s %s", doc.Project, doc.Version)
}

type markdownRenderer struct{}

func (markdownRenderer) Name() string      { return "markdown" }
func (markdownRenderer) Extension() string { return "md" }

func (markdownRenderer) Render(w io.Writer, doc *Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title(doc))
	if doc.Level != nil {
		fmt.Fprintf(&b, "\n_Audience: %s_\n", *doc.Level)
	}
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "\n## %s\n", s.Label())
		for _, e := range s.Entries {
			fmt.Fprintf(&b, "\n### %s\n\n", e.Title)
			if body := strings.TrimRight(e.Content, "\n"); body != "" {
				b.WriteString(body)
				b.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// textRenderer emits the flat concatenation of entry contents.
type textRenderer struct{}

func (textRenderer) Name() string      { return "text" }
func (textRenderer) Extension() string { return "txt" }

func (textRenderer) Render(w io.Writer, doc *Document) error {
	parts := make([]string, 0, doc.Len())
	for _, e := range doc.Entries() {
		parts = append(parts, strings.TrimRight(e.Content, "\n"))
	}
	if len(parts) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n\n")+"\n")
	return err
}

type jsonDocument struct {
	Project  string        `json:"project"`
	Version  string        `json:"version"`
	Level    string        `json:"level"`
	Sections []jsonSection `json:"sections"`
}

type jsonSection struct {
	Name    string      `json:"name"`
	Entries []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Title    string `json:"title"`
	Version  string `json:"version"`
	Audience string `json:"audience"`
	Content  string `json:"content"`
}

type jsonRenderer struct{}

func (jsonRenderer) Name() string      { return "json" }
func (jsonRenderer) Extension() string { return "json" }

func (jsonRenderer) Render(w io.Writer, doc *Document) error {
	out := jsonDocument{
		Project:  doc.Project,
		Version:  doc.Version.String(),
		Level:    audience.LevelString(doc.Level),
		Sections: make([]jsonSection, 0, len(doc.Sections)),
	}
	for _, s := range doc.Sections {
		js := jsonSection{Name: s.Name, Entries: make([]jsonEntry, 0, len(s.Entries))}
		for _, e := range s.Entries {
			js.Entries = append(js.Entries, jsonEntry{
				Title:    e.Title,
				Version:  e.Version.String(),
				Audience: e.Audience.String(),
				Content:  e.Content,
			})
		}
		out.Sections = append(out.Sections, js)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type htmlRenderer struct{}

func (htmlRenderer) Name() string      { return "html" }
func (htmlRenderer) Extension() string { return "html" }

func (htmlRenderer) Render(w io.Writer, doc *Document) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n", encoding.EscapeHTML(title(doc)))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", encoding.EscapeHTML(title(doc)))
	if doc.Level != nil {
		fmt.Fprintf(&b, "<p class=\"audience\">Audience: %s</p>\n", *doc.Level)
	}
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "<section id=\"%s\">\n<h2>%s</h2>\n",
			encoding.EscapeHTMLAttr(encoding.Slug(s.Label())), encoding.EscapeHTML(s.Label()))
		for _, e := range s.Entries {
			fmt.Fprintf(&b, "<article data-version=\"%s\" data-audience=\"%s\">\n<h3>%s</h3>\n",
				e.Version, e.Audience, encoding.EscapeHTML(e.Title))
			fmt.Fprintf(&b, "<pre>%s</pre>\n</article>\n",
				encoding.EscapeHTML(strings.TrimRight(e.Content, "\n")))
		}
		b.WriteString("</section>\n")
	}
	b.WriteString("</body>\n</html>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

type xmlDocument struct {
	XMLName  xml.Name     `xml:"document"`
	Project  string       `xml:"project,attr"`
	Version  string       `xml:"version,attr"`
	Level    string       `xml:"level,attr"`
	Sections []xmlSection `xml:"section"`
}

type xmlSection struct {
	Name    string     `xml:"name,attr"`
	Objects []xmlEntry `xml:"object"`
}

type xmlEntry struct {
	Title    string `xml:"title,attr"`
	Version  string `xml:"version,attr"`
	Audience string `xml:"audience,attr"`
	Content  string `xml:",chardata"`
}

type xmlRenderer struct{}

func (xmlRenderer) Name() string      { return "xml" }
func (xmlRenderer) Extension() string { return "xml" }

func (xmlRenderer) Render(w io.Writer, doc *Document) error {
	out := xmlDocument{
		Project: doc.Project,
		Version: doc.Version.String(),
		Level:   audience.LevelString(doc.Level),
	}
	for _, s := range doc.Sections {
		xs := xmlSection{Name: s.Name}
		for _, e := range s.Entries {
			xs.Objects = append(xs.Objects, xmlEntry{
				Title:    e.Title,
				Version:  e.Version.String(),
				Audience: e.Audience.String(),
				Content:  e.Content,
			})
		}
		out.Sections = append(out.Sections, xs)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
