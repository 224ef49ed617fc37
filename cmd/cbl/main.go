// Command cbl manages versioned, audience-tiered documentation objects.
// It records objects per project and compiles them into a document for any
// project version and reader level.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/compile"
	"github.com/ike5/CodeByLevelCLI/core/encoding"
	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/core/object"
	"github.com/ike5/CodeByLevelCLI/core/resolve"
	"github.com/ike5/CodeByLevelCLI/core/sqlite"
	"github.com/ike5/CodeByLevelCLI/core/version"
	"github.com/ike5/CodeByLevelCLI/internal/archive"
	"github.com/ike5/CodeByLevelCLI/internal/capture"
	"github.com/ike5/CodeByLevelCLI/internal/config"
	"github.com/ike5/CodeByLevelCLI/internal/logging"
	"github.com/ike5/CodeByLevelCLI/internal/project"
)

const toolVersion = "0.1.0"

// previewWidth is the number of runes of content shown per row by show.
const previewWidth = 50

// Exit codes.
const (
	exitOK                 = 0
	exitFailure            = 1
	exitValidation         = 2
	exitNotFound           = 3
	exitIO                 = 4
	exitAlreadyInitialized = 5
)

// Injectable streams for testing
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
)

// Globals are the flags shared by every command.
type Globals struct {
	Dir       string `name:"dir" short:"C" help:"Directory holding the .codebylevel workspace" default:"." type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error); defaults to the config [log] level"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`

	ctx context.Context `kong:"-"`
}

// CLI defines the command-line interface for cbl.
type CLI struct {
	Globals

	Init     InitCmd     `cmd:"" help:"Create the workspace and register a project"`
	Add      AddCmd      `cmd:"" help:"Add a new version of a documentation object"`
	List     ListCmd     `cmd:"" help:"List every object record of a project"`
	Show     ShowCmd     `cmd:"" help:"Show the document a project compiles to at a version"`
	Build    BuildCmd    `cmd:"" help:"Render the document to a file"`
	Export   ExportCmd   `cmd:"" help:"Bundle the document in every format into a tar.xz or tar.gz archive"`
	Projects ProjectsCmd `cmd:"" help:"List registered projects"`
	Verify   VerifyCmd   `cmd:"" help:"Check stored content against its hashes"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func (g *Globals) context() context.Context {
	if g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

// configureLogging applies the log flags, falling back to cfg when a flag is
// unset.
func (g *Globals) configureLogging(cfg *config.Config) error {
	levelName, formatName := g.LogLevel, g.LogFormat
	if cfg != nil {
		if levelName == "" {
			levelName = cfg.Log.Level
		}
		if formatName == "" {
			formatName = cfg.Log.Format
		}
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// open opens the workspace and applies its logging configuration.
func (g *Globals) open() (*project.Workspace, error) {
	w, err := project.Open(g.context(), g.Dir)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrapf(err, "no workspace in %s (run cbl init <project>)", absPath(g.Dir))
		}
		return nil, err
	}
	if err := g.configureLogging(w.Config); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// projectName returns name, or the workspace default when name is empty.
func (g *Globals) projectName(w *project.Workspace, name string) (string, error) {
	if name != "" {
		p, err := w.Project(g.context(), name)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	}
	return w.DefaultProject(g.context())
}

// InitCmd creates the workspace and registers a project.
type InitCmd struct {
	Project     string `arg:"" help:"Project name"`
	Description string `help:"Project description"`
	Sections    string `help:"Comma-separated sections to place first in compiled documents"`
}

func (c *InitCmd) Run(g *Globals) error {
	w, err := project.Init(g.context(), g.Dir)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := g.configureLogging(w.Config); err != nil {
		return err
	}

	p, err := w.CreateProject(g.context(), c.Project, c.Description)
	if err != nil {
		return err
	}

	if sections := config.SplitList(c.Sections); len(sections) > 0 {
		w.Config.Display.Sections = sections
		if err := w.SaveConfig(); err != nil {
			return err
		}
	}

	successColor.Fprintf(stdout, "Initialized project %s in %s\n", p.Name, w.Root())
	return nil
}

// AddCmd appends a new object record.
type AddCmd struct {
	Title    string `arg:"" help:"Object title"`
	Version  string `short:"v" help:"Project version the content is written for (default: config [defaults] version)"`
	Section  string `short:"s" help:"Section the object belongs to"`
	Audience string `short:"a" help:"Audience tier (amateur, professional, expert)" default:"professional"`
	Project  string `short:"p" help:"Project (default: config [defaults] project, or the only project)"`

	File    string `short:"f" help:"Read content from a file (default: piped stdin)" type:"path"`
	Content string `short:"c" help:"Content given inline"`
}

func (c *AddCmd) Run(g *Globals) error {
	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	name, err := g.projectName(w, c.Project)
	if err != nil {
		return err
	}

	var v version.Version
	switch def := w.Config.DefaultVersion(); {
	case c.Version != "":
		if v, err = version.Parse(c.Version); err != nil {
			return err
		}
	case def != nil:
		v = *def
	default:
		return errors.NewValidation("version", "no version given (use --version or set [defaults] version)")
	}

	tier, err := audience.Parse(c.Audience)
	if err != nil {
		return err
	}

	data, err := capture.Read(capture.Options{
		File:    c.File,
		Content: c.Content,
		Stdin:   stdin,
	})
	if err != nil {
		return err
	}

	rec, err := w.Add(g.context(), name, object.Record{
		Title:    c.Title,
		Version:  v,
		Section:  c.Section,
		Audience: tier,
		Content:  string(data),
	})
	if err != nil {
		return err
	}

	successColor.Fprintf(stdout, "Added %s %s to %s\n", rec.Title, rec.Version, name)
	fmt.Fprintf(stdout, "  Sequence: %d\n", rec.Sequence)
	fmt.Fprintf(stdout, "  Audience: %s\n", rec.Audience)
	if rec.Section != "" {
		fmt.Fprintf(stdout, "  Section: %s\n", rec.Section)
	}
	fmt.Fprintf(stdout, "  Size: %s\n", units.HumanSize(float64(rec.Size)))
	fmt.Fprintf(stdout, "  SHA-256: %s\n", rec.ContentHash)
	return nil
}

// ListCmd prints a project's full history.
type ListCmd struct {
	Project string `arg:"" optional:"" help:"Project (default: config [defaults] project, or the only project)"`
	Match   string `short:"m" help:"Only titles matching this glob (e.g. 'API*', '{Welcome,Summary}')"`
}

func (c *ListCmd) Run(g *Globals) error {
	if c.Match != "" && !doublestar.ValidatePattern(c.Match) {
		return errors.NewInvalidValue("match", c.Match, "not a valid glob pattern")
	}

	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	name, err := g.projectName(w, c.Project)
	if err != nil {
		return err
	}
	log, err := w.History(g.context(), name)
	if err != nil {
		return err
	}

	var records []object.Record
	for _, r := range log.All() {
		if c.Match != "" {
			if ok, _ := doublestar.Match(c.Match, r.Title); !ok {
				continue
			}
		}
		records = append(records, r)
	}

	if len(records) == 0 {
		if c.Match != "" {
			fmt.Fprintf(stdout, "No objects in %s match %q\n", name, c.Match)
		} else {
			fmt.Fprintf(stdout, "No objects in %s\n", name)
		}
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("SEQ", "TITLE", "VERSION", "SECTION", "AUDIENCE", "SIZE", "CREATED")
	for _, r := range records {
		table.AddRow(r.Sequence, r.Title, r.Version, sectionLabel(r.Section), r.Audience,
			units.HumanSize(float64(r.Size)), r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(stdout, table)
	return nil
}

// pipeline resolves, filters and compiles a project at a version.
type pipeline struct {
	Project string
	Version string
	Level   string
}

func (p pipeline) run(g *Globals, w *project.Workspace) (*compile.Document, []object.Record, error) {
	name, err := g.projectName(w, p.Project)
	if err != nil {
		return nil, nil, err
	}
	v, err := version.Parse(p.Version)
	if err != nil {
		return nil, nil, err
	}
	levelText := p.Level
	if levelText == "" {
		levelText = w.Config.Defaults.Level
	}
	level, err := audience.ParseLevel(levelText)
	if err != nil {
		return nil, nil, err
	}

	log, err := w.History(g.context(), name)
	if err != nil {
		return nil, nil, err
	}
	start := time.Now()
	records := log.All()
	resolved, err := w.Hydrate(resolve.At(records, v, level))
	if err != nil {
		return nil, nil, err
	}
	doc := compile.Compile(resolved, records, compile.Options{
		Project:        name,
		Version:        v,
		Level:          level,
		PinnedSections: w.Config.Display.Sections,
	})

	logging.DocumentCompiled(logging.WithProject(g.context(), name), v.String(), audience.LevelString(level),
		len(doc.Sections), doc.Len(), time.Since(start), "cache_hits", w.CacheStats().Hits)
	return doc, records, nil
}

// ShowCmd prints the compiled document at a version.
type ShowCmd struct {
	Project string `arg:"" help:"Project name"`
	Version string `arg:"" help:"Project version (MAJOR.MINOR.PATCH)"`
	Level   string `short:"l" help:"Audience level to show (amateur, professional, expert or all)"`
	Full    bool   `help:"Print the full content instead of a summary table"`
}

func (c *ShowCmd) Run(g *Globals) error {
	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	doc, records, err := pipeline{Project: c.Project, Version: c.Version, Level: c.Level}.run(g, w)
	if err != nil {
		return err
	}

	if doc.Empty() {
		printEmpty(doc, records)
		return nil
	}

	if c.Full {
		r, err := compile.RendererFor("markdown")
		if err != nil {
			return err
		}
		return r.Render(stdout, doc)
	}

	headerColor.Fprintf(stdout, "%s %s (%s)\n\n", doc.Project, doc.Version, audience.LevelString(doc.Level))
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("SECTION", "TITLE", "VERSION", "AUDIENCE", "PREVIEW")
	for _, s := range doc.Sections {
		for _, e := range s.Entries {
			table.AddRow(s.Label(), e.Title, e.Version, e.Audience, encoding.Preview(e.Content, previewWidth))
		}
	}
	fmt.Fprintln(stdout, table)
	return nil
}

func printEmpty(doc *compile.Document, records []object.Record) {
	warnColor.Fprintf(stdout, "No objects in %s at %s (%s)\n",
		doc.Project, doc.Version, audience.LevelString(doc.Level))
	if versions := resolve.Versions(records); len(versions) > 0 && doc.Version.Less(versions[0]) {
		fmt.Fprintf(stdout, "  Earliest version with content: %s\n", versions[0])
	}
}

// BuildCmd writes the rendered document.
type BuildCmd struct {
	Project string `arg:"" help:"Project name"`
	Version string `arg:"" help:"Project version (MAJOR.MINOR.PATCH)"`
	Level   string `short:"l" help:"Audience level to include (amateur, professional, expert or all)"`
	Out     string `short:"o" help:"Output path, or - for stdout (default: <project>-<version>[-<level>].<ext> in the current directory)"`
	Format  string `short:"F" help:"Output format (markdown, text, json, html, xml; default: config [defaults] format or markdown)"`
}

func (c *BuildCmd) Run(g *Globals) error {
	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	formatName := c.Format
	if formatName == "" {
		formatName = w.Config.Defaults.Format
	}
	renderer, err := compile.RendererFor(formatName)
	if err != nil {
		return err
	}

	doc, _, err := pipeline{Project: c.Project, Version: c.Version, Level: c.Level}.run(g, w)
	if err != nil {
		return err
	}

	if c.Out == "-" {
		return renderer.Render(stdout, doc)
	}

	out := c.Out
	if out == "" {
		out = compile.DefaultOutputPath(".", doc.Project, doc.Version, doc.Level, renderer)
	}
	if err := compile.WriteFile(out, doc, renderer); err != nil {
		return err
	}

	if doc.Empty() {
		warnColor.Fprintf(stderr, "Warning: no objects in %s at %s (%s); wrote an empty document\n",
			doc.Project, doc.Version, audience.LevelString(doc.Level))
	}
	successColor.Fprintf(stdout, "Built %s\n", out)
	return nil
}

// ExportCmd writes an archive holding the document rendered in every format
// together with a manifest.
type ExportCmd struct {
	Project string `arg:"" help:"Project name"`
	Version string `arg:"" help:"Project version (MAJOR.MINOR.PATCH)"`
	Level   string `short:"l" help:"Audience level to include (amateur, professional, expert or all)"`
	Out     string `short:"o" help:"Archive path ending in .tar.xz or .tar.gz (default: <project>-<version>[-<level>].tar.xz in the current directory)"`
}

type bundleManifest struct {
	Project  string   `json:"project"`
	Version  string   `json:"version"`
	Level    string   `json:"level"`
	Sections int      `json:"sections"`
	Entries  int      `json:"entries"`
	Files    []string `json:"files"`
	Tool     string   `json:"tool"`
}

func (c *ExportCmd) Run(g *Globals) error {
	if c.Out != "" && archive.DetectFormat(c.Out) == "" {
		return errors.NewInvalidValue("out", c.Out, "archive must end in .tar.xz or .tar.gz")
	}

	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	doc, records, err := pipeline{Project: c.Project, Version: c.Version, Level: c.Level}.run(g, w)
	if err != nil {
		return err
	}

	base := compile.BaseName(doc.Project, doc.Version, doc.Level)
	manifest := bundleManifest{
		Project:  doc.Project,
		Version:  doc.Version.String(),
		Level:    audience.LevelString(doc.Level),
		Sections: len(doc.Sections),
		Entries:  doc.Len(),
		Tool:     "cbl " + toolVersion,
	}

	var files []archive.File
	for _, name := range compile.Formats() {
		r, err := compile.RendererFor(name)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := r.Render(&buf, doc); err != nil {
			return errors.Wrapf(err, "render %s", name)
		}
		file := base + "." + r.Extension()
		files = append(files, archive.File{Name: file, Data: buf.Bytes()})
		manifest.Files = append(manifest.Files, file)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	files = append([]archive.File{{Name: "manifest.json", Data: append(data, '\n')}}, files...)

	out := c.Out
	if out == "" {
		out = base + archive.FormatTarXz
	}
	if err := archive.Create(out, base, files, newestRecord(records)); err != nil {
		return err
	}
	if err := checkBundle(out, files); err != nil {
		return err
	}

	successColor.Fprintf(stdout, "Exported %s\n", out)
	fmt.Fprintf(stdout, "  Files: %d\n", len(files))
	fmt.Fprintf(stdout, "  Entries: %d\n", doc.Len())
	return nil
}

// checkBundle reads the archive at path back and checks that it holds
// exactly files and that its manifest matches what was written.
func checkBundle(path string, files []archive.File) error {
	names, err := archive.List(path)
	if err != nil {
		return err
	}
	want := make([]string, 0, len(files))
	var manifest []byte
	for _, f := range files {
		want = append(want, f.Name)
		if f.Name == "manifest.json" {
			manifest = f.Data
		}
	}
	sort.Strings(want)
	if !slices.Equal(names, want) {
		return errors.NewParse("archive", path,
			fmt.Sprintf("holds %s, want %s", strings.Join(names, ", "), strings.Join(want, ", ")))
	}

	data, err := archive.ReadFile(path, "manifest.json")
	if err != nil {
		return err
	}
	if !bytes.Equal(data, manifest) {
		return errors.NewParse("archive", path, "manifest.json differs from the one written")
	}
	return nil
}

// newestRecord returns the latest CreatedAt in records so that exporting
// the same history twice yields identical archives.
func newestRecord(records []object.Record) time.Time {
	var newest time.Time
	for _, r := range records {
		if r.CreatedAt.After(newest) {
			newest = r.CreatedAt
		}
	}
	if newest.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return newest
}

// ProjectsCmd lists the projects in the workspace.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Run(g *Globals) error {
	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	projects, err := w.Projects(g.context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(stdout, "No projects. Run cbl init <project> to create one.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("NAME", "OBJECTS", "LATEST", "CREATED", "DESCRIPTION")
	for _, p := range projects {
		latest := "-"
		if p.Latest != nil {
			latest = p.Latest.String()
		}
		marker := ""
		if p.Name == w.Config.Defaults.Project {
			marker = " (default)"
		}
		table.AddRow(p.Name+marker, p.Objects, latest, p.CreatedAt.Local().Format("2006-01-02"), p.Description)
	}
	fmt.Fprintln(stdout, table)
	return nil
}

// VerifyCmd re-hashes every stored object of a project.
type VerifyCmd struct {
	Project string `arg:"" optional:"" help:"Project (default: config [defaults] project, or the only project)"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	w, err := g.open()
	if err != nil {
		return err
	}
	defer w.Close()

	name, err := g.projectName(w, c.Project)
	if err != nil {
		return err
	}
	log, err := w.History(g.context(), name)
	if err != nil {
		return err
	}
	problems, err := w.Verify(g.context(), name)
	if err != nil {
		return err
	}

	for _, p := range problems {
		errorColor.Fprintf(stdout, "  [FAIL] #%d %s %s: %v\n", p.Record.Sequence, p.Record.Title, p.Record.Version, p.Err)
	}
	if len(problems) > 0 {
		return errors.NewParse("object store", w.Root(),
			fmt.Sprintf("%d of %d objects in %s failed verification", len(problems), log.Len(), name))
	}
	successColor.Fprintf(stdout, "Verified %d objects in %s\n", log.Len(), name)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "cbl version %s\n", toolVersion)
	fmt.Fprintf(stdout, "  SQLite driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

func sectionLabel(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var (
		already *errors.AlreadyInitializedError
		parse   *errors.ParseError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &already):
		return exitAlreadyInitialized
	case errors.As(err, &parse):
		return exitFailure
	case errors.Is(err, errors.ErrInvalidInput):
		return exitValidation
	case errors.Is(err, errors.ErrNotFound):
		return exitNotFound
	case errors.Is(err, errors.ErrIO):
		return exitIO
	}
	return exitFailure
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("cbl"),
		kong.Description("CodeByLevel - versioned documentation for every audience"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		errorColor.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		errorColor.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run cbl --help for usage.")
		return exitValidation
	}

	if err := cli.configureLogging(nil); err != nil {
		errorColor.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	cli.ctx = logging.WithCommand(context.Background(), strings.Fields(kctx.Command())[0])

	err = kctx.Run(&cli.Globals)
	code := exitCode(err)
	if err != nil {
		logging.CommandFailed(cli.ctx, err, code)
		errorColor.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// absPath makes relative --dir values unambiguous in messages.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
