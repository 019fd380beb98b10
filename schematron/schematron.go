// Package schematron compiles ISO Schematron (.sch) files to XSLT via the
// standard skeleton pipeline, runs that XSLT against an XML instance
// through an external processor, and parses the resulting SVRL report into
// ValidationErrors.
//
// No pack example implements Schematron; the compiled-artifact caching
// shape is grounded on the teacher's cache.go SchemaCache (sync.Once per
// entry, keyed map, explicit Clear/Remove), generalized here with an LRU
// eviction policy via github.com/golang/groupcache/lru so a long-lived
// process doesn't grow its XSLT cache unbounded across many distinct
// Schematron files.
package schematron

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentflare-ai/go-xmldom"
	"github.com/golang/groupcache/lru"

	"github.com/freexmltoolkit/xmlkit/internal/diagnostic"
)

// ValidationError is one svrl:failed-assert or svrl:successful-report,
// per spec.md §4.4.
type ValidationError struct {
	RuleID       string
	ContextXPath string
	Message      string
	Severity     diagnostic.Severity
}

// Config configures the skeleton-compilation pipeline.
type Config struct {
	// Processor is the external XSLT processor binary invoked via
	// os/exec. Defaults to "xsltproc"; set to a `java -jar saxon.jar`
	// wrapper script path to use Saxon instead.
	Processor string

	// SkeletonDir holds the three ISO Schematron skeleton stylesheets
	// (iso_dsdl_include.xsl, iso_abstract_expand.xsl,
	// iso_svrl_for_xslt2.xsl). These ship with any ISO Schematron
	// distribution; this package does not vendor them.
	SkeletonDir string

	// CacheSize bounds how many compiled XSLT programs are kept resident.
	CacheSize int
}

// DefaultConfig returns the conventional xsltproc-based configuration.
func DefaultConfig() Config {
	return Config{
		Processor:   "xsltproc",
		SkeletonDir: "/usr/share/xml/schematron/resources/xsl",
		CacheSize:   64,
	}
}

// compileEntry guards a single compiled-XSLT slot with sync.Once, the same
// pattern cache.go's schemaEntry uses for single-flight schema loads.
type compileEntry struct {
	once     sync.Once
	xsltPath string
	mtime    time.Time
	err      error
}

// Compiler compiles .sch files to XSLT and caches the result, shared
// safely across concurrent callers per spec.md §5's "protected by a
// per-key write lock; concurrent reads are permitted" policy.
type Compiler struct {
	cfg Config

	mu      sync.Mutex
	cache   *lru.Cache
	workDir string
}

// NewCompiler creates a Compiler. workDir holds intermediate/compiled
// XSLT files; an empty workDir uses os.TempDir.
func NewCompiler(cfg Config, workDir string) *Compiler {
	if cfg.Processor == "" {
		cfg.Processor = "xsltproc"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Compiler{
		cfg:     cfg,
		cache:   lru.New(cfg.CacheSize),
		workDir: workDir,
	}
}

// CompileOrLoad resolves schPath to a usable XSLT file: .xsl/.xslt files
// are used directly, .sch files are compiled through the ISO skeleton
// pipeline and cached keyed on canonical path + mtime.
func (c *Compiler) CompileOrLoad(schPath string) (string, error) {
	abs, err := filepath.Abs(schPath)
	if err != nil {
		return "", fmt.Errorf("schematron: resolving %s: %w", schPath, err)
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if ext == ".xsl" || ext == ".xslt" {
		return abs, nil
	}
	if ext != ".sch" {
		return "", fmt.Errorf("schematron: %s is not a .sch, .xsl, or .xslt file", schPath)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("schematron: stat %s: %w", abs, err)
	}
	mtime := info.ModTime()

	c.mu.Lock()
	cached, ok := c.cache.Get(abs)
	var entry *compileEntry
	if ok {
		entry = cached.(*compileEntry)
		if !entry.mtime.Equal(mtime) {
			// Cache invalidates on mtime change.
			entry = &compileEntry{mtime: mtime}
			c.cache.Add(abs, entry)
		}
	} else {
		entry = &compileEntry{mtime: mtime}
		c.cache.Add(abs, entry)
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.xsltPath, entry.err = c.compile(abs)
	})
	return entry.xsltPath, entry.err
}

// compile runs the three-stage ISO skeleton pipeline:
// iso_dsdl_include -> iso_abstract_expand -> iso_svrl_for_xslt2.
func (c *Compiler) compile(schPath string) (string, error) {
	stages := []struct {
		phase     string
		stylesheet string
	}{
		{"iso_dsdl_include", filepath.Join(c.cfg.SkeletonDir, "iso_dsdl_include.xsl")},
		{"iso_abstract_expand", filepath.Join(c.cfg.SkeletonDir, "iso_abstract_expand.xsl")},
		{"iso_svrl_for_xslt2", filepath.Join(c.cfg.SkeletonDir, "iso_svrl_for_xslt2.xsl")},
	}

	input := schPath
	var output string
	for i, stage := range stages {
		output = filepath.Join(c.workDir, fmt.Sprintf("%s.%d.xsl", filepath.Base(schPath), i))
		if err := c.transform(stage.stylesheet, input, output); err != nil {
			return "", fmt.Errorf("schematron: compile phase %s: %w", stage.phase, err)
		}
		input = output
	}
	return output, nil
}

// transform runs the configured external processor: processor -o output stylesheet input.
func (c *Compiler) transform(stylesheet, input, output string) error {
	cmd := exec.Command(c.cfg.Processor, "-o", output, stylesheet, input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.cfg.Processor, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Validate compiles (or loads) schOrXsltPath, transforms xmlPath through
// it, and parses the resulting SVRL into ValidationErrors.
func (c *Compiler) Validate(xmlPath, schOrXsltPath string) ([]ValidationError, error) {
	xsltPath, err := c.CompileOrLoad(schOrXsltPath)
	if err != nil {
		return nil, err
	}

	svrlPath := filepath.Join(c.workDir, fmt.Sprintf("%s.svrl", filepath.Base(xmlPath)))
	if err := c.transform(xsltPath, xmlPath, svrlPath); err != nil {
		return nil, fmt.Errorf("schematron: running report: %w", err)
	}

	data, err := os.ReadFile(svrlPath)
	if err != nil {
		return nil, fmt.Errorf("schematron: reading SVRL output: %w", err)
	}
	return ParseSVRL(data)
}

const svrlNamespace = "http://purl.oclc.org/dsdl/svrl"

// ParseSVRL walks an SVRL document, turning each svrl:failed-assert and
// svrl:successful-report into a ValidationError.
func ParseSVRL(data []byte) ([]ValidationError, error) {
	doc, err := xmldom.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("schematron: parsing SVRL: %w", err)
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("schematron: SVRL document has no root element")
	}

	var errs []ValidationError
	walkSVRL(root, "", &errs)
	return errs, nil
}

func walkSVRL(elem xmldom.Element, currentRuleID string, out *[]ValidationError) {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != svrlNamespace {
			continue
		}

		ruleID := currentRuleID
		switch string(child.LocalName()) {
		case "fired-rule":
			ruleID = attrString(child, "id")
		case "failed-assert", "successful-report":
			*out = append(*out, ValidationError{
				RuleID:       ruleID,
				ContextXPath: attrString(child, "location"),
				Message:      svrlText(child),
				Severity:     roleSeverity(attrString(child, "role")),
			})
		}
		walkSVRL(child, ruleID, out)
	}
}

// svrlText extracts the svrl:text content of a failed-assert/
// successful-report, substituting it for the element's own message text.
func svrlText(elem xmldom.Element) string {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child != nil && string(child.LocalName()) == "text" {
			return strings.TrimSpace(string(child.TextContent()))
		}
	}
	return strings.TrimSpace(string(elem.TextContent()))
}

func attrString(elem xmldom.Element, name string) string {
	return string(elem.GetAttribute(xmldom.DOMString(name)))
}

// roleSeverity derives severity from a rule's @role, defaulting to error
// per spec.md §4.4.
func roleSeverity(role string) diagnostic.Severity {
	switch strings.ToLower(role) {
	case "warning", "warn":
		return diagnostic.SeverityWarning
	case "info", "information":
		return diagnostic.SeverityInfo
	case "fatal":
		return diagnostic.SeverityFatal
	default:
		return diagnostic.SeverityError
	}
}
