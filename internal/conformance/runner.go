package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	xmldom "github.com/agentflare-ai/go-xmldom"
	xsd "github.com/freexmltoolkit/xmlkit"
	"github.com/freexmltoolkit/xmlkit/jsonx"
	"github.com/freexmltoolkit/xmlkit/schematron"
	"github.com/freexmltoolkit/xmlkit/xmlsig"
)

// Result captures the outcome of a single Case, the generalized
// replacement for the teacher's W3CTestResult.
type Result struct {
	Group    string
	Name     string
	Kind     string
	Expected string
	Actual   string
	Passed   bool
	Err      error
}

// Runner executes a Suite's cases against a base directory holding the
// fixture files the manifest's relative paths resolve against.
type Runner struct {
	BaseDir string
	Verbose bool
	Results []Result
}

// NewRunner creates a runner rooted at baseDir, the directory fixtures
// referenced by a manifest's Schema/Instance/Rules/Document attributes
// resolve relative to.
func NewRunner(baseDir string) *Runner {
	return &Runner{BaseDir: baseDir}
}

// RunSuite executes every case in suite, appending to Results.
func (r *Runner) RunSuite(suite *Suite) {
	for _, group := range suite.Groups {
		for _, c := range group.Cases {
			result := r.runCase(group.Name, c)
			r.Results = append(r.Results, result)
			if r.Verbose {
				r.printResult(result)
			}
		}
	}
}

func (r *Runner) runCase(group string, c Case) Result {
	result := Result{Group: group, Name: c.Name, Kind: c.Kind, Expected: c.Expected}

	var actual string
	var err error
	switch c.Kind {
	case "xsd-schema":
		actual, err = r.runXSDSchemaCase(c)
	case "xsd-instance":
		actual, err = r.runXSDInstanceCase(c)
	case "schematron":
		actual, err = r.runSchematronCase(c)
	case "signature":
		actual, err = r.runSignatureCase(c)
	case "json-schema":
		actual, err = r.runJSONSchemaCase(c)
	case "json-wellformed":
		actual, err = r.runJSONWellformedCase(c)
	default:
		actual, err = "error", fmt.Errorf("unknown case kind %q", c.Kind)
	}

	result.Actual = actual
	result.Err = err
	result.Passed = result.Actual == result.Expected
	return result
}

func (r *Runner) path(rel string) string {
	return filepath.Join(r.BaseDir, rel)
}

func (r *Runner) runXSDSchemaCase(c Case) (string, error) {
	if _, err := xsd.LoadSchema(r.path(c.Schema)); err != nil {
		return "invalid", err
	}
	return "valid", nil
}

func (r *Runner) runXSDInstanceCase(c Case) (string, error) {
	schema, err := xsd.LoadSchema(r.path(c.Schema))
	if err != nil {
		return "error", fmt.Errorf("loading schema: %w", err)
	}

	file, err := os.Open(r.path(c.Instance))
	if err != nil {
		return "error", fmt.Errorf("opening instance: %w", err)
	}
	defer file.Close()

	doc, err := xmldom.Decode(file)
	if err != nil {
		return "error", fmt.Errorf("parsing instance: %w", err)
	}

	violations := xsd.NewValidator(schema).Validate(doc)
	if len(violations) > 0 {
		return "invalid", fmt.Errorf("%d violations: %v", len(violations), violations[0])
	}
	return "valid", nil
}

func (r *Runner) runSchematronCase(c Case) (string, error) {
	compiler := schematron.NewCompiler(schematron.DefaultConfig(), "")
	violations, err := compiler.Validate(r.path(c.Instance), r.path(c.Rules))
	if err != nil {
		return "error", fmt.Errorf("running schematron: %w", err)
	}
	if len(violations) > 0 {
		return "invalid", fmt.Errorf("%d assertion failures: %s", len(violations), violations[0].Message)
	}
	return "valid", nil
}

func (r *Runner) runSignatureCase(c Case) (string, error) {
	result, err := xmlsig.Verify(r.path(c.Document))
	if err != nil {
		return "error", fmt.Errorf("verifying signature: %w", err)
	}
	if !result.Valid {
		return "invalid", fmt.Errorf("%s", result.Reason)
	}
	return "valid", nil
}

func (r *Runner) runJSONSchemaCase(c Case) (string, error) {
	text, err := os.ReadFile(r.path(c.Instance))
	if err != nil {
		return "error", fmt.Errorf("reading document: %w", err)
	}
	schemaText, err := os.ReadFile(r.path(c.Schema))
	if err != nil {
		return "error", fmt.Errorf("reading schema: %w", err)
	}
	errs, err := jsonx.ValidateAgainstSchema(string(text), string(schemaText))
	if err != nil {
		return "error", fmt.Errorf("validating: %w", err)
	}
	if len(errs) > 0 {
		return "invalid", fmt.Errorf("%d schema violations: %s", len(errs), errs[0].Message)
	}
	return "valid", nil
}

func (r *Runner) runJSONWellformedCase(c Case) (string, error) {
	text, err := os.ReadFile(r.path(c.Document))
	if err != nil {
		return "error", fmt.Errorf("reading document: %w", err)
	}
	errs := jsonx.ValidateWellformed(string(text))
	if len(errs) > 0 {
		return "invalid", fmt.Errorf("%s", errs[0].Message)
	}
	return "valid", nil
}

func (r *Runner) printResult(result Result) {
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s/%s (%s): expected=%s, actual=%s",
		status, result.Group, result.Name, result.Kind, result.Expected, result.Actual)
	if result.Err != nil && !result.Passed {
		fmt.Printf(" (%v)", result.Err)
	}
	fmt.Println()
}
