// Command jsonfmt formats, validates, and queries JSON/JSONC/JSON5 documents.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/freexmltoolkit/xmlkit/jsonx"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "format":
		runFormat(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: jsonfmt format [-indent=2] <file>")
	fmt.Fprintln(os.Stderr, "       jsonfmt check <file>")
	fmt.Fprintln(os.Stderr, "       jsonfmt validate -schema=<schema.json> <file>")
	fmt.Fprintln(os.Stderr, "       jsonfmt query -path=<jsonpath> <file>")
	os.Exit(2)
}

func runFormat(argv []string) {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	indent := fs.Int("indent", 2, "spaces per indent level, 0 for minified output")
	fs.Parse(argv)

	if fs.NArg() != 1 {
		usage()
	}
	text := readFile(fs.Arg(0))

	out, err := jsonx.Format(text, *indent)
	if err != nil {
		log.Fatalf("formatting %s: %v", fs.Arg(0), err)
	}
	fmt.Println(out)
}

func runCheck(argv []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(argv)

	if fs.NArg() != 1 {
		usage()
	}
	path := fs.Arg(0)
	text := readFile(path)

	format := jsonx.DetectFormat(text)
	errs := jsonx.ValidateWellformed(text)
	if len(errs) == 0 {
		fmt.Printf("%s is well-formed %s\n", path, format)
		return
	}
	for _, e := range errs {
		fmt.Printf("%s:%d:%d: %s\n", path, e.Position.Line, e.Position.Column, e.Message)
	}
	os.Exit(1)
}

func runValidate(argv []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "JSON Schema file")
	fs.Parse(argv)

	if fs.NArg() != 1 || *schemaPath == "" {
		usage()
	}
	path := fs.Arg(0)
	text := readFile(path)
	schemaText := readFile(*schemaPath)

	errs, err := jsonx.ValidateAgainstSchema(text, schemaText)
	if err != nil {
		log.Fatalf("validating %s: %v", path, err)
	}
	if len(errs) == 0 {
		fmt.Printf("%s is valid against %s\n", path, *schemaPath)
		return
	}
	for _, e := range errs {
		fmt.Printf("%s: %s: %s\n", path, e.Path, e.Message)
	}
	os.Exit(1)
}

func runQuery(argv []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	query := fs.String("path", "$", "JSONPath expression")
	fs.Parse(argv)

	if fs.NArg() != 1 {
		usage()
	}
	text := readFile(fs.Arg(0))

	result, err := jsonx.ExecuteJSONPath(text, *query)
	if err != nil {
		log.Fatalf("querying %s: %v", fs.Arg(0), err)
	}
	fmt.Println(result)
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
