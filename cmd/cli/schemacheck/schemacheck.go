// Package schemacheck implements the command that validates an inspection schema document.
package schemacheck

import (
	"fmt"
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"os"
)

var Group = &cobra.Group{
	ID:    "schema",
	Title: "Inspection schema",
}

// ErrProblems is returned in strict mode when the schema has diagnostics.
var ErrProblems = errors.NewSentinel("schema has problems")

func init() {
	Check.Flags().String("output", "text", "report format: text or yaml")
	Check.Flags().Bool("strict", false, "fail when the schema has diagnostics")
}

var Check = &cobra.Command{
	Use:     "check <file>",
	GroupID: "schema",
	Short:   "Check an inspection schema",
	Long: `Loads the schema document the same way the web application does and reports the field problems that the
application tolerates at runtime: dangling conditionals, empty option lists, duplicate keys or labels and unknown
field types.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return errors.Wrap(err, "get output flag")
		}
		strict, err := cmd.Flags().GetBool("strict")
		if err != nil {
			return errors.Wrap(err, "get strict flag")
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read schema file", slog.String("path", args[0]))
		}
		s, err := schema.Load(raw)
		if err != nil {
			return errors.Wrap(err, "load schema", slog.String("path", args[0]))
		}

		r := newReport(args[0], s)
		switch output {
		case "yaml":
			err = writeYAML(cmd.OutOrStdout(), r)
		case "text":
			err = writeText(cmd.OutOrStdout(), r)
		default:
			return errors.New("unknown output format", slog.String("output", output))
		}
		if err != nil {
			return err
		}
		if strict && len(r.Diagnostics) > 0 {
			return errors.Wrap(ErrProblems, "check schema", slog.Int("diagnostics", len(r.Diagnostics)))
		}
		return nil
	},
}

type report struct {
	File        string              `yaml:"file"`
	Sectors     int                 `yaml:"sectors"`
	Processes   int                 `yaml:"processes"`
	Fields      int                 `yaml:"fields"`
	Rules       int                 `yaml:"rules"`
	Diagnostics []schema.Diagnostic `yaml:"diagnostics"`
}

func newReport(file string, s *schema.Schema) report {
	r := report{
		File:        file,
		Sectors:     len(s.Sectors),
		Processes:   0,
		Fields:      0,
		Rules:       len(s.Rules),
		Diagnostics: s.Diagnostics(),
	}
	for i := range s.Sectors {
		r.Processes += len(s.Sectors[i].Processes)
		for j := range s.Sectors[i].Processes {
			r.Fields += len(s.Sectors[i].Processes[j].Fields)
		}
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []schema.Diagnostic{}
	}
	return r
}

func writeYAML(w io.Writer, r report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd // two spaces
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encode yaml report")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "close yaml encoder")
	}
	return nil
}

func writeText(w io.Writer, r report) error {
	if _, err := fmt.Fprintf(w, "%s: %d sectors, %d processes, %d fields, %d validity rules\n",
		r.File, r.Sectors, r.Processes, r.Fields, r.Rules); err != nil {
		return errors.Wrap(err, "write summary")
	}
	for _, d := range r.Diagnostics {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return errors.Wrap(err, "write diagnostic")
		}
	}
	return nil
}
