package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Format names accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists every supported format.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// document is the serialized form of a report.
type document struct {
	ID       string        `json:"id" yaml:"id"`
	Started  time.Time     `json:"started" yaml:"started"`
	Summary  string        `json:"summary" yaml:"summary"`
	Warnings int           `json:"warnings" yaml:"warnings"`
	Errors   int           `json:"errors" yaml:"errors"`
	Stages   []StagePasses `json:"stages" yaml:"stages"`
	Jobs     []Outcome     `json:"jobs" yaml:"jobs"`
}

// Document returns the report in its serializable shape.
func (r *Report) Document() any {
	return r.document()
}

func (r *Report) document() document {
	return document{
		ID:       r.ID,
		Started:  r.Started,
		Summary:  r.Summary(),
		Warnings: r.Warnings,
		Errors:   r.Errors,
		Stages:   r.Stages(),
		Jobs:     r.Outcomes(),
	}
}

// Write renders the report to w in the given format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatTable, "":
		return r.WriteTable(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatYAML:
		return r.WriteYAML(w)
	}
	return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// WriteTable renders one row per job followed by the summary and the logs
// of failed jobs.
func (r *Report) WriteTable(w io.Writer) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Stage", "Job", "Asset", "State", "Attempts", "Warnings", "Errors", "Cause"})
	for _, o := range r.outcomes {
		tw.AppendRow(table.Row{o.Stage, o.Job, o.Asset, o.State, o.Attempts, o.Warnings, o.Errors, o.Cause})
	}
	tw.Render()
	if _, err := fmt.Fprintln(w, r.Summary()); err != nil {
		return err
	}

	for _, o := range r.Failed() {
		if _, err := fmt.Fprintf(w, "\n[%s] %s\n", o.Job, o.State); err != nil {
			return err
		}
		for _, e := range o.Log {
			if _, err := fmt.Fprintf(w, "  %-5s %s\n", e.Level, e.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.document())
}

// WriteYAML renders the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.document()); err != nil {
		return err
	}
	return enc.Close()
}
