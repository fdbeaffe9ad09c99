package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyiltiz/nushell/engine"
	"github.com/hyiltiz/nushell/scope"
)

var (
	scopeKind string
	scopeJSON bool
	scopeYAML bool
)

var scopeCmd = &cobra.Command{
	Use:   "scope [script.nu ...]",
	Short: "List everything the session scope can see",
	Long: `scope loads the standard library, sources any scripts given as arguments,
and lists the commands, aliases, externs, modules and variables the resulting
session exposes. Overlays contribute oldest first; names defined later shadow
earlier ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		es, err := newSession()
		if err != nil {
			return err
		}
		for _, script := range args {
			if err := sourceScript(es, script); err != nil {
				return err
			}
		}
		return renderScope(cmd.OutOrStdout(), es, engine.NewStack())
	},
}

func init() {
	scopeCmd.Flags().StringVar(&scopeKind, "kind", "all",
		"Restrict the listing: commands, aliases, externs, modules or variables")
	scopeCmd.Flags().BoolVar(&scopeJSON, "json", false, "Emit the scope as JSON")
	scopeCmd.Flags().BoolVar(&scopeYAML, "yaml", false, "Emit the scope as YAML")
	AddCommand(scopeCmd)
}

type scopeReport struct {
	Overlays  []string         `json:"overlays" yaml:"overlays"`
	Commands  []scope.Command  `json:"commands,omitempty" yaml:"commands,omitempty"`
	Aliases   []scope.Alias    `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Externs   []scope.Extern   `json:"externs,omitempty" yaml:"externs,omitempty"`
	Modules   []scope.Module   `json:"modules,omitempty" yaml:"modules,omitempty"`
	Variables []scope.Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
}

func collectReport(es *engine.EngineState, stack *engine.Stack, kind string) (*scopeReport, error) {
	switch kind {
	case "all", "commands", "aliases", "externs", "modules", "variables":
	default:
		return nil, fmt.Errorf("unknown scope kind %q", kind)
	}
	c := scope.New(es, stack)
	c.PopulateAll()

	want := func(k string) bool { return kind == "all" || kind == k }
	rep := &scopeReport{Overlays: es.ActiveOverlayNames()}
	if want("commands") {
		rep.Commands = c.CollectCommands(context.Background())
	}
	if want("aliases") {
		rep.Aliases = c.Aliases()
	}
	if want("externs") {
		rep.Externs = c.Externs()
	}
	if want("modules") {
		rep.Modules = c.Modules()
	}
	if want("variables") {
		rep.Variables = c.Variables()
	}
	return rep, nil
}

func renderScope(w io.Writer, es *engine.EngineState, stack *engine.Stack) error {
	rep, err := collectReport(es, stack, scopeKind)
	if err != nil {
		return err
	}
	switch {
	case scopeJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case scopeYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("overlays:"), strings.Join(rep.Overlays, ", "))
	FormatCommands(w, rep.Commands)
	FormatAliases(w, rep.Aliases)
	FormatExterns(w, rep.Externs)
	FormatModules(w, rep.Modules)
	FormatVariables(w, rep.Variables)
	return nil
}
