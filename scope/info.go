package scope

// Command is one visible command, as a scope listing shows it.
type Command struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Usage       string   `json:"usage,omitempty" yaml:"usage,omitempty"`
	Signature   string   `json:"signature" yaml:"signature"`
	Overlay     string   `json:"overlay" yaml:"overlay"`
	SearchTerms []string `json:"search_terms,omitempty" yaml:"search_terms,omitempty"`
}

// Alias is one visible alias and the text it expands to.
type Alias struct {
	Name      string `json:"name" yaml:"name"`
	Expansion string `json:"expansion" yaml:"expansion"`
	Usage     string `json:"usage,omitempty" yaml:"usage,omitempty"`
	Overlay   string `json:"overlay" yaml:"overlay"`
}

// Extern is one visible extern signature.
type Extern struct {
	Name      string `json:"name" yaml:"name"`
	Usage     string `json:"usage,omitempty" yaml:"usage,omitempty"`
	Signature string `json:"signature" yaml:"signature"`
	Overlay   string `json:"overlay" yaml:"overlay"`
}

// Module is one visible module with the names it exports.
type Module struct {
	Name        string   `json:"name" yaml:"name"`
	Commands    []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	Submodules  []string `json:"submodules,omitempty" yaml:"submodules,omitempty"`
	HasEnvBlock bool     `json:"has_env_block" yaml:"has_env_block"`
	Usage       string   `json:"usage,omitempty" yaml:"usage,omitempty"`
	Overlay     string   `json:"overlay" yaml:"overlay"`
}

// Variable is one visible variable binding. Overlay is empty for bindings
// that only exist on the stack.
type Variable struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
	Mutable bool   `json:"mutable" yaml:"mutable"`
	Overlay string `json:"overlay,omitempty" yaml:"overlay,omitempty"`
}
