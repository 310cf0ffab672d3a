package registry

import "sort"

// Handler runs when its command name is entered. A non-nil error is
// reported to the operator verbatim.
type Handler func() error

// Command binds a name to a handler and its help text.
type Command struct {
	Name     string
	HelpText string
	Handler  Handler
}

// Registry stores commands by exact name.
type Registry struct {
	items map[string]Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Command)}
}

// Register stores a command, replacing any prior entry with the same name.
func (r *Registry) Register(name, helpText string, handler Handler) {
	r.items[name] = Command{Name: name, HelpText: helpText, Handler: handler}
}

// Lookup returns the command registered under name. Matching is exact and
// case-sensitive.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.items[name]
	return cmd, ok
}

// List returns every command ordered alphabetically by name.
func (r *Registry) List() []Command {
	list := make([]Command, 0, len(r.items))
	for _, cmd := range r.items {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func (r *Registry) Len() int {
	return len(r.items)
}
