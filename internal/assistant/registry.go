package assistant

import (
	"fmt"
	"sort"
	"strings"
)

// Handler runs one command against the assistant's directory and returns
// the reply text.
type Handler func(a *Assistant, args []string) (string, error)

// Command describes a registered command.
type Command struct {
	Name    string
	Usage   string // argument synopsis, e.g. "<name> <phone>"
	Help    string
	Mutates bool // successful runs mark the directory dirty
	Exit    bool // ends the session
	Run     Handler
}

// Registry maps command words to commands.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Overwrites if the name already exists.
// Panics if the name is empty or Run is nil (programmer error).
func (r *Registry) Register(c Command) {
	if c.Name == "" {
		panic("assistant: Register called with empty name")
	}
	if c.Run == nil {
		panic("assistant: Register called with nil handler")
	}
	r.commands[strings.ToLower(c.Name)] = c
}

// Lookup returns the command registered under name (case-insensitive).
func (r *Registry) Lookup(name string) (Command, error) {
	c, ok := r.commands[strings.ToLower(name)]
	if !ok {
		return Command{}, &UnknownCommandError{
			Name:      name,
			Available: r.Names(),
		}
	}
	return c, nil
}

// Names returns registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownCommandError indicates a command word is not registered.
type UnknownCommandError struct {
	Name      string
	Available []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
