// Package assistant turns text commands into address book operations and
// renders the one-line replies shown to the user.
package assistant

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/smileynet/addrbook/internal/book"
	"github.com/smileynet/addrbook/internal/contact"
)

// Reply messages.
const (
	MsgGreeting        = "How can I help you?"
	MsgGoodbye         = "Good-bye!"
	MsgContactAdded    = "Contact added."
	MsgPhoneAdded      = "Phone added to record."
	MsgContactUpdated  = "Contact updated."
	MsgContactDeleted  = "Contact deleted."
	MsgPhoneRemoved    = "Phone removed."
	MsgBirthdayAdded   = "Birthday added to record."
	MsgNoBirthday      = "No birthday set."
	MsgNoContacts      = "No contacts saved."
	MsgNoUpcoming      = "No upcoming birthdays."
	MsgNeedArgument    = "Enter the argument for the command."
	MsgContactNotFound = "Contact not found."
	MsgPhoneNotFound   = "Phone number not found."
	MsgInvalidPhone    = "Invalid phone number format. Must have 10 digits."
	MsgInvalidDate     = "Invalid date format. Use DD.MM.YYYY"
	MsgInvalidArgument = "Invalid argument."
	MsgInvalidCommand  = "Invalid command."
)

// ErrUsage reports a wrong number or shape of command arguments.
var ErrUsage = errors.New("assistant: wrong arguments")

// Reply is the outcome of one command line.
type Reply struct {
	Text string
	Exit bool  // the user asked to leave
	Err  error // non-nil when the command failed; Text holds its message
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = l
	}
}

// WithUpcomingDays sets the window used by "birthdays" without an argument.
func WithUpcomingDays(days int) Option {
	return func(a *Assistant) {
		a.days = days
	}
}

// WithRegistry replaces the built-in command set.
func WithRegistry(r *Registry) Option {
	return func(a *Assistant) {
		a.registry = r
	}
}

// Assistant dispatches command lines against a Directory.
// It is not safe for concurrent use.
type Assistant struct {
	book     *book.Directory
	registry *Registry
	logger   *slog.Logger
	days     int
	dirty    bool
}

// New creates an Assistant over d with the built-in commands registered.
func New(d *book.Directory, opts ...Option) *Assistant {
	a := &Assistant{
		book:   d,
		logger: slog.New(slog.DiscardHandler),
		days:   book.DefaultUpcomingDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = NewRegistry()
		RegisterBuiltins(a.registry)
	}
	return a
}

// Directory returns the directory the assistant operates on.
func (a *Assistant) Directory() *book.Directory {
	return a.book
}

// Dirty reports whether a command changed the directory since the last
// MarkSaved.
func (a *Assistant) Dirty() bool {
	return a.dirty
}

// MarkSaved clears the dirty flag after the directory has been persisted.
func (a *Assistant) MarkSaved() {
	a.dirty = false
}

// ParseInput splits a line into a lower-cased command word and its
// arguments. An empty line yields an empty command.
func ParseInput(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// Handle runs one command line.
func (a *Assistant) Handle(line string) Reply {
	name, args := ParseInput(line)
	if name == "" {
		return Reply{}
	}
	return a.Exec(name, args...)
}

// Exec runs a command by name with already split arguments.
func (a *Assistant) Exec(name string, args ...string) Reply {
	cmd, err := a.registry.Lookup(name)
	if err != nil {
		a.logger.Info("unknown command", "command", name)
		return Reply{Text: MsgInvalidCommand, Err: err}
	}

	a.logger.Debug("command", "command", cmd.Name, "args", len(args))
	text, err := cmd.Run(a, args)
	if err != nil {
		a.logger.Info("command failed", "command", cmd.Name, "err", err)
		return Reply{Text: Describe(err), Err: err}
	}
	if cmd.Mutates {
		a.dirty = true
	}
	return Reply{Text: text, Exit: cmd.Exit}
}

// Describe maps an error to the one-line message shown to the user.
func Describe(err error) string {
	var unknown *UnknownCommandError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUsage):
		return MsgNeedArgument
	case errors.As(err, &unknown):
		return MsgInvalidCommand
	case errors.Is(err, book.ErrContactNotFound):
		return MsgContactNotFound
	case errors.Is(err, contact.ErrPhoneNotFound):
		return MsgPhoneNotFound
	case errors.Is(err, contact.ErrInvalidPhone):
		return MsgInvalidPhone
	case errors.Is(err, contact.ErrInvalidDate):
		return MsgInvalidDate
	case errors.Is(err, contact.ErrInvalidArgument):
		return MsgInvalidArgument
	default:
		return err.Error()
	}
}
