package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/smileynet/addrbook/internal/assistant"
	"github.com/smileynet/addrbook/internal/config"
	"github.com/smileynet/addrbook/internal/logging"
	"github.com/smileynet/addrbook/internal/store"
	"github.com/smileynet/addrbook/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals holds flags shared by every command.
type Globals struct {
	File     string `help:"Address book file (overrides storage.path)." short:"f" type:"path"`
	Config   string `help:"Extra config file layered over the user and project configs." type:"path"`
	LogLevel string `help:"Log level: debug, info, warn, error."`
	Plain    bool   `help:"Force the plain line prompt even if stdout is a TTY."`
}

// CLI is the top-level command structure for addrbook.
type CLI struct {
	Globals

	Version      kong.VersionFlag `help:"Show version." short:"V"`
	Chat         ChatCmd          `cmd:"" default:"1" help:"Start an interactive session (default)."`
	Add          AddCmd           `cmd:"" help:"Add a contact, or another phone to an existing one."`
	Change       ChangeCmd        `cmd:"" help:"Replace one of a contact's phones."`
	Phone        PhoneCmd         `cmd:"" help:"Show a contact's phones."`
	All          AllCmd           `cmd:"" help:"List every contact."`
	AddBirthday  AddBirthdayCmd   `cmd:"" name:"add-birthday" help:"Set a contact's birthday."`
	ShowBirthday ShowBirthdayCmd  `cmd:"" name:"show-birthday" help:"Show a contact's birthday."`
	Birthdays    BirthdaysCmd     `cmd:"" help:"List birthdays in the coming days."`
	Delete       DeleteCmd        `cmd:"" help:"Delete a contact."`
	RemovePhone  RemovePhoneCmd   `cmd:"" name:"remove-phone" help:"Remove one of a contact's phones."`
}

// ChatCmd runs the interactive session.
type ChatCmd struct{}

// Run executes the chat command.
func (c *ChatCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runChat(ctx, os.Stdin, os.Stdout, os.Stderr, g)
}

// AddCmd adds a contact or appends a phone.
type AddCmd struct {
	Name  string `arg:"" help:"Contact name."`
	Phone string `arg:"" help:"Ten-digit phone number."`
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "add", c.Name, c.Phone)
}

// ChangeCmd replaces a phone.
type ChangeCmd struct {
	Name string `arg:"" help:"Contact name."`
	Old  string `arg:"" help:"Phone to replace."`
	New  string `arg:"" help:"Replacement phone."`
}

// Run executes the change command.
func (c *ChangeCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "change", c.Name, c.Old, c.New)
}

// PhoneCmd shows a contact.
type PhoneCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// Run executes the phone command.
func (c *PhoneCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "phone", c.Name)
}

// AllCmd lists the directory.
type AllCmd struct{}

// Run executes the all command.
func (c *AllCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "all")
}

// AddBirthdayCmd sets a birthday.
type AddBirthdayCmd struct {
	Name string `arg:"" help:"Contact name."`
	Date string `arg:"" help:"Birthday as DD.MM.YYYY."`
}

// Run executes the add-birthday command.
func (c *AddBirthdayCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "add-birthday", c.Name, c.Date)
}

// ShowBirthdayCmd shows a birthday.
type ShowBirthdayCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// Run executes the show-birthday command.
func (c *ShowBirthdayCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "show-birthday", c.Name)
}

// BirthdaysCmd lists upcoming birthdays.
type BirthdaysCmd struct {
	Days string `arg:"" optional:"" help:"Window length in days (default: birthdays.days from config)."`
}

// Run executes the birthdays command.
func (c *BirthdaysCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "birthdays", c.args()...)
}

func (c *BirthdaysCmd) args() []string {
	if c.Days == "" {
		return nil
	}
	return []string{c.Days}
}

// DeleteCmd removes a contact.
type DeleteCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "delete", c.Name)
}

// RemovePhoneCmd removes a phone.
type RemovePhoneCmd struct {
	Name  string `arg:"" help:"Contact name."`
	Phone string `arg:"" help:"Phone to remove."`
}

// Run executes the remove-phone command.
func (c *RemovePhoneCmd) Run(g *Globals) error {
	return runCommand(os.Stdout, os.Stderr, g, "remove-phone", c.Name, c.Phone)
}

// CommandError reports a command the assistant rejected.
type CommandError struct {
	Command string
	Message string // reply shown to the user
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// loadConfig loads layered config from user, project and flag paths, then
// applies env and flag overrides.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/addrbook/config.yaml"),
		".addrbook/config.yaml",
		g.Config,
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Apply CLI flag overrides.
	if g.File != "" {
		cfg.Storage.Path = g.File
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.Plain {
		cfg.UI.Plain = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is an assistant wired to its config, logger and store.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	closeLog  func() error
	store     *store.FileStore
	assistant *assistant.Assistant
}

// setup loads config and the address book. stderr receives log output
// unless log.file says otherwise.
func setup(g *Globals, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	logger, closeLog := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, stderr)

	fs := store.NewFileStore(cfg.Storage.Path, logger)
	dir, err := fs.Load()
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	a := assistant.New(dir,
		assistant.WithLogger(logger),
		assistant.WithUpcomingDays(cfg.Birthdays.Days),
	)
	return &app{cfg: cfg, logger: logger, closeLog: closeLog, store: fs, assistant: a}, nil
}

// save persists the directory if a command changed it.
func (a *app) save() error {
	if !a.assistant.Dirty() {
		return nil
	}
	if err := a.store.Save(a.assistant.Directory()); err != nil {
		return err
	}
	a.assistant.MarkSaved()
	return nil
}

func (a *app) close() {
	_ = a.closeLog()
}

// runCommand executes one command and saves any change.
func runCommand(w, stderr io.Writer, g *Globals, name string, args ...string) error {
	a, err := setup(g, stderr)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer a.close()

	reply := a.assistant.Exec(name, args...)
	if reply.Err != nil {
		return &CommandError{Command: name, Message: reply.Text, Err: reply.Err}
	}
	_, _ = fmt.Fprintln(w, reply.Text)

	if err := a.save(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// runChat runs an interactive session and saves on the way out, including
// after an interrupt.
func runChat(ctx context.Context, in io.Reader, w, stderr io.Writer, g *Globals) error {
	a, err := setup(g, stderr)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	defer a.close()

	session := tui.NewSession(a.assistant, tui.SessionOptions{
		In:         in,
		Out:        w,
		ForcePlain: a.cfg.UI.Plain,
		Prompt:     a.cfg.UI.Prompt,
	})
	runErr := session.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		a.logger.Info("session interrupted")
		runErr = nil
	}

	if err := a.save(); err != nil {
		return errors.Join(runErr, fmt.Errorf("chat: %w", err))
	}
	if runErr != nil {
		return fmt.Errorf("chat: %w", runErr)
	}
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitCommand = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return exitCommand
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("addrbook"),
		kong.Description("A personal address book with birthday reminders."),
		kong.Vars{"version": version + " " + commit + " " + date},
		kong.Bind(&cli.Globals),
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
