package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/smileynet/addrbook/internal/assistant"
	"github.com/smileynet/addrbook/internal/contact"
	"github.com/smileynet/addrbook/internal/store"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

// isolate points HOME at an empty directory and clears env overrides so the
// user's real config never leaks into a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ADDRBOOK_FILE", "")
	t.Setenv("ADDRBOOK_BIRTHDAY_DAYS", "")
	t.Setenv("ADDRBOOK_LOG_LEVEL", "")
}

func newParser(t *testing.T, cli *CLI, opts ...kong.Option) *kong.Kong {
	t.Helper()
	opts = append([]kong.Option{kong.Vars{"version": "test"}, kong.Bind(&cli.Globals)}, opts...)
	k, err := kong.New(cli, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestCLI_Parse(t *testing.T) {
	t.Run("version flag prints version commit and date", func(t *testing.T) {
		// Given: a CLI parser with version, commit, and date fields
		var cli CLI
		var buf bytes.Buffer
		versionStr := "v1.0.0 abc1234 2026-01-01T00:00:00Z"
		k, err := kong.New(&cli,
			kong.Vars{"version": versionStr},
			kong.Writers(&buf, &buf),
			kong.Exit(func(int) { panic(errExitCalled) }),
		)
		if err != nil {
			t.Fatal(err)
		}

		// When: --version flag is passed
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic from --version flag")
			}
			err, ok := r.(error)
			if !ok || !errors.Is(err, errExitCalled) {
				panic(r)
			}

			// Then: version, commit, and date are all present in output
			output := buf.String()
			for _, want := range []string{"v1.0.0", "abc1234", "2026-01-01T00:00:00Z"} {
				if !strings.Contains(output, want) {
					t.Errorf("version output = %q, want to contain %q", output, want)
				}
			}
		}()

		k.Parse([]string{"--version"}) //nolint:errcheck // --version triggers panic via Exit hook
	})

	t.Run("no args selects chat", func(t *testing.T) {
		var cli CLI
		k := newParser(t, &cli)

		kctx, err := k.Parse([]string{})
		if err != nil {
			t.Fatal(err)
		}
		if kctx.Command() != "chat" {
			t.Errorf("got command %q, want %q", kctx.Command(), "chat")
		}
	})

	t.Run("global flags", func(t *testing.T) {
		var cli CLI
		k := newParser(t, &cli)

		_, err := k.Parse([]string{"--file", "/tmp/book.yaml", "--log-level", "debug", "--plain", "all"})
		if err != nil {
			t.Fatal(err)
		}
		if cli.File != "/tmp/book.yaml" {
			t.Errorf("File = %q, want %q", cli.File, "/tmp/book.yaml")
		}
		if cli.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cli.LogLevel)
		}
		if !cli.Plain {
			t.Error("Plain = false, want true")
		}
	})

	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "add",
			args:    []string{"add", "Ann", "0501234567"},
			command: "add <name> <phone>",
			check: func(t *testing.T, cli *CLI) {
				if cli.Add.Name != "Ann" || cli.Add.Phone != "0501234567" {
					t.Errorf("Add = %+v", cli.Add)
				}
			},
		},
		{
			name:    "change",
			args:    []string{"change", "Ann", "0501234567", "0509999999"},
			command: "change <name> <old> <new>",
			check: func(t *testing.T, cli *CLI) {
				if cli.Change.Old != "0501234567" || cli.Change.New != "0509999999" {
					t.Errorf("Change = %+v", cli.Change)
				}
			},
		},
		{
			name:    "add-birthday",
			args:    []string{"add-birthday", "Ann", "13.06.1990"},
			command: "add-birthday <name> <date>",
			check: func(t *testing.T, cli *CLI) {
				if cli.AddBirthday.Date != "13.06.1990" {
					t.Errorf("AddBirthday = %+v", cli.AddBirthday)
				}
			},
		},
		{
			name:    "birthdays without days",
			args:    []string{"birthdays"},
			command: "birthdays",
			check: func(t *testing.T, cli *CLI) {
				if got := cli.Birthdays.args(); got != nil {
					t.Errorf("args() = %v, want nil", got)
				}
			},
		},
		{
			name:    "birthdays with days",
			args:    []string{"birthdays", "30"},
			command: "birthdays <days>",
			check: func(t *testing.T, cli *CLI) {
				if got := cli.Birthdays.args(); len(got) != 1 || got[0] != "30" {
					t.Errorf("args() = %v, want [30]", got)
				}
			},
		},
		{
			name:    "remove-phone",
			args:    []string{"remove-phone", "Ann", "0501234567"},
			command: "remove-phone <name> <phone>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cli CLI
			k := newParser(t, &cli)

			kctx, err := k.Parse(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if kctx.Command() != tt.command {
				t.Errorf("got command %q, want %q", kctx.Command(), tt.command)
			}
			if tt.check != nil {
				tt.check(t, &cli)
			}
		})
	}

	t.Run("add requires a phone", func(t *testing.T) {
		var cli CLI
		k := newParser(t, &cli)

		if _, err := k.Parse([]string{"add", "Ann"}); err == nil {
			t.Fatal("expected error for missing phone")
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitSuccess},
		{name: "command error", err: &CommandError{Command: "phone", Message: "Contact not found."}, want: exitCommand},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("outer: %w", &CommandError{Command: "add", Err: contact.ErrInvalidFormat}),
			want: exitCommand,
		},
		{name: "corrupt store", err: fmt.Errorf("chat: %w", store.ErrCorrupt), want: exitSetup},
		{name: "other", err: errors.New("config: boom"), want: exitSetup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunCommand_PersistsChanges(t *testing.T) {
	// Given: an isolated environment and a fresh data file path
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")
	g := &Globals{File: path}

	// When: a contact is added and a birthday set through one-shot commands
	var out bytes.Buffer
	if err := runCommand(&out, &out, g, "add", "Ann", "0501234567"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := runCommand(&out, &out, g, "add-birthday", "Ann", "13.06.1990"); err != nil {
		t.Fatalf("add-birthday: %v", err)
	}

	// Then: a later process reads them back
	out.Reset()
	if err := runCommand(&out, &out, g, "phone", "Ann"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if got := out.String(); got != "Contact name: Ann, phones: 0501234567\n" {
		t.Errorf("phone output = %q", got)
	}

	d, err := store.NewFileStore(path, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	r, ok := d.Find("Ann")
	if !ok {
		t.Fatal("Ann missing from saved file")
	}
	if b, ok := r.Birthday(); !ok || b.String() != "13.06.1990" {
		t.Errorf("birthday = %v, %v", b, ok)
	}
}

func TestRunCommand_ReadOnlyDoesNotWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")

	var out bytes.Buffer
	if err := runCommand(&out, &out, &Globals{File: path}, "all"); err != nil {
		t.Fatal(err)
	}

	if out.String() != assistant.MsgNoContacts+"\n" {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("read-only command created %s (err = %v)", path, err)
	}
}

func TestRunCommand_Failure(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")

	var out bytes.Buffer
	err := runCommand(&out, &out, &Globals{File: path}, "add", "Ann", "123")

	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if ce.Message != assistant.MsgInvalidPhone {
		t.Errorf("Message = %q, want %q", ce.Message, assistant.MsgInvalidPhone)
	}
	if !errors.Is(err, contact.ErrInvalidFormat) {
		t.Errorf("error should unwrap to ErrInvalidFormat: %v", err)
	}
	if exitCode(err) != exitCommand {
		t.Errorf("exitCode = %d, want %d", exitCode(err), exitCommand)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("failed command should not write the data file")
	}
}

func TestRunCommand_CorruptFileIsSetupError(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")
	if err := os.WriteFile(path, []byte("version: 99\ncontacts: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := runCommand(&bytes.Buffer{}, &bytes.Buffer{}, &Globals{File: path}, "all")

	if !errors.Is(err, store.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if exitCode(err) != exitSetup {
		t.Errorf("exitCode = %d, want %d", exitCode(err), exitSetup)
	}
}

func TestLoadConfig_Layers(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	extra := filepath.Join(dir, "extra.yaml")
	content := "storage:\n  path: from-config.yaml\nbirthdays:\n  days: 14\nui:\n  prompt: \"> \"\n"
	if err := os.WriteFile(extra, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("config file layer", func(t *testing.T) {
		cfg, err := loadConfig(&Globals{Config: extra})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Storage.Path != "from-config.yaml" || cfg.Birthdays.Days != 14 || cfg.UI.Prompt != "> " {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("ADDRBOOK_BIRTHDAY_DAYS", "3")
		cfg, err := loadConfig(&Globals{Config: extra})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Birthdays.Days != 3 {
			t.Errorf("Days = %d, want 3", cfg.Birthdays.Days)
		}
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("ADDRBOOK_FILE", "from-env.yaml")
		cfg, err := loadConfig(&Globals{Config: extra, File: "from-flag.yaml", LogLevel: "debug", Plain: true})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Storage.Path != "from-flag.yaml" {
			t.Errorf("Path = %q, want from-flag.yaml", cfg.Storage.Path)
		}
		if cfg.Log.Level != "debug" || !cfg.UI.Plain {
			t.Errorf("Log.Level = %q, UI.Plain = %v", cfg.Log.Level, cfg.UI.Plain)
		}
	})

	t.Run("invalid flag value fails validation", func(t *testing.T) {
		if _, err := loadConfig(&Globals{LogLevel: "loud"}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestRunChat_SavesOnExit(t *testing.T) {
	// Given: a scripted plain session
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")
	in := strings.NewReader("add Ann 0501234567\nadd-birthday Ann 13.06.1990\nexit\n")
	var out bytes.Buffer

	// When: the chat runs to completion
	if err := runChat(context.Background(), in, &out, &out, &Globals{File: path, Plain: true}); err != nil {
		t.Fatalf("runChat: %v", err)
	}

	// Then: the transcript shows the replies and the file holds the contact
	for _, want := range []string{assistant.MsgContactAdded, assistant.MsgBirthdayAdded, assistant.MsgGoodbye} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("transcript missing %q:\n%s", want, out.String())
		}
	}
	d, err := store.NewFileStore(path, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Find("Ann"); !ok {
		t.Error("Ann missing from saved file")
	}
}

func TestRunChat_SavesOnEOF(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")

	err := runChat(context.Background(), strings.NewReader("add Bob 0931234567\n"), &bytes.Buffer{}, &bytes.Buffer{}, &Globals{File: path, Plain: true})
	if err != nil {
		t.Fatalf("runChat: %v", err)
	}

	d, err := store.NewFileStore(path, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Find("Bob"); !ok {
		t.Error("Bob missing from saved file")
	}
}

func TestRunChat_CancelledIsClean(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "book.yaml")

	// A cancelled chat with no changes returns cleanly and leaves the file alone.
	if err := runCommand(&bytes.Buffer{}, &bytes.Buffer{}, &Globals{File: path}, "add", "Ann", "0501234567"); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runChat(ctx, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}, &Globals{File: path, Plain: true}); err != nil {
		t.Fatalf("runChat after cancel: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("unchanged directory should not be rewritten")
	}
}
