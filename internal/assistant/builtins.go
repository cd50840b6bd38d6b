package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smileynet/addrbook/internal/book"
	"github.com/smileynet/addrbook/internal/contact"
)

// RegisterBuiltins registers the address book commands on reg.
func RegisterBuiltins(reg *Registry) {
	reg.Register(Command{Name: "hello", Help: "greet the assistant", Run: hello})
	reg.Register(Command{Name: "add", Usage: "<name> <phone>", Help: "add a contact or another phone", Mutates: true, Run: addContact})
	reg.Register(Command{Name: "change", Usage: "<name> <old> <new>", Help: "replace a phone", Mutates: true, Run: changeContact})
	reg.Register(Command{Name: "remove-phone", Usage: "<name> <phone>", Help: "remove a phone", Mutates: true, Run: removePhone})
	reg.Register(Command{Name: "phone", Usage: "<name>", Help: "show a contact's phones", Run: showPhone})
	reg.Register(Command{Name: "all", Help: "list every contact", Run: showAll})
	reg.Register(Command{Name: "add-birthday", Usage: "<name> <DD.MM.YYYY>", Help: "set a birthday", Mutates: true, Run: addBirthday})
	reg.Register(Command{Name: "show-birthday", Usage: "<name>", Help: "show a birthday", Run: showBirthday})
	reg.Register(Command{Name: "birthdays", Usage: "[days]", Help: "list upcoming birthdays", Run: birthdays})
	reg.Register(Command{Name: "delete", Usage: "<name>", Help: "delete a contact", Mutates: true, Run: deleteContact})
	reg.Register(Command{Name: "help", Help: "list commands", Run: help})
	reg.Register(Command{Name: "close", Help: "save and leave", Exit: true, Run: goodbye})
	reg.Register(Command{Name: "exit", Help: "save and leave", Exit: true, Run: goodbye})
}

func hello(_ *Assistant, _ []string) (string, error) {
	return MsgGreeting, nil
}

func goodbye(_ *Assistant, _ []string) (string, error) {
	return MsgGoodbye, nil
}

func addContact(a *Assistant, args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("add", args)
	}
	name, phone := args[0], args[1]

	if r, ok := a.book.Find(name); ok {
		if err := r.AddPhone(phone); err != nil {
			return "", err
		}
		return MsgPhoneAdded, nil
	}

	r, err := contact.New(name)
	if err != nil {
		return "", err
	}
	if err := r.AddPhone(phone); err != nil {
		return "", err
	}
	a.book.AddRecord(r)
	return MsgContactAdded, nil
}

func changeContact(a *Assistant, args []string) (string, error) {
	if len(args) != 3 {
		return "", usage("change", args)
	}
	r, err := a.find(args[0])
	if err != nil {
		return "", err
	}
	if err := r.EditPhone(args[1], args[2]); err != nil {
		return "", err
	}
	return MsgContactUpdated, nil
}

func removePhone(a *Assistant, args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("remove-phone", args)
	}
	r, err := a.find(args[0])
	if err != nil {
		return "", err
	}
	if err := r.RemovePhone(args[1]); err != nil {
		return "", err
	}
	return MsgPhoneRemoved, nil
}

func showPhone(a *Assistant, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("phone", args)
	}
	r, err := a.find(args[0])
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func showAll(a *Assistant, _ []string) (string, error) {
	if a.book.Len() == 0 {
		return MsgNoContacts, nil
	}
	return a.book.String(), nil
}

func addBirthday(a *Assistant, args []string) (string, error) {
	if len(args) != 2 {
		return "", usage("add-birthday", args)
	}
	r, err := a.find(args[0])
	if err != nil {
		return "", err
	}
	if err := r.AddBirthday(args[1]); err != nil {
		return "", err
	}
	return MsgBirthdayAdded, nil
}

func showBirthday(a *Assistant, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("show-birthday", args)
	}
	r, err := a.find(args[0])
	if err != nil {
		return "", err
	}
	b, ok := r.Birthday()
	if !ok {
		return MsgNoBirthday, nil
	}
	return b.String(), nil
}

func birthdays(a *Assistant, args []string) (string, error) {
	days := a.days
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: birthdays: days %q is not a number", ErrUsage, args[0])
		}
		days = n
	default:
		return "", usage("birthdays", args)
	}

	upcoming, ok, err := a.book.UpcomingBirthdays(days)
	if err != nil {
		return "", err
	}
	if !ok {
		return MsgNoUpcoming, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Upcoming birthdays in %d days:", days)
	for _, u := range upcoming {
		fmt.Fprintf(&sb, "\n%s: %s", u.Name, u)
	}
	return sb.String(), nil
}

func deleteContact(a *Assistant, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("delete", args)
	}
	if err := a.book.Delete(args[0]); err != nil {
		return "", err
	}
	return MsgContactDeleted, nil
}

func help(a *Assistant, _ []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, name := range a.registry.Names() {
		c, _ := a.registry.Lookup(name)
		synopsis := strings.TrimSpace(c.Name + " " + c.Usage)
		fmt.Fprintf(&sb, "\n  %-34s %s", synopsis, c.Help)
	}
	return sb.String(), nil
}

// find looks up name, returning book.ErrContactNotFound on a miss.
func (a *Assistant) find(name string) (*contact.Record, error) {
	r, ok := a.book.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", book.ErrContactNotFound, name)
	}
	return r, nil
}

func usage(cmd string, args []string) error {
	return fmt.Errorf("%w: %s takes different arguments, got %d", ErrUsage, cmd, len(args))
}
