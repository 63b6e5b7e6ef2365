package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/export"
	"github.com/itacpc/teams/internal/university"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

var migrateCommands = []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"}

type commandLine struct {
	stdout io.Writer
	stderr io.Writer
	open   func(ctx context.Context) (backend, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stderr, "Usage: teamsctl COMMAND [OPTIONS]")
	fmt.Fprintln(cli.stderr, "")
	fmt.Fprintln(cli.stderr, "Commands:")
	fmt.Fprintln(cli.stderr, "  migrate up|down|status|...          run database migrations")
	fmt.Fprintln(cli.stderr, "  seed-universities -file FILE        create or update universities from a YAML file")
	fmt.Fprintln(cli.stderr, "  create-superuser -email EMAIL ...   create a staff account, the password is prompted")
	fmt.Fprintln(cli.stderr, "  export -dataset NAME [-o FILE]      write a judging-system export")
	fmt.Fprintln(cli.stderr, "  issue-credentials                   give judge credentials to team members without one")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx, args[2:])
	case "seed-universities":
		return cli.seedUniversities(ctx, args[2:])
	case "create-superuser":
		return cli.createSuperuser(ctx, args[2:])
	case "export":
		return cli.export(ctx, args[2:])
	case "issue-credentials":
		return cli.issueCredentials(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.stderr)
	return fs
}

// parse parses args and maps -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(cli.stderr, "Usage: teamsctl migrate %s [VERSION]\n", strings.Join(migrateCommands, "|"))
		return errHelp
	}
	if !slices.Contains(migrateCommands, args[0]) {
		return fmt.Errorf("%q: no such migrate command", args[0])
	}

	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.Migrate(ctx, args[0], args[1:]...)
}

func (cli *commandLine) seedUniversities(ctx context.Context, args []string) error {
	fs := cli.flagSet("seed-universities")
	file := fs.String("file", "", "YAML file listing the universities")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errHelp
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	unis, err := university.LoadSeed(f)
	if err != nil {
		return err
	}

	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := b.SeedUniversities(ctx, unis)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "%d universities seeded\n", n)
	return nil
}

func (cli *commandLine) createSuperuser(ctx context.Context, args []string) error {
	fs := cli.flagSet("create-superuser")
	email := fs.String("email", "", "email address, used to log in")
	uni := fs.String("university", university.OtherShortName, "short name of the university of the account")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *firstName == "" || *lastName == "" {
		fs.Usage()
		return errHelp
	}

	password, err := cli.promptPassword()
	if err != nil {
		return err
	}

	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.CreateSuperuser(ctx, auth.Superuser{
		UniversityShortName: *uni,
		FirstName:           *firstName,
		LastName:            *lastName,
		Email:               *email,
		Password:            password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "superuser %s created (%s)\n", st.Email, st.ID)
	return nil
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.stderr, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(cli.stderr, "Repeat password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.stderr)
	if err != nil {
		return "", err
	}

	if string(pwd) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	if len(pwd) < auth.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters long", auth.MinPasswordLength)
	}
	return string(pwd), nil
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.flagSet("export")
	dataset := fs.String("dataset", "", "one of "+strings.Join(export.Datasets, ", "))
	output := fs.String("o", "", "output file, standard output when empty")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *dataset == "" {
		fs.Usage()
		return errHelp
	}
	if !slices.Contains(export.Datasets, *dataset) {
		return fmt.Errorf("%w: %q", export.ErrUnknownDataset, *dataset)
	}

	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if *output == "" {
		return b.Export(ctx, cli.stdout, *dataset)
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := b.Export(ctx, f, *dataset); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (cli *commandLine) issueCredentials(ctx context.Context, args []string) error {
	fs := cli.flagSet("issue-credentials")
	if err := parse(fs, args); err != nil {
		return err
	}

	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := b.IssueCredentials(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "credentials issued to %d students\n", n)
	return nil
}
