package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotPostgres = errors.New("migrations are only run on the postgres engine")
)

type commandLine struct {
	conf   *core.Config
	sqlDB  *sql.DB // postgres only
	admSvc *admin.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createadmin -username USERNAME - create an admin (or set the password of an existing one)")
	fmt.Println("  resetpassword -username USERNAME - reset an admin's password")
	fmt.Println("  migrate COMMAND [ARGS] - run a postgres migration command (up, down, status, version...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminUname := createAdminCmd.String("username", "", "The admin's username. The password will be prompted next.")
	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The admin's username. The password will be prompted next.")

	switch args[1] {
	case "createadmin":
		pwd, err := parseCredentials(createAdminCmd, createAdminUname, args[2:])
		if err != nil {
			return err
		}
		return cli.createAdmin(*createAdminUname, pwd)

	case "resetpassword":
		pwd, err := parseCredentials(resetPasswordCmd, resetPasswordUname, args[2:])
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

// parseCredentials parses the username flag then prompts for the password.
func parseCredentials(cmd *flag.FlagSet, uname *string, args []string) (string, error) {
	if err := cmd.Parse(args); err != nil {
		return "", err
	}
	if *uname == "" {
		cmd.Usage()
		return "", errHelp
	}
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) createAdmin(uname, pwd string) error {
	adm, err := cli.admSvc.Create(context.Background(), uname, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("admin %q ready\n", adm.Username)
	return nil
}
