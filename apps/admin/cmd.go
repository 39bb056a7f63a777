package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/mahudhurio/core/attendance"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db  *sql.DB
	svc attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
	fmt.Println("  generate-reports -month MONTH -year YEAR - generate monthly attendance reports")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	genReportsCmd := flag.NewFlagSet("generate-reports", flag.ExitOnError)
	genReportsMonth := genReportsCmd.Int("month", 0, "The report month (1-12).")
	genReportsYear := genReportsCmd.Int("year", 0, "The report year.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "generate-reports":
		if err := genReportsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genReportsMonth == 0 || *genReportsYear == 0 {
			genReportsCmd.Usage()
			return errHelp
		}
		return cli.generateReports(*genReportsMonth, *genReportsYear)
	default:
		cli.printUsage()
		return errHelp
	}
}
