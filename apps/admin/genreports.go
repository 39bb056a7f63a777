package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core"
)

// cliActor is the principal the batch runs as; report generation is an
// admin-only operation.
var cliActor = core.Actor{
	ID:    "admin-cli",
	Name:  "Admin CLI",
	Roles: []string{core.RoleAdminPrincipal},
}

func (cli *commandLine) generateReports(month, year int) error {
	reps, err := cli.svc.GenerateMonthlyReports(context.Background(), cliActor, month, year)
	if err != nil {
		return err
	}
	fmt.Printf("generated %d report(s) for %d/%d\n", len(reps), month, year)
	return nil
}
