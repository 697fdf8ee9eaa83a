package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sitewatch/sitewatch/pkg/apiclient"
)

type adminCmd struct {
	Users          adminUsersCmd      `cmd:"" help:"Manage user accounts."`
	Settings       adminSettingsCmd   `cmd:"" help:"Replace the set of enabled metrics."`
	ClearSyncCache adminClearSyncCmd  `cmd:"" name:"clear-sync-cache" help:"Invalidate the server's cached sync results."`
	ClearTestData  adminClearTestCmd  `cmd:"" name:"clear-test-data" help:"Remove injected test records."`
	InjectTestData adminInjectTestCmd `cmd:"" name:"inject-test-data" help:"Seed the backend with synthetic records."`
}

type adminUsersCmd struct {
	List   adminUserListCmd   `cmd:"" default:"1" help:"List all accounts."`
	Create adminUserCreateCmd `cmd:"" help:"Create an account."`
	Update adminUserUpdateCmd `cmd:"" help:"Update an account."`
	Delete adminUserDeleteCmd `cmd:"" help:"Delete an account."`
}

type adminUserListCmd struct{}

func (cmd *adminUserListCmd) Run(app *program) error {
	users, err := app.client.ListUsers(context.Background())
	if err != nil {
		return err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	for _, u := range users {
		sites := "all"
		if len(u.AllowedSites) > 0 {
			sites = strings.Join(u.AllowedSites, ", ")
		}
		fmt.Printf("%-20s %-8s %s\n", u.Username, u.Role, sites)
	}
	return nil
}

type adminUserCreateCmd struct {
	Username string   `arg:"" help:"Account name."`
	Password string   `required:"" help:"Initial password."`
	Role     string   `default:"user" enum:"user,admin" help:"Account role."`
	Sites    []string `help:"Sites the account may see. Empty means every site."`
}

func (cmd *adminUserCreateCmd) Run(app *program) error {
	err := app.client.CreateUser(context.Background(), apiclient.CreateUserInput{
		Username:     cmd.Username,
		Password:     cmd.Password,
		Role:         cmd.Role,
		AllowedSites: cmd.Sites,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", cmd.Username)
	return nil
}

type adminUserUpdateCmd struct {
	Username string   `arg:"" help:"Account name."`
	Password string   `help:"New password."`
	Role     string   `help:"New role (user or admin)."`
	Sites    []string `help:"New allowed-site list."`
	AllSites bool     `name:"all-sites" help:"Reset the account to every site."`
}

func (cmd *adminUserUpdateCmd) Run(app *program) error {
	var input apiclient.UpdateUserInput
	if cmd.Password != "" {
		input.Password = &cmd.Password
	}
	if cmd.Role != "" {
		input.Role = &cmd.Role
	}
	if cmd.AllSites {
		empty := []string{}
		input.AllowedSites = &empty
	} else if len(cmd.Sites) > 0 {
		input.AllowedSites = &cmd.Sites
	}
	if input == (apiclient.UpdateUserInput{}) {
		return fmt.Errorf("sitewatch: nothing to update")
	}
	if err := app.client.UpdateUser(context.Background(), cmd.Username, input); err != nil {
		return err
	}
	fmt.Printf("updated %s\n", cmd.Username)
	return nil
}

type adminUserDeleteCmd struct {
	Username string `arg:"" help:"Account name."`
	Yes      bool   `help:"Skip the confirmation prompt."`
}

func (cmd *adminUserDeleteCmd) Run(app *program) error {
	if !cmd.Yes && !confirm(fmt.Sprintf("delete account %q?", cmd.Username)) {
		return nil
	}
	if err := app.client.DeleteUser(context.Background(), cmd.Username); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", cmd.Username)
	return nil
}

type adminSettingsCmd struct {
	Metrics []string `arg:"" help:"Metrics to enable, e.g. clients health state."`
}

func (cmd *adminSettingsCmd) Run(app *program) error {
	if err := app.client.SaveSettings(context.Background(), cmd.Metrics); err != nil {
		return err
	}
	fmt.Println("settings saved")
	return nil
}

type adminClearSyncCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

func (cmd *adminClearSyncCmd) Run(app *program) error {
	if !cmd.Yes && !confirm("clear the sync cache?") {
		return nil
	}
	msg, err := app.client.ClearSyncCache(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type adminClearTestCmd struct {
	Yes bool `help:"Skip the confirmation prompt."`
}

func (cmd *adminClearTestCmd) Run(app *program) error {
	if !cmd.Yes && !confirm("remove all injected test data?") {
		return nil
	}
	msg, err := app.client.ClearTestData(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type adminInjectTestCmd struct{}

func (cmd *adminInjectTestCmd) Run(app *program) error {
	msg, err := app.client.InjectTestData(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// confirm prompts on stderr and reads one line from stdin. Anything but
// "y" or "yes" declines.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
