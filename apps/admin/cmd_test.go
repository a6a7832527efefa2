package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	inmemdb "github.com/seatech/enthusiasm/storage/database/inmem"
	"github.com/seatech/enthusiasm/tests"
)

var admRepo admin.Repository

func setup(t *testing.T) *commandLine {
	conf := core.NewTestConfig(t.TempDir())
	admRepo = inmemdb.NewAdminRepository(inmemdb.Open())

	// start CLI
	return &commandLine{
		conf:   conf,
		admSvc: admin.NewService(admRepo, conf),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)
	cli.conf.Database.Engine = core.EnginePostgres

	var ran []string
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version":
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down", "status"}, ran)

	t.Run("not postgres", func(t *testing.T) {
		cli.conf.Database.Engine = core.EngineMemory
		assert.Equal(t, errNotPostgres, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"createadmin", "-username", "boss"}, wantErr: errHelp},
		{name: "create", args: []string{"createadmin", "-username", "Boss"}, extra: extra{pwd: "first-pass"}},
		{name: "existing admin gets new password", args: []string{"createadmin", "-username", "boss"}, extra: extra{pwd: "second-pass"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			adm, err := cli.admSvc.Authenticate(ctx, "boss", tt.extra.(extra).pwd)
			require.NoError(t, err)
			assert.Equal(t, "boss", adm.Username)
		})
	}

	admins, err := admRepo.QueryAllAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	adm := testutil.CreateAdmin(t, admRepo, "boss", "mdr")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "admin not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: admin.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", adm.Username}, extra: extra{pwd: "lol"}},
		{name: "reset, username is case insensitive", args: []string{"resetpassword", "-username", "BOSS"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			refreshed, err := admRepo.GetAdmin(context.Background(), admin.GetFilter{ID: adm.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, adm.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshed.CheckPassword(tt.extra.(extra).pwd))
		})
	}
}
