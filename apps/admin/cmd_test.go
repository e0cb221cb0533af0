package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
	dummydb "github.com/trezcool/ukaguzi/storage/database/dummy"
	testutil "github.com/trezcool/ukaguzi/tests"
)

var (
	usrRepo user.Repository
	schRepo school.Repository
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	schRepo = dummydb.NewSchoolRepository(db)

	// start CLI
	return &commandLine{
		usrRepo: usrRepo,
		schRepo: schRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	runMigrationFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "visit", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe123", "awe@ukaguzi.tn", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Qwerty12!"), nil }

	t.Run("creates a new admin", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-username", "root01", "-email", "root@ukaguzi.tn", "-admin"}); err != nil {
			t.Fatalf("cli.run() failed: %v", err)
		}
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root01"})
		if err != nil {
			t.Fatalf("GetUser() failed: %v", err)
		}
		if !usr.IsAdmin() {
			t.Error("expected admin roles")
		}
		if usr.IsActive == nil || !*usr.IsActive {
			t.Error("expected active user")
		}
	})

	t.Run("updates an existing user", func(t *testing.T) {
		before, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root01"})
		if err != nil {
			t.Fatalf("GetUser() failed: %v", err)
		}

		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("N3wPassword!"), nil }
		if err := cli.run([]string{"admin", "adduser", "-username", "root01", "-email", "root@ukaguzi.tn"}); err != nil {
			t.Fatalf("cli.run() failed: %v", err)
		}

		after, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root01"})
		if err != nil {
			t.Fatalf("GetUser() failed: %v", err)
		}
		if bytes.Equal(before.PasswordHash, after.PasswordHash) {
			t.Error("failed to update password")
		}
	})
}

func Test_commandLine_assignRegion(t *testing.T) {
	cli := setup(t)

	region := testutil.CreateRegion(t, schRepo, "Sfax 1", "SF-01")
	inspector := testutil.CreateUser(
		t, usrRepo, "Inspector", "inspector1", "inspector1@ukaguzi.tn", "Qwerty12!", user.InspectorRoles, true)
	teacher := testutil.CreateUser(
		t, usrRepo, "Teacher", "teacher1", "teacher1@ukaguzi.tn", "Qwerty12!", user.TeacherRoles, true)

	tests := []cliTest{
		{name: "missing flags", args: []string{"assignregion", "-inspector", inspector.Username}, wantErr: errHelp},
		{name: "unknown user", args: []string{"assignregion", "-inspector", "ghost", "-region", region.Code}, wantErr: user.ErrNotFound},
		{name: "not an inspector", args: []string{"assignregion", "-inspector", teacher.Username, "-region", region.Code}, wantErrStr: "teacher1 is not an inspector"},
		{name: "unknown region", args: []string{"assignregion", "-inspector", inspector.Username, "-region", "XX-99"}, wantErrStr: `region "XX-99": not found`},
		{name: "happy path", args: []string{"assignregion", "-inspector", inspector.Username, "-region", region.Code}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() expected error, got nil")
					return
				}
				ok, err := schRepo.HasActiveAssignment(context.Background(), inspector.ID, region.ID)
				if err != nil {
					t.Fatalf("HasActiveAssignment() failed: %v", err)
				}
				if !ok {
					t.Error("expected an active assignment")
				}
			} else if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if err.Error() != tt.wantErrStr {
				t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
			}
		})
	}
}
