// Package cli implements the towerctl command tree.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rflorenc/towerctl/internal/config"
	"github.com/rflorenc/towerctl/internal/logging"
	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/remote"
	"github.com/rflorenc/towerctl/internal/tower"
)

// PasswordEnv supplies the password of a connection given by flags.
const PasswordEnv = "TOWERCTL_PASSWORD"

// Exit codes.
const (
	ExitFailed = 1 // the platform rejected the operation
	ExitUsage  = 2 // bad flags, config or input files
)

// ExitError carries the process exit code. An empty message means the
// outcome was already printed.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(format string, args ...interface{}) error {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information (called from main).
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	connection string
	host       string
	port       int
	user       string
	askPass    bool
	verifyTLS  bool
	logLevel   string
	logFormat  string

	// readPassword prompts for a password; replaced in tests.
	readPassword func() (string, error)
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{readPassword: promptPassword})
}

func newRootCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "towerctl",
		Short: "towerctl - create and manage Ansible AWX resources",
		Long: `towerctl creates organizations, inventories, credentials, projects and
job templates on an Ansible AWX platform, launches jobs and removes resources.

Resources are referenced by name or id. Every command prints the outcome as
JSON with a "status" of success or failed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(fmt.Sprintf("towerctl %s (commit: %s, built: %s)\n", version, commit, date))

	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "Path to config file (YAML)")
	f.StringVarP(&o.connection, "connection", "c", "", "Named connection from the config file (default: the first)")
	f.StringVar(&o.host, "host", "", "Platform host; overrides the config file")
	f.IntVar(&o.port, "port", models.DefaultPort, "Platform port, used with --host")
	f.StringVarP(&o.user, "user", "u", "admin", "Username, used with --host")
	f.BoolVar(&o.askPass, "ask-pass", false, "Prompt for the password")
	f.BoolVar(&o.verifyTLS, "verify-tls", false, "Verify the platform certificate when it speaks https")
	f.StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	f.StringVar(&o.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(
		newPingCommand(o),
		newFindCommand(o),
		newGetCommand(o),
		newDeleteCommand(o),
		newLaunchCommand(o),
		newCreateCommand(o),
		newTypesCommand(),
		newServeCommand(o),
	)
	return cmd
}

// HandleExitError prints err and exits with its code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(os.Stderr, "Error:", exitErr.Message)
		}
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	os.Exit(ExitUsage)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// env is what a command runs with.
type env struct {
	cfg    *config.Config
	conn   *models.Connection
	log    zerolog.Logger
	stager remote.Stager
}

// load reads the config file and overlays the flags. With --host the
// connection comes from the flags alone.
func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, usageError("%v", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if o.host != "" {
		cfg.Connections = []config.ConnectionConfig{{
			Name:      o.host,
			Host:      o.host,
			Port:      o.port,
			Username:  o.user,
			Password:  os.Getenv(PasswordEnv),
			VerifyTLS: o.verifyTLS,
		}}
		o.connection = ""
	}
	cfg.ApplyDefaults()

	log, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, usageError("%v", err)
	}

	e := &env{cfg: cfg, log: log}
	if len(cfg.Connections) == 0 && cmd.Name() == "serve" {
		return e, nil
	}
	conn, err := cfg.Connection(o.connection)
	if err != nil {
		return nil, usageError("%v", err)
	}
	if o.askPass {
		pw, err := o.readPassword()
		if err != nil {
			return nil, usageError("reading password: %v", err)
		}
		conn.Password = pw
	}
	if cmd.Flags().Changed("verify-tls") {
		conn.VerifyTLS = o.verifyTLS
	}
	e.conn = conn

	if sshCfg, ok := cfg.SSHStagerConfig(conn); ok {
		e.stager = remote.NewSSHStager(sshCfg, log)
	}
	return e, nil
}

// tower builds the resource client of a command.
func (e *env) tower(conn *models.Connection) *tower.Tower {
	opts := []tower.Option{
		tower.WithLogger(e.log),
		tower.WithClientOptions(e.cfg.ClientOptions()),
	}
	if e.stager != nil {
		opts = append(opts, tower.WithStager(e.stager, e.cfg.SSH.ProjectBase))
	}
	return tower.New(conn, opts...)
}

// printJSON writes v as indented JSON. A failed outcome becomes an
// ExitError with nothing left to say.
func printJSON(w io.Writer, v interface{}, ok bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if !ok {
		return &ExitError{Code: ExitFailed}
	}
	return nil
}

func printResult(w io.Writer, res *models.Result) error {
	return printJSON(w, res, res.OK())
}
