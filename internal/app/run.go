package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/todolist/internal/client"
	"github.com/nhle/todolist/internal/credential"
	"github.com/nhle/todolist/internal/logging"
	"github.com/nhle/todolist/internal/model"
)

// Options configures Run. Zero values fall back to the real keyring and
// terminal.
type Options struct {
	Opener      credential.Opener
	ProgramOpts []tea.ProgramOption
}

// shellFlags are the command-line flags shared by the three shells.
type shellFlags struct {
	set         *pflag.FlagSet
	configPath  string
	saveToken   bool
	forgetToken bool
	saveConfig  bool
}

func newShellFlags(name string) *shellFlags {
	f := &shellFlags{set: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	f.set.StringVar(&f.configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	f.set.String("endpoint", "", "base URL of the todo server (env TODO_ENDPOINT)")
	f.set.String("token", "", "access token for the todo server (env TODO_TOKEN)")
	f.set.String("log-file", "", "write logs to this file instead of discarding them")
	f.set.String("log-level", "", "log level: debug, info, warn, error")
	f.set.BoolVar(&f.saveToken, "save-token", false, "store --token in the OS keyring for this endpoint and exit")
	f.set.BoolVar(&f.forgetToken, "forget-token", false, "remove the stored token for this endpoint from the OS keyring and exit")
	f.set.BoolVar(&f.saveConfig, "save-config", false, "write the effective config (without tokens) and exit")
	return f
}

var shellBindings = map[string]string{
	"client.endpoint": "endpoint",
	"client.token":    "token",
	"client.log_file": "log-file",
	"log.level":       "log-level",
}

// Run parses args, connects to the server and runs the shell for role
// until the user quits or ctx ends.
func Run(ctx context.Context, role model.Role, args []string, opts Options) error {
	flags := newShellFlags("todo-" + string(role))
	if err := flags.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := model.LoadConfig(flags.configPath, flags.set, shellBindings)
	if err != nil {
		return err
	}

	if flags.saveConfig {
		if err := model.SaveConfig(flags.configPath, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", flags.configPath)
		return nil
	}

	opener := opts.Opener
	if opener == nil {
		opener = credential.DefaultOpener
	}
	tokens := credential.NewTokens(opener)

	if flags.saveToken {
		if cfg.Client.Token == "" {
			return errors.New("--save-token needs --token or TODO_TOKEN")
		}
		if err := tokens.SetToken(cfg.Client.Endpoint, cfg.Client.Token); err != nil {
			return err
		}
		fmt.Printf("stored token for %s\n", cfg.Client.Endpoint)
		return nil
	}

	if flags.forgetToken {
		if err := tokens.DeleteToken(cfg.Client.Endpoint); err != nil {
			return err
		}
		fmt.Printf("removed stored token for %s\n", cfg.Client.Endpoint)
		return nil
	}

	logger, closer, err := logging.NewFile(cfg.Log, cfg.Client.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	token, err := tokens.Resolve(cfg.Client.Endpoint, cfg.Client.Token)
	if err != nil {
		// Shells still work against an open server without the keyring.
		logger.Warn("reading token from keyring", "err", err)
	}

	c, err := client.New(cfg.Client.Endpoint,
		client.WithToken(token),
		client.WithLogger(logger),
		client.WithReconnectDelay(time.Duration(cfg.Client.ReconnectDelaySec)*time.Second),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := c.Subscribe(ctx)
	defer sub.Cancel()

	logger.Info("shell starting", "role", string(role), "endpoint", c.Endpoint())

	timeout := time.Duration(cfg.Client.RequestTimeoutSec) * time.Second
	root := New(role, c, sub.Events(), timeout, logger)

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOpts...)
	if _, err := tea.NewProgram(root, programOpts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running %s shell: %w", role.Title(), err)
	}
	return nil
}
