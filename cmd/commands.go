package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/philecms/philekit/internal/config"
	"github.com/philecms/philekit/internal/fileutil"
	"github.com/philecms/philekit/internal/nanoid"
	"github.com/philecms/philekit/internal/secrethash"
	"github.com/philecms/philekit/internal/securerand"
	"github.com/philecms/philekit/internal/setupkey"
	"github.com/philecms/philekit/internal/token"
	"github.com/philecms/philekit/internal/web"
)

var (
	errPluginInactive   = errors.New("plugin is not active")
	errNoEncryptionKey  = errors.New("encryption key not set, run \"philekit setup\" first")
	errMissingArguments = errors.New("missing arguments")
)

func (a *app) tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Generate a secure random token",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Value:   token.DefaultLength,
				Usage:   "Number of characters",
			},
			&cli.BoolFlag{
				Name:  "no-special",
				Usage: "Only use letters and digits",
			},
			&cli.StringFlag{
				Name:  "extra",
				Usage: "Additional characters allowed in the token",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tok, err := token.Generate(cmd.Int("length"), token.Options{
				IncludeSpecialChars: !cmd.Bool("no-special"),
				AdditionalChars:     cmd.String("extra"),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, tok)
			return err
		},
	}
}

func (a *app) intCommand() *cli.Command {
	return &cli.Command{
		Name:      "int",
		Usage:     "Print a secure random integer in [MIN, MAX)",
		ArgsUsage: "MIN MAX",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: expected MIN and MAX", errMissingArguments)
			}
			lo, err := strconv.ParseInt(cmd.Args().Get(0), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid MIN: %w", err)
			}
			hi, err := strconv.ParseInt(cmd.Args().Get(1), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid MAX: %w", err)
			}

			n, err := securerand.Int(lo, hi)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, n)
			return err
		},
	}
}

func (a *app) idCommand() *cli.Command {
	return &cli.Command{
		Name:  "id",
		Usage: "Generate a short lowercase identifier",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := nanoid.Generate()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, id)
			return err
		},
	}
}

func (a *app) hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Hash a value salted with the site encryption key",
		ArgsUsage: "VALUE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "Produce the legacy MD5 hash instead of Argon2id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: expected VALUE", errMissingArguments)
			}
			key, err := a.encryptionKey(cmd)
			if err != nil {
				return err
			}

			value := cmd.Args().First()
			if cmd.Bool("legacy") {
				_, err = fmt.Fprintln(a.out, secrethash.LegacyMD5(key, value))
				return err
			}

			hasher, err := secrethash.New()
			if err != nil {
				return err
			}
			encoded, err := hasher.Hash(key, value)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, encoded)
			return err
		},
	}
}

func (a *app) verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check a value against a hash produced by \"hash\"",
		ArgsUsage: "VALUE HASH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: expected VALUE and HASH", errMissingArguments)
			}
			key, err := a.encryptionKey(cmd)
			if err != nil {
				return err
			}

			value, encoded := cmd.Args().Get(0), cmd.Args().Get(1)
			ok := secrethash.VerifyLegacyMD5(key, value, encoded)
			if !ok {
				hasher, err := secrethash.New()
				if err != nil {
					return err
				}
				ok = hasher.Verify(key, value, encoded)
			}

			if !ok {
				return errors.New("hash does not match")
			}
			_, err = fmt.Fprintln(a.out, "ok")
			return err
		},
	}
}

func (a *app) resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a path, expanding the mod: prefix to the plugins directory",
		ArgsUsage: "PATH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: expected PATH", errMissingArguments)
			}
			cfg, err := a.optionalConfig(cmd)
			if err != nil {
				return err
			}

			path, err := fileutil.ResolveFilePath(cmd.Args().First(), cfg.GetPluginsDir())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, path)
			return err
		},
	}
}

func (a *app) filesCommand() *cli.Command {
	return &cli.Command{
		Name:      "files",
		Usage:     "List content files recursively",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ext",
				Usage: "Only list files with this extension (default: content_extension)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "List every non-hidden file regardless of extension",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.optionalConfig(cmd)
			if err != nil {
				return err
			}

			dir := cfg.GetContentDir()
			if cmd.NArg() > 0 {
				dir = cmd.Args().First()
			}

			filter := fileutil.GeneralFileFilter
			if !cmd.Bool("all") {
				ext := cmd.String("ext")
				if ext == "" {
					ext = cfg.GetContentExtension()
				}
				filter = fileutil.ExtensionFilter(ext)
			}

			files, err := fileutil.List(dir, filter)
			if err != nil {
				return err
			}
			a.logger.Debug("listed files", "dir", dir, "count", len(files))

			for _, f := range files {
				if _, err := fmt.Fprintln(a.out, f); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) urlCommand() *cli.Command {
	return &cli.Command{
		Name:      "url",
		Usage:     "Print the site URL for PATH as seen by a request to HOST",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: "localhost",
				Usage: "Host header of the request (used when base_url is not set)",
			},
			&cli.StringFlag{
				Name:  "forwarded-proto",
				Usage: "X-Forwarded-Proto header of the request, e.g. https behind a proxy",
			},
			&cli.BoolFlag{
				Name:  "install-path",
				Usage: "Print the install path instead of a URL",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.optionalConfig(cmd)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+cmd.String("host")+"/", nil)
			if err != nil {
				return fmt.Errorf("invalid host: %w", err)
			}
			if proto := cmd.String("forwarded-proto"); proto != "" {
				req.Header.Set("X-Forwarded-Proto", proto)
			}

			rt := web.NewRouter(cfg.BaseURL)
			if cmd.Bool("install-path") {
				_, err = fmt.Fprintln(a.out, rt.InstallPath(req))
				return err
			}
			_, err = fmt.Fprintln(a.out, rt.URL(req, cmd.Args().First()))
			return err
		},
	}
}

func (a *app) pluginCommand() *cli.Command {
	return &cli.Command{
		Name:      "plugin",
		Usage:     "Report whether a plugin is active (exit code 1 when inactive)",
		ArgsUsage: "NAME",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: expected NAME", errMissingArguments)
			}
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			name := cmd.Args().First()
			if !cfg.IsPluginActive(name) {
				_, _ = fmt.Fprintln(a.out, "inactive")
				return errPluginInactive
			}
			_, err = fmt.Fprintln(a.out, "active")
			return err
		},
	}
}

func (a *app) setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Generate the site encryption key and store it in the config file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace an existing encryption key",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			result, err := setupkey.New(a.logger).Run(path, cmd.Bool("force"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, result.Key)
			return err
		},
	}
}

// encryptionKey loads the config and returns its encryption key
func (a *app) encryptionKey(cmd *cli.Command) (string, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return "", err
	}
	if cfg.EncryptionKey == "" {
		return "", errNoEncryptionKey
	}
	return cfg.EncryptionKey, nil
}

// optionalConfig loads the config file, falling back to defaults when it
// does not exist
func (a *app) optionalConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if errors.Is(err, fileutil.ErrNotFound) {
		a.logger.Debug("config file not found, using defaults", "path", path)
		cfg = &config.Config{}
		cfg.ApplyEnv()
		return cfg, nil
	}
	return cfg, err
}
