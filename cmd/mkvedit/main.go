package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/go-mkvedit/internal/cli"
	"github.com/autobrr/go-mkvedit/internal/summary"
)

var version = "dev"

const helpBanner = "" +
	"                                                              \n" +
	"███╗   ███╗██╗  ██╗██╗   ██╗███████╗██████╗ ██╗████████╗\n" +
	"████╗ ████║██║ ██╔╝██║   ██║██╔════╝██╔══██╗██║╚══██╔══╝\n" +
	"██╔████╔██║█████╔╝ ██║   ██║█████╗  ██║  ██║██║   ██║   \n" +
	"██║╚██╔╝██║██╔═██╗ ╚██╗ ██╔╝██╔══╝  ██║  ██║██║   ██║   \n" +
	"██║ ╚═╝ ██║██║  ██╗ ╚████╔╝ ███████╗██████╔╝██║   ██║   \n" +
	"╚═╝     ╚═╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚═════╝ ╚═╝   ╚═╝   "

const helpTemplate = helpBanner + `

{{with or .Long .Short}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`

var opts = cli.DefaultOptions()

var rootCmd = &cobra.Command{
	Use:           "mkvedit <command> [flags] <file> [file...]",
	Short:         "Edit Matroska header elements in place.",
	Long:          "Edit Matroska header elements in place: replace or remove level-1 elements without remuxing, keeping seek heads and the segment size consistent.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <file> [file...]",
	Short: "Check whether files start with the EBML magic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Probe(args, cmd.OutOrStdout())
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <file> [file...]",
	Short: "List the level-1 elements of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Scan(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file> [file...]",
	Short: "Check element layout and seek heads of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Verify(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var showCmd = &cobra.Command{
	Use:   "show <file> [file...]",
	Short: "Print segment information and tags of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Show(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var (
	setTitle  string
	setNewUID bool
	setTags   []string
)

var setCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Change the title, segment UID or global tags of a file in place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set := cli.SetOptions{NewUID: setNewUID, Tags: setTags}
		if cmd.Flags().Changed("title") {
			set.Title = &setTitle
		}
		return cli.Set(cmd.Context(), opts, set, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var listElements bool

var removeCmd = &cobra.Command{
	Use:   "remove <file> <element> [element...]",
	Short: "Overwrite level-1 elements with Void elements",
	Args: func(cmd *cobra.Command, args []string) error {
		if listElements {
			return nil
		}
		return cobra.MinimumNArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if listElements {
			cli.HelpElements(cmd.OutOrStdout())
			return nil
		}
		return cli.Remove(cmd.Context(), opts, args[0], args[1:], cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update mkvedit",
	Long:  "Update mkvedit to latest version (release builds only).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSelfUpdate(cmd.Context())
	},
	DisableFlagsInUseLine: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print go-mkvedit version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli.Version(cmd.OutOrStdout())
		return nil
	},
	DisableFlagsInUseLine: true,
}

func init() {
	resolvedVersion := resolveVersion()
	cli.SetVersion(resolvedVersion)
	summary.SetAppVersion(resolvedVersion)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.SetHelpTemplate(helpTemplate)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default "+cli.DefaultConfigPath()+")")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (trace, debug, info, warn, error, off)")
	flags.StringVar(&opts.ParseMode, "parse-mode", opts.ParseMode, "scan mode (fast, full)")
	flags.BoolVar(&opts.Verify, "verify", opts.Verify, "re-scan the file after every edit step and compare")
	flags.BoolVar(&opts.StrictGaps, "strict-gaps", opts.StrictGaps, "treat gaps between elements as errors")
	flags.StringVar(&opts.OneByteGap, "one-byte-gap", opts.OneByteGap, "what to do with an uncoverable one-byte gap (leak, error)")
	flags.BoolVar(&opts.TagsAtEnd, "tags-at-end", opts.TagsAtEnd, "always write Tags at the end of the file")
	flags.BoolVar(&opts.Lock, "lock", opts.Lock, "lock files while editing them")
	flags.BoolVar(&opts.Progress, "progress", opts.Progress, "show scan progress")
	flags.BoolVar(&opts.Stats, "stats", opts.Stats, "print counters after the command")
	flags.StringVarP(&opts.Output, "output", "o", opts.Output, "output format (text, json)")

	showCmd.Flags().StringVar(&opts.LogFile, "logfile", "", "also save the output in this file")
	setCmd.Flags().StringVar(&setTitle, "title", "", "new segment title (empty removes it)")
	setCmd.Flags().BoolVar(&setNewUID, "new-uid", false, "assign a new random segment UID")
	setCmd.Flags().StringArrayVar(&setTags, "tag", nil, "add a global tag NAME=VALUE (repeatable)")
	removeCmd.Flags().BoolVar(&listElements, "list", false, "list element names accepted by remove")

	rootCmd.AddCommand(probeCmd, scanCmd, verifyCmd, showCmd, setCmd, removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	path := opts.ConfigFile
	explicit := path != ""
	if !explicit {
		path = cli.DefaultConfigPath()
	}
	if path == "" {
		return nil
	}

	cfg, err := cli.LoadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	opts.ApplyConfig(cfg, cmd.Flags().Changed)
	return nil
}

func runSelfUpdate(ctx context.Context) error {
	if version == "" || version == "dev" {
		return errors.New("self-update is only available in release builds")
	}

	if _, err := semver.ParseTolerant(version); err != nil {
		return fmt.Errorf("could not parse version: %w", err)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug("autobrr/go-mkvedit"))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s/%s could not be found from github repository", "autobrr/go-mkvedit", version)
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Current binary is the latest version: %s\n", summary.FormatVersion(version))
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Printf("Successfully updated to version: %s\n", summary.FormatVersion(latest.Version()))
	return nil
}

func resolveVersion() string {
	if version != "" && version != "dev" {
		return normalizeVersion(version)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return normalizeVersion(info.Main.Version)
		}
	}
	return "dev"
}

func normalizeVersion(value string) string {
	return strings.TrimPrefix(value, "v")
}
