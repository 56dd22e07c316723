package gdsmerge

import (
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/arthur-debert/gdsmerge/internal/version"
	"github.com/arthur-debert/gdsmerge/pkg/cobrax/topics"
	"github.com/arthur-debert/gdsmerge/pkg/config"
	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/inspect"
	"github.com/arthur-debert/gdsmerge/pkg/logging"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/report"
	"github.com/arthur-debert/gdsmerge/pkg/style"
	"github.com/arthur-debert/gdsmerge/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

//go:embed topics
var topicsFS embed.FS

// rootOptions holds the flag values shared by all commands.
type rootOptions struct {
	verbosity    int
	output       string
	report       string
	reportFormat string
	libraryName  string
	format       string
	configFile   string

	cfg *config.Config
}

// setup loads the configuration, with flags as the top layer, and starts
// logging.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	overrides := map[string]interface{}{}
	if o.libraryName != "" {
		overrides["output.library_name"] = o.libraryName
	}
	if o.reportFormat != "" {
		overrides["report.format"] = o.reportFormat
	}
	cfg, err := config.Load(config.LoadOptions{File: o.configFile, Overrides: overrides})
	if err != nil {
		return err
	}
	o.cfg = cfg

	logging.Setup(logging.Options{
		Verbosity: o.verbosity,
		File:      cfg.Log.File,
		Console:   cmd.ErrOrStderr(),
	})
	log.Debug().Str("command", cmd.Name()).Msg("Command started")
	return nil
}

// outputFormat resolves --format for w, detecting terminals for auto.
func (o *rootOptions) outputFormat(w io.Writer) (ui.Format, error) {
	f, err := ui.ParseFormat(o.format)
	if err != nil {
		return f, err
	}
	return f.Resolve(w), nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "gdsmerge -o OUTPUT INPUT...",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, opts, args)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", MsgFlagConfig)

	// Merge flags
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", MsgFlagOutput)
	rootCmd.Flags().StringVar(&opts.report, "report", "", MsgFlagReport)
	rootCmd.Flags().StringVar(&opts.reportFormat, "report-format", "", MsgFlagReportFormat)
	rootCmd.Flags().StringVar(&opts.libraryName, "library-name", "", MsgFlagLibraryName)

	_ = rootCmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"auto", "term", "text", "json"}, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("report-format", cobra.FixedCompletions(
		[]string{"toml", "yaml", "json", "xml", "cbor"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	// Topic-based help from the embedded topics directory
	if err := topics.InitializeWithOptions(rootCmd, topicsFS, "topics", topics.Options{
		Extensions: []string{".md"},
		Renderer:   topics.NewGlamourRenderer(),
	}); err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}
	rootCmd.SetHelpCommandGroupID("misc")

	return rootCmd
}

func runMerge(cmd *cobra.Command, opts *rootOptions, inputs []string) error {
	logger := logging.GetLogger("cmd.merge")

	if opts.output == "" {
		return errors.New(errors.ErrInvalidInput, MsgErrNoOutput)
	}
	if len(inputs) == 0 {
		return errors.New(errors.ErrInvalidInput, MsgErrNoInputs)
	}
	format, err := opts.outputFormat(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	renderer, err := ui.NewRenderer(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var reportFormat report.Format
	mergeOpts := opts.cfg.MergeOptions()
	if opts.report != "" {
		if reportFormat, err = opts.resolveReportFormat(); err != nil {
			return err
		}
		// The report is written before the output is moved into place, so a
		// failed report leaves no output behind.
		mergeOpts.BeforePublish = func(ctx context.Context, result *merge.Result) error {
			if err := report.Write(ctx, nil, opts.report, report.New(result), reportFormat); err != nil {
				return err
			}
			logger.Info().Str("path", opts.report).Str("format", string(reportFormat)).Msg("Report written")
			return nil
		}
	}

	logger.Info().Str("output", opts.output).Strs("inputs", inputs).Msg("Starting merge")
	result, err := merge.Merge(cmd.Context(), opts.output, inputs, mergeOpts)
	if err != nil {
		return err
	}

	if err := renderer.RenderResult(result); err != nil {
		return err
	}
	if opts.report != "" && format != ui.FormatJSON {
		return renderer.RenderMessage(fmt.Sprintf(MsgReportWritten, opts.report, reportFormat))
	}
	return nil
}

// resolveReportFormat prefers --report-format, then the report file
// extension, then report.format from the configuration.
func (o *rootOptions) resolveReportFormat() (report.Format, error) {
	configured, err := report.ParseFormat(o.cfg.Report.Format)
	if err != nil {
		return "", err
	}
	if o.reportFormat != "" {
		return configured, nil
	}
	return report.FormatForPath(o.report, configured), nil
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect FILE...",
		Short:   MsgInspectShort,
		Long:    MsgInspectLong,
		Example: MsgInspectExample,
		GroupID: "core",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			renderer, err := ui.NewRenderer(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, path := range args {
				lib, err := merge.Load(cmd.Context(), nil, path)
				if err != nil {
					return err
				}
				if err := renderer.RenderResult(inspect.Summarize(path, lib)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

func newManCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		GroupID: "misc",
		Hidden:  true,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", dir).WithDetail("path", dir)
			}
			header := &doc.GenManHeader{
				Title:   "GDSMERGE",
				Section: "1",
				Source:  "gdsmerge " + version.Version,
				Manual:  "gdsmerge manual",
			}
			if err := doc.GenManTree(cmd.Root(), header, dir); err != nil {
				return errors.Wrap(err, errors.ErrFileWrite, "failed to generate man pages").WithDetail("path", dir)
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Strip(fmt.Sprintf(MsgManWritten, dir)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", MsgFlagManDir)
	return cmd
}

// Run executes the command line args and returns the process exit code.
// Errors are rendered on stderr in the --format chosen for the run.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(rootCmd, stderr, err)
		return 1
	}
	return 0
}

// Execute runs the CLI with the process arguments, cancelling on interrupt.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func renderError(rootCmd *cobra.Command, w io.Writer, err error) {
	format := ui.FormatAuto
	if value, ferr := rootCmd.PersistentFlags().GetString("format"); ferr == nil {
		if f, perr := ui.ParseFormat(value); perr == nil {
			format = f
		}
	}
	renderer, rerr := ui.NewRenderer(format, w)
	if rerr != nil || renderer.RenderError(err) != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
