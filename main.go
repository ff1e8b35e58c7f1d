package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/smear-video/smear/h264"
	"github.com/smear-video/smear/internal/controllers/engine"
	"github.com/smear-video/smear/internal/entities"
	"github.com/smear-video/smear/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "dev"

var (
	flagChunkSize string
	flagMuxer     string
	flagWorkDir   string
	flagKeep      bool
	flagDebug     bool
	flagJSON      bool
	flagFrames    []int
	flagIDR       []int
	flagPort      int32
)

var rootCmd = &cobra.Command{
	Use:           "smear",
	Short:         "Inspect H.264 Annex-B streams and remove frames from them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var unitsCmd = &cobra.Command{
	Use:   "units <source>",
	Short: "List the NAL units of a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		report, err := e.Probe(cmd.Context(), &entities.ProbeRequest{Source: args[0]})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), report)
		}
		return printUnits(cmd.OutOrStdout(), report)
	},
}

var idrCmd = &cobra.Command{
	Use:   "idr <source>",
	Short: "List the IDR frames of a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		report, err := e.Probe(cmd.Context(), &entities.ProbeRequest{Source: args[0]})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), report.IDRFrames)
		}
		return printIDRFrames(cmd.OutOrStdout(), report)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <source> <destination>",
	Short: "Write source to destination without the given frames",
	Long: "Write source to destination without the given frames.\n\n" +
		"--frames counts every coded slice from 0, --idr counts IDR frames only.\n" +
		"Containers are demuxed and remuxed with the configured muxer.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		result, err := e.Smear(cmd.Context(), &entities.SmearRequest{
			Source:       args[0],
			Destination:  args[1],
			FrameNumbers: flagFrames,
			IDRIndices:   flagIDR,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed frames %v (%d units, %s), wrote %s to %s\n",
			result.Stats.RemovedFrames,
			result.Stats.UnitsRemoved,
			humanize.IBytes(uint64(result.Stats.BytesRemoved)),
			humanize.IBytes(uint64(result.Stats.BytesWritten)),
			result.Destination,
		)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the probe and smear operations over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := configOptions(cmd)
		if err != nil {
			return err
		}
		app := fx.New(
			web.Dependencies(opts...),
			fx.Invoke(func(*http.Server) {}),
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print smear version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "smear, %s\n", resolveVersion())
		return nil
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagChunkSize, "chunk-size", "", "parser read size, e.g. 16KiB (default from SMEAR_CHUNKSIZEBYTES)")
	pf.StringVar(&flagMuxer, "muxer", "", "container tool: ffmpeg or mp4box (default from SMEAR_MUXERTOOL)")
	pf.StringVar(&flagWorkDir, "work-dir", "", "directory for intermediate elementary streams")
	pf.BoolVar(&flagKeep, "keep", false, "keep intermediate elementary streams")
	pf.BoolVar(&flagDebug, "debug", false, "development logging")

	unitsCmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON")
	idrCmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON")
	removeCmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON")
	removeCmd.Flags().IntSliceVar(&flagFrames, "frames", nil, "frame numbers to remove")
	removeCmd.Flags().IntSliceVar(&flagIDR, "idr", nil, "IDR frame indices to remove")
	serveCmd.Flags().Int32Var(&flagPort, "port", 0, "HTTP port (default from SMEAR_HTTPPORT)")

	rootCmd.AddCommand(unitsCmd, idrCmd, removeCmd, serveCmd, versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// configOptions turns the flags that were set into overrides applied after the environment.
func configOptions(cmd *cobra.Command) ([]func(*entities.Config), error) {
	var opts []func(*entities.Config)
	flags := cmd.Flags()

	if flags.Changed("chunk-size") {
		n, err := humanize.ParseBytes(flagChunkSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --chunk-size %q: %w", flagChunkSize, err)
		}
		if n < h264.MinChunkSize || n > h264.MaxChunkSize {
			return nil, fmt.Errorf("invalid --chunk-size %q: %w: must be between %s and %s", flagChunkSize, h264.ErrInvalidChunkSize,
				humanize.IBytes(h264.MinChunkSize), humanize.IBytes(h264.MaxChunkSize))
		}
		opts = append(opts, func(c *entities.Config) { c.ChunkSizeBytes = int(n) })
	}
	if flags.Changed("muxer") {
		opts = append(opts, func(c *entities.Config) { c.MuxerTool = entities.MuxerTool(flagMuxer) })
	}
	if flags.Changed("work-dir") {
		opts = append(opts, func(c *entities.Config) { c.WorkDir = flagWorkDir })
	}
	if flags.Changed("keep") {
		opts = append(opts, func(c *entities.Config) { c.KeepIntermediate = flagKeep })
	}
	if flags.Changed("debug") {
		opts = append(opts, func(c *entities.Config) { c.Debug = flagDebug })
	}
	if flags.Changed("port") {
		opts = append(opts, func(c *entities.Config) { c.HTTPPort = flagPort })
	}
	return opts, nil
}

func newEngine(cmd *cobra.Command) (*engine.SmearEngineController, error) {
	opts, err := configOptions(cmd)
	if err != nil {
		return nil, err
	}

	var e *engine.SmearEngineController
	app := fx.New(
		web.Dependencies(opts...),
		fx.NopLogger,
		fx.Populate(&e),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUnits(w io.Writer, report *entities.StreamReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "start code: %d bytes, units: %d, frames: %d\n\n", report.StartCodeLength, len(report.Units), report.Frames)
	fmt.Fprintln(tw, "INDEX\tTYPE\tRANGE\tSIZE\tFRAME\tREF\tSEI")
	for _, u := range report.Units {
		frame := "-"
		if u.Frame >= 0 {
			frame = fmt.Sprint(u.Frame)
		}
		sei := ""
		if u.SEIPayloadType != nil && u.SEIPayloadSize != nil {
			sei = fmt.Sprintf("type %d, %d bytes", *u.SEIPayloadType, *u.SEIPayloadSize)
		}
		if u.Caption != "" {
			sei += fmt.Sprintf(", caption %q", u.Caption)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			u.Index, u.Type, u.Range, humanize.IBytes(uint64(u.Size)), frame, u.RefIDC, sei)
	}
	return tw.Flush()
}

func printIDRFrames(w io.Writer, report *entities.StreamReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tFRAME\tPTS")
	for _, idr := range report.IDRFrames {
		pts := "-"
		if idr.PTS != nil {
			pts = idr.PTS.String()
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\n", idr.Index, idr.Frame, pts)
	}
	return tw.Flush()
}

func resolveVersion() string {
	if version != "" && version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}
