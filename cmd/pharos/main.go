package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pharos-sh/pharos/internal/buildinfo"
	"github.com/pharos-sh/pharos/pkg/transport/uds"
	tuimodel "github.com/pharos-sh/pharos/pkg/tui/model"
)

var socketPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pharos",
	Short: "Log multiplexer TUI with per-source attention cues",
	Long:  "Pharos is a TUI + daemon that follows log files, journald units, and command output, and highlights sources with unseen activity.",
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/tmp/pharosd.sock", "daemon socket path")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonCmd)
}

// --- Root: TUI ---

func runTUI(_ *cobra.Command, _ []string) error {
	ensureDaemon()
	app := tuimodel.New(socketPath)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func ensureDaemon() {
	if _, err := os.Stat(socketPath); err == nil {
		return
	}
	cmd := exec.Command("pharosd", "--socket", socketPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Start()
	for i := 0; i < 30; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Fprintln(os.Stderr, "warning: could not start daemon, continuing anyway")
}

func dialDaemon() (*uds.Client, error) {
	client, err := uds.Dial(socketPath)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon at %s: %w", socketPath, err)
	}
	return client, nil
}

// --- Ping ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if daemon is running",
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := dialDaemon()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodPing, nil)
		if err != nil {
			return err
		}

		var pong uds.PingResponse
		if err := resp.UnmarshalData(&pong); err != nil {
			return err
		}
		if pong.Pong {
			fmt.Println("pong ✓")
		}
		return nil
	},
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("pharos %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Daemon ---

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start daemon in foreground (for debugging)",
	Long:  "Normally the TUI auto-spawns the daemon. Use this to run it manually.",
	RunE: func(_ *cobra.Command, _ []string) error {
		args := []string{"--socket", socketPath}
		if configFlag != "" {
			args = append(args, "--config", configFlag)
		}
		cmd := exec.Command("pharosd", args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	},
}

var configFlag string

func init() {
	daemonCmd.Flags().StringVar(&configFlag, "config", "", "path to pharos.yaml")
}

// --- Sources ---

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known log sources",
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := dialDaemon()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodListSources, nil)
		if err != nil {
			return err
		}

		var infos []uds.SourceInfo
		if err := resp.UnmarshalData(&infos); err != nil {
			return err
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

		if sourcesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		if len(infos) == 0 {
			fmt.Println("no sources")
			return nil
		}

		fmt.Printf("%-40s %s\n", "SOURCE", "BUFFERED")
		for _, info := range infos {
			fmt.Printf("%-40s %d\n", info.ID, info.Length)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
}

// --- Tail ---

var tailMax int

var tailCmd = &cobra.Command{
	Use:   "tail <source>",
	Short: "Print the buffered entries for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := dialDaemon()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodTail, uds.TailRequest{
			Source: args[0],
			Max:    tailMax,
		})
		if err != nil {
			return err
		}

		var payload uds.TailResponse
		if err := resp.UnmarshalData(&payload); err != nil {
			return err
		}
		for _, e := range payload.Entries {
			fmt.Println(e.Line)
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().IntVarP(&tailMax, "max", "n", 0, "limit to the last n entries (0 = all)")
}
