package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/edp1096/lblmc-codegen/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch <netlist>",
	Short: "Regenerate the simulation engine whenever the netlist changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "output file (default <model>_simulationEngine.hpp)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	regenerate := func() {
		nw, err := loadNetwork(cmd, path)
		if err == nil {
			if out, _ := cmd.Flags().GetString("output"); out != "" {
				nw.cfg.Output = out
			}
			err = generate(cmd, nw)
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), verdict(false, err.Error()))
		}
	}

	regenerate()
	return watchFile(ctx, path, cfg.Watch.Debounce, regenerate)
}

// watchFile calls onChange once per burst of writes to path until ctx is
// done. The directory is watched so editors that replace the file on save
// are followed.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				onChange()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}
