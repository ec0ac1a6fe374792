package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"

	"github.com/udlcore/udl/internal/codegen"
)

const watchDebounce = 300 * time.Millisecond

// runWatch regenerates on every change to an operation document or the
// config file (spec §4.11 "--watch"), grounded on am/watcher.go's
// debounce-timer pattern generalized from one file to a whole tree.
func runWatch(opts codegen.Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchRoots(watcher, "."); err != nil {
		return fmt.Errorf("watching operation documents: %w", err)
	}

	pterm.Info.Println("watching for changes — " + hintCommand())

	if _, err := generateOnce(opts); err != nil {
		pterm.Error.Println(err.Error())
	} else {
		pterm.Success.Println("initial generate complete")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var debounceTimer *time.Timer
	regen := func() {
		result, err := generateOnce(opts)
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		reportResult(result)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevantEvent(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, regen)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			pterm.Warning.Println("watch error: " + err.Error())
		case <-sigChan:
			return nil
		}
	}
}

func isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := filepath.Ext(event.Name)
	name := filepath.Base(event.Name)
	return ext == ".graphql" || ext == ".gql" || name == "udl.config.json" || name == "udl.config.toml"
}

func addWatchRoots(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base != "." && (base[0] == '.' || base == "node_modules") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// hintCommand reconstructs the equivalent one-shot command for the
// regenerate hint, quoting flag values the same way graph/query.go
// reconstructs shell-equivalent strings for its own diagnostic output.
func hintCommand() string {
	args := []string{"udl-codegen"}
	if flagEndpoint != "" {
		args = append(args, "--endpoint", flagEndpoint)
	}
	if flagFromResponse != "" {
		args = append(args, "--from-response", flagFromResponse, "--type", flagType)
	}
	if flagFromStore != "" {
		args = append(args, "--from-store", flagFromStore)
	}
	args = append(args, "--output", flagOutput)
	return shellquote.Join(args...)
}
