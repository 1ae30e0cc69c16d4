package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"pdfqa/internal/logger"
	"pdfqa/rag"
)

// settleDelay is how long a file must stay quiet before it is ingested.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Summarize each document dropped into a directory",
	Long: `Watches a directory. Whenever a PDF or text file is written there it
replaces the active document and the summary prompt is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	session, err := buildSession(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summarize := func(path string) {
		if err := summarizeFile(ctx, cmd, session, path); err != nil {
			logger.Error("%s: %v", filepath.Base(path), err)
		}
	}

	if path, ok := newestDocument(dir); ok {
		summarize(path)
	}

	ready := make(chan string)
	d := newDebouncer(settleDelay, func(path string) {
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
	defer d.stop()

	logger.Info("watching %s", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isDocument(ev.Name) {
				d.touch(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case path := <-ready:
			summarize(path)
		}
	}
}

func summarizeFile(ctx context.Context, cmd *cobra.Command, session *rag.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	idx, err := session.Ingest(ctx, rag.NewDocument(filepath.Base(path), data))
	if err != nil {
		return err
	}
	prompt := cfg.Query.Prompt
	if prompt == "" {
		prompt = rag.SummaryPrompt
	}
	res, err := session.QueryIndex(ctx, idx, prompt, 0)
	if err != nil {
		return err
	}
	cmd.Printf("\n## %s\n\n", res.Document)
	printResult(cmd, res, false)
	return nil
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// newestDocument returns the most recently modified document in dir.
func newestDocument(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	type file struct {
		path string
		mod  time.Time
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() || !isDocument(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if len(files) == 0 {
		return "", false
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })
	return files[0].path, true
}

// debouncer fires fn for a key once it has not been touched for delay.
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	fn     func(string)
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration, fn func(string)) *debouncer {
	return &debouncer{delay: delay, fn: fn, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) touch(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		d.fn(key)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
