// Package frr supervises the FRR routing daemons of emulated routers.
package frr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yanet-platform/netlab/emulator"
	"github.com/yanet-platform/netlab/topology"
)

type options struct {
	Log *zap.SugaredLogger
	FS  billy.Filesystem
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
		FS:  osfs.New("/"),
	}
}

// Option is a function that configures the supervisor.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithFilesystem sets the filesystem the run and log directories are
// created on.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.FS = fs
	}
}

// Supervisor starts the configured daemons inside a router and stops them.
type Supervisor struct {
	cfg *Config
	fs  billy.Filesystem
	log *zap.SugaredLogger
}

// NewSupervisor creates a daemon supervisor.
func NewSupervisor(cfg *Config, options ...Option) (*Supervisor, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemons config: %w", err)
	}

	return &Supervisor{
		cfg: cfg,
		fs:  opts.FS,
		log: opts.Log,
	}, nil
}

// Group is the set of daemons running inside one router.
type Group struct {
	node  string
	procs []*process
}

// Node returns the router name.
func (m *Group) Node() string {
	return m.node
}

// Daemons returns the names of the running daemons in start order.
func (m *Group) Daemons() []string {
	out := make([]string, 0, len(m.procs))
	for _, proc := range m.procs {
		out = append(out, proc.name)
	}
	return out
}

type process struct {
	name string
	cmd  *exec.Cmd
	out  io.Closer
	done chan struct{}
	err  error
}

func (m *process) wait() {
	m.err = m.cmd.Wait()
	m.out.Close()
	close(m.done)
}

func (m *process) exited() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Start launches every configured daemon inside env. If any daemon fails to
// start, the already started ones are stopped.
//
// The returned handle is a *Group.
func (m *Supervisor) Start(ctx context.Context, env emulator.Env, node topology.Node, configDir string) (any, error) {
	runDir := m.cfg.RunDir.Resolve(node.Name)
	logDir := m.cfg.LogDir.Resolve(node.Name)
	for _, dir := range []string{runDir, logDir} {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	replacer := strings.NewReplacer(
		TokenConfig, configDir,
		TokenRun, runDir,
		TokenLog, logDir,
		TokenName, node.Name,
	)
	expand := func(args []string) []string {
		out := make([]string, 0, len(args))
		for _, arg := range args {
			out = append(out, replacer.Replace(arg))
		}
		return out
	}

	group := &Group{node: node.Name}
	// Daemons must outlive the context of the start hook.
	runCtx := context.WithoutCancel(ctx)
	for _, daemon := range m.cfg.Daemons {
		proc, err := m.spawn(runCtx, env, daemon.Name, expand(daemon.Args), logDir)
		if err != nil {
			return nil, multierr.Append(
				fmt.Errorf("failed to start %s: %w", daemon.Name, err),
				m.stop(ctx, group),
			)
		}
		group.procs = append(group.procs, proc)
		m.log.Debugw("started daemon",
			zap.String("node", node.Name),
			zap.String("daemon", daemon.Name),
			zap.Int("pid", proc.cmd.Process.Pid),
		)
	}

	if len(m.cfg.Reload) > 0 {
		reload := expand(m.cfg.Reload)
		out, err := env.Command(ctx, reload[0], reload[1:]...).CombinedOutput()
		if err != nil {
			return nil, multierr.Append(
				fmt.Errorf("failed to reload configuration: %w: %s", err, strings.TrimSpace(string(out))),
				m.stop(ctx, group),
			)
		}
	}

	return group, nil
}

func (m *Supervisor) spawn(ctx context.Context, env emulator.Env, name string, args []string, logDir string) (*process, error) {
	logPath := filepath.Join(logDir, name+".log")
	logFile, err := m.fs.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	cmd := env.Command(ctx, filepath.Join(m.cfg.BinDir, name), args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, err
	}

	proc := &process{
		name: name,
		cmd:  cmd,
		out:  logFile,
		done: make(chan struct{}),
	}
	go proc.wait()
	return proc, nil
}

// Stop terminates the daemons of a group in reverse start order.
func (m *Supervisor) Stop(ctx context.Context, handle any) error {
	group, ok := handle.(*Group)
	if !ok {
		return fmt.Errorf("unexpected daemon handle %T", handle)
	}
	return m.stop(ctx, group)
}

func (m *Supervisor) stop(ctx context.Context, group *Group) error {
	var errs error
	for _, proc := range slices.Backward(group.procs) {
		errs = multierr.Append(errs, m.terminate(ctx, group.node, proc))
	}
	group.procs = nil
	return errs
}

func (m *Supervisor) terminate(ctx context.Context, node string, proc *process) error {
	log := m.log.With(zap.String("node", node), zap.String("daemon", proc.name))

	if proc.exited() {
		if proc.err != nil {
			log.Warnw("daemon exited before stop", zap.Error(proc.err))
		}
		return nil
	}

	if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to terminate %s: %w", proc.name, err)
	}

	timer := time.NewTimer(m.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-proc.done:
		log.Debugw("daemon stopped")
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	log.Warnw("daemon did not exit in time, killing", zap.Duration("timeout", m.cfg.StopTimeout))
	if err := proc.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill %s: %w", proc.name, err)
	}
	<-proc.done
	return nil
}
