package lab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/netlab/common/go/xcmd"
	"github.com/yanet-platform/netlab/emulator"
	"github.com/yanet-platform/netlab/provision"
	"github.com/yanet-platform/netlab/topology"
)

const firstRunAdvisory = `If this is your first time running the program,
consider running the program with "-h" to see the options
`

// Runner runs a lab: it decides whether to provision, builds the topology,
// provisions the routers and hands the result to the emulator.
type Runner struct {
	cfg *Config
	fs  billy.Filesystem
	out io.Writer
	log *zap.SugaredLogger
}

// NewRunner creates a lab runner. Every filesystem access goes through fs.
func NewRunner(cfg *Config, fs billy.Filesystem, options ...Option) (*Runner, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		cfg: cfg,
		fs:  fs,
		out: opts.Output,
		log: opts.Log,
	}, nil
}

// Paths returns the configuration directory template of the routers.
func (m *Runner) Paths() topology.PathTemplate {
	return topology.NewPathTemplate(m.cfg.Lab.ConfigDir)
}

// Topology builds the selected topology preset.
func (m *Runner) Topology() (*topology.Topology, error) {
	preset, err := topology.LookupPreset(m.cfg.Lab.Topology)
	if err != nil {
		return nil, err
	}
	return preset.Build(m.Paths())
}

// Prepare builds the topology and provisions its routers when the policy
// says so. Nothing is provisioned unless the whole topology is valid.
func (m *Runner) Prepare(ctx context.Context) (*topology.Topology, error) {
	paths := m.Paths()

	decision, err := provision.Decide(m.fs, m.cfg.Lab.GenerateConfig, paths.Base())
	if err != nil {
		return nil, err
	}
	if decision.Reason == provision.ReasonFirstRun {
		fmt.Fprint(m.out, firstRunAdvisory+strings.Repeat("=", 40)+"\n")
	}
	m.log.Infow("provisioning decision",
		zap.Bool("provision", decision.Provision),
		zap.Stringer("reason", decision.Reason),
		zap.String("config_dir", paths.Base()),
	)

	topo, err := m.Topology()
	if err != nil {
		return nil, err
	}

	if !decision.Provision {
		m.log.Infow("reusing existing router configuration", zap.String("config_dir", paths.Base()))
		return topo, nil
	}

	templates, err := provision.LoadTemplates(m.fs, m.cfg.Provision, provision.WithLog(m.log))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	provisioner, err := provision.NewProvisioner(
		m.fs,
		templates,
		paths,
		provision.WithLog(m.log),
		provision.WithParallelism(m.cfg.Provision.Parallelism),
	)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, router := range topo.Routers() {
		names = append(names, router.Name)
	}
	if err := provisioner.ProvisionAll(ctx, names); err != nil {
		return nil, err
	}

	return topo, nil
}

// Run prepares the lab, starts it on the emulator and blocks until the
// emulator finishes, the context is canceled or the process is interrupted.
//
// The emulator is always stopped once Build has been called. An interrupt
// is reported as xcmd.Interrupted.
func (m *Runner) Run(ctx context.Context, emu emulator.Emulator, hooks emulator.Hooks) (err error) {
	topo, err := m.Prepare(ctx)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	defer func() {
		stoppedAt := time.Now()
		if stopErr := emu.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to stop the lab: %w", stopErr))
		}
		m.log.Infow("finished stopping network", zap.Duration("took", time.Since(stoppedAt)))
	}()

	if err := emu.Build(ctx, topo, hooks); err != nil {
		return fmt.Errorf("failed to build the lab: %w", err)
	}
	if err := emu.Start(ctx); err != nil {
		return fmt.Errorf("failed to start the lab: %w", err)
	}
	m.log.Infow("finished initializing network",
		zap.String("topology", topo.Name()),
		zap.Int("nodes", len(topo.Nodes())),
		zap.Duration("took", time.Since(startedAt)),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		defer cancel()
		return emu.Wait(ctx)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		if !errors.Is(err, xcmd.Interrupted{}) {
			return nil
		}
		m.log.Infof("caught signal: %v", err)
		return err
	})

	return wg.Wait()
}
