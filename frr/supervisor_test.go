package frr

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/topology"
)

// hostEnv runs commands directly on the host.
type hostEnv struct {
	node string
}

func (m hostEnv) Node() string {
	return m.node
}

func (m hostEnv) Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

func lookPath(t *testing.T, name string) string {
	t.Helper()

	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s is not available: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, binary string, daemons ...DaemonConfig) *Config {
	t.Helper()

	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.BinDir = filepath.Dir(binary)
	cfg.RunDir = topology.NewPathTemplate(filepath.Join(root, "run"))
	cfg.LogDir = topology.NewPathTemplate(filepath.Join(root, "log"))
	cfg.Daemons = daemons
	cfg.StopTimeout = 200 * time.Millisecond
	return cfg
}

func TestSupervisorStartStop(t *testing.T) {
	sleep := lookPath(t, "sleep")
	cfg := testConfig(t, sleep, DaemonConfig{Name: filepath.Base(sleep), Args: []string{"30"}})

	s, err := NewSupervisor(cfg)
	require.NoError(t, err)

	node := topology.Node{Name: "R11", Kind: topology.KindRouter, ConfigDir: "lab/R11"}
	handle, err := s.Start(context.Background(), hostEnv{node: "R11"}, node, node.ConfigDir)
	require.NoError(t, err)

	group, ok := handle.(*Group)
	require.True(t, ok)
	require.Equal(t, "R11", group.Node())
	require.Equal(t, []string{filepath.Base(sleep)}, group.Daemons())

	require.DirExists(t, cfg.RunDir.Resolve("R11"))
	require.FileExists(t, filepath.Join(cfg.LogDir.Resolve("R11"), filepath.Base(sleep)+".log"))

	startedAt := time.Now()
	require.NoError(t, s.Stop(context.Background(), handle))
	require.Less(t, time.Since(startedAt), 5*time.Second)
	require.Empty(t, group.Daemons())
}

func TestSupervisorKillsStuckDaemon(t *testing.T) {
	sh := lookPath(t, "sh")
	lookPath(t, "sleep")
	cfg := testConfig(t, sh, DaemonConfig{
		Name: filepath.Base(sh),
		Args: []string{"-c", "trap '' TERM; exec sleep 30"},
	})

	s, err := NewSupervisor(cfg)
	require.NoError(t, err)

	node := topology.Node{Name: "R12", Kind: topology.KindRouter, ConfigDir: "lab/R12"}
	handle, err := s.Start(context.Background(), hostEnv{node: "R12"}, node, node.ConfigDir)
	require.NoError(t, err)

	// Let the shell install the trap before it is signaled.
	time.Sleep(100 * time.Millisecond)

	startedAt := time.Now()
	require.NoError(t, s.Stop(context.Background(), handle))
	require.GreaterOrEqual(t, time.Since(startedAt), cfg.StopTimeout)
}

func TestSupervisorExpandsArguments(t *testing.T) {
	sh := lookPath(t, "sh")
	cfg := testConfig(t, sh, DaemonConfig{
		Name: filepath.Base(sh),
		Args: []string{"-c", "echo {name} {config} {run}/zebra.pid; exec sleep 30"},
	})

	s, err := NewSupervisor(cfg)
	require.NoError(t, err)

	node := topology.Node{Name: "R21", Kind: topology.KindRouter, ConfigDir: "/srv/lab/R21"}
	handle, err := s.Start(context.Background(), hostEnv{node: "R21"}, node, node.ConfigDir)
	require.NoError(t, err)

	logPath := filepath.Join(cfg.LogDir.Resolve("R21"), filepath.Base(sh)+".log")
	expected := "R21 /srv/lab/R21 " + cfg.RunDir.Resolve("R21") + "/zebra.pid\n"
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil && string(data) == expected
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(context.Background(), handle))
}

func TestSupervisorStartFailureStopsStarted(t *testing.T) {
	sleep := lookPath(t, "sleep")
	cfg := testConfig(t, sleep,
		DaemonConfig{Name: filepath.Base(sleep), Args: []string{"30"}},
		DaemonConfig{Name: "definitely-not-a-daemon"},
	)

	s, err := NewSupervisor(cfg)
	require.NoError(t, err)

	node := topology.Node{Name: "R31", Kind: topology.KindRouter, ConfigDir: "lab/R31"}
	_, err = s.Start(context.Background(), hostEnv{node: "R31"}, node, node.ConfigDir)
	require.ErrorContains(t, err, "failed to start definitely-not-a-daemon")
}

func TestSupervisorUnexpectedHandle(t *testing.T) {
	s, err := NewSupervisor(DefaultConfig())
	require.NoError(t, err)
	require.Error(t, s.Stop(context.Background(), "R11"))
}

func TestConfigValidate(t *testing.T) {
	cases := []string{
		`bin_dir: ""`,
		`run_dir: /var/run/netlab`,
		`log_dir: ""`,
		`daemons: []`,
		`daemons: [{name: zebra}, {name: zebra}]`,
		`daemons: [{name: ../zebra}]`,
		`stop_timeout: 0s`,
	}

	for _, c := range cases {
		cfg := DefaultConfig()
		require.Error(t, yaml.Unmarshal([]byte(c), cfg), c)
	}

	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("stop_timeout: 1s\ndaemons: [{name: zebra, args: [-A, 127.0.0.1]}]\n"), cfg))
	require.Equal(t, time.Second, cfg.StopTimeout)
	require.Equal(t, []DaemonConfig{{Name: "zebra", Args: []string{"-A", "127.0.0.1"}}}, cfg.Daemons)
}

func TestDefaultConfigMatchesFRR(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	names := []string{}
	for _, daemon := range cfg.Daemons {
		names = append(names, daemon.Name)
	}
	require.Equal(t, []string{"zebra", "staticd", "ospfd", "bgpd"}, names)
	require.Equal(t, []string{
		"-A", "127.0.0.1", "-s", "90000000",
		"-f", "{config}/frr.conf",
		"-i", "{run}/zebra.pid",
		"-z", "{run}/zserv.api",
		"--vty_socket", "{run}",
	}, cfg.Daemons[0].Args)
}
