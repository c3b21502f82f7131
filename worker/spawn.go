package worker

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/hyperpolymath/anamnesis/errors"
)

// Conn is the duplex stream a channel speaks the framed protocol over.
type Conn = io.ReadWriteCloser

// ProcessSpawner launches the worker binary and exposes its stdio pipes as
// the channel's duplex connection. Worker stderr passes through to the
// parent's stderr for crash diagnostics.
type ProcessSpawner struct {
	Path   string
	Args   []string
	Logger *slog.Logger
}

// Spawn starts one worker process. Closing the returned connection closes
// stdin (the worker's shutdown signal), then kills the process if it does
// not exit promptly.
func (s *ProcessSpawner) Spawn(ctx context.Context) (Conn, error) {
	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.WrapFatal(err, "ProcessSpawner", "Spawn", "stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.WrapFatal(err, "ProcessSpawner", "Spawn", "stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.WrapTransient(err, "ProcessSpawner", "Spawn", "process start")
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("worker process started", "path", s.Path, "pid", cmd.Process.Pid)

	return &processConn{
		reader: stdout,
		writer: stdin,
		cmd:    cmd,
		logger: logger,
	}, nil
}

// processConn binds a worker's stdout/stdin pipes and process handle into
// one closable duplex stream.
type processConn struct {
	reader io.ReadCloser
	writer io.WriteCloser
	cmd    *exec.Cmd
	logger *slog.Logger
}

func (pc *processConn) Read(p []byte) (int, error) {
	return pc.reader.Read(p)
}

func (pc *processConn) Write(p []byte) (int, error) {
	return pc.writer.Write(p)
}

// Close signals shutdown by closing the worker's stdin, waits briefly for a
// clean exit, and kills the process if it lingers.
func (pc *processConn) Close() error {
	_ = pc.writer.Close()

	done := make(chan error, 1)
	go func() { done <- pc.cmd.Wait() }()

	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		pc.logger.Warn("worker did not exit after stdin close, killing", "pid", pc.cmd.Process.Pid)
		_ = pc.cmd.Process.Kill()
		return <-done
	}
}

var _ Spawner = (*ProcessSpawner)(nil)
