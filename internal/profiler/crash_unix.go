//go:build linux || darwin

package profiler

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/profiling-lite/profiling-lite-go/internal/host"
	"github.com/profiling-lite/profiling-lite-go/internal/intern"
)

type crashChannel chan os.Signal

var (
	crashLocation = intern.RegisterLocation(intern.Location{
		Name:     "CRASHED",
		Function: "handleCrash",
		File:     "profiling-lite-go",
	})
	crashSignalParam = intern.RegisterString("signal")
)

// installCrashHandler arranges a best-effort drain when the process
// receives a fatal signal. The hook only sees signals delivered
// asynchronously (e.g. via kill); faults raised by Go code itself are
// turned into panics by the runtime before os/signal gets a say.
func (p *Profiler) installCrashHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch,
		unix.SIGILL, unix.SIGFPE, unix.SIGSEGV, unix.SIGPIPE, unix.SIGBUS)
	p.crashCh = ch
	go p.handleCrash(ch)
}

func (p *Profiler) removeCrashHandler() {
	if p.crashCh == nil {
		return
	}
	signal.Stop(p.crashCh)
	close(p.crashCh)
	p.crashCh = nil
}

// handleCrash marks a terminal zone carrying the signal number, asks
// the writer to shut down, and gives it time to persist the ring
// before re-raising the signal with its default disposition.
func (p *Profiler) handleCrash(ch chan os.Signal) {
	sig, ok := <-ch
	if !ok {
		return
	}
	signo, _ := sig.(syscall.Signal)

	corr := NextCorrelator()
	p.EmitZoneStart(corr, host.ThreadID(), host.Now(), crashLocation)
	p.EmitZoneParamInt(corr, crashSignalParam, int64(signo))
	p.log.Error().Int("signal", int(signo)).Msg("fatal signal, draining capture")
	time.Sleep(100 * time.Millisecond)
	p.EmitZoneEnd(corr, host.Now())

	p.shutdown.Store(true)
	time.Sleep(1 * time.Second)

	signal.Reset(sig)
	_ = unix.Kill(unix.Getpid(), signo)
}
