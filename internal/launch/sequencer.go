// Package launch runs the fixed timed launch sequence: start the launcher,
// wait, start the game, wait, start the launcher again. Progress is reported
// as ordered strings over a channel; the Finished sentinel is always last.
package launch

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Finished is the control sentinel sent as the final message of every run,
// successful or not. It is distinct from human-readable status text.
const Finished = "FINISHED"

const (
	gameCountdownSecs     = 10
	relaunchCountdownSecs = 60

	// progressBuffer exceeds the largest possible message count of a run
	// (74), so producer sends never block on a slow consumer.
	progressBuffer = 128
)

// ErrAlreadyRunning rejects Start while a sequence is still active.
var ErrAlreadyRunning = errors.New("a run sequence is already active")

// State is the sequencer's position in the run.
type State int

const (
	StateIdle State = iota
	StateLaunchingLauncher
	StateGameCountdown
	StateLaunchingGame
	StateRelaunchCountdown
	StateRelaunching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunchingLauncher:
		return "launching launcher"
	case StateGameCountdown:
		return "game countdown"
	case StateLaunchingGame:
		return "launching game"
	case StateRelaunchCountdown:
		return "relaunch countdown"
	case StateRelaunching:
		return "relaunching launcher"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the sequence has ended.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Spawner starts an external process fire-and-forget: no arguments, no wait.
type Spawner interface {
	Spawn(path string) error
}

type execSpawner struct{}

func (execSpawner) Spawn(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Fire and forget: the child is never waited on.
	_ = cmd.Process.Release()
	return nil
}

// Sequencer runs at most one sequence at a time on a background goroutine.
// The zero value is ready to use: real process spawning, one-second pacing,
// Battle.net/WoW role names.
type Sequencer struct {
	Spawn        Spawner
	Tick         time.Duration
	LauncherRole string
	GameRole     string

	mu      sync.Mutex
	running bool
	state   State
	runID   string
}

// Start begins the sequence and returns the progress channel. It does not
// block on any launch step. The channel is closed after Finished is sent.
// Start fails with ErrAlreadyRunning while a previous sequence is active;
// path validation is the caller's duty and happens before this point.
func (s *Sequencer) Start(launcherPath, gamePath string) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadyRunning
	}
	if s.Spawn == nil {
		s.Spawn = execSpawner{}
	}
	if s.Tick == 0 {
		s.Tick = time.Second
	}
	if s.LauncherRole == "" {
		s.LauncherRole = "Battle.net"
	}
	if s.GameRole == "" {
		s.GameRole = "WoW"
	}
	s.running = true
	s.runID = uuid.NewString()
	s.state = StateLaunchingLauncher

	ch := make(chan string, progressBuffer)
	go s.run(ch, launcherPath, gamePath)
	return ch, nil
}

// Active reports whether a sequence is still running.
func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// State returns the current sequence state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID identifies the current (or most recent) run.
func (s *Sequencer) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

func (s *Sequencer) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Sequencer) run(ch chan<- string, launcherPath, gamePath string) {
	defer close(ch)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	// Sends must never stall the one-second pacing. The buffer already
	// covers a full run, so the default branch is a hard backstop only.
	send := func(msg string) {
		select {
		case ch <- msg:
		default:
		}
	}

	if err := s.Spawn.Spawn(launcherPath); err != nil {
		s.setState(StateFailed)
		send(fmt.Sprintf("Failed to launch %s: %v", s.LauncherRole, err))
		send(Finished)
		return
	}
	send("Launched " + s.LauncherRole)

	s.setState(StateGameCountdown)
	for rem := gameCountdownSecs; rem >= 1; rem-- {
		send(fmt.Sprintf("Waiting to launch %s: %ds", s.GameRole, rem))
		time.Sleep(s.Tick)
	}

	s.setState(StateLaunchingGame)
	if err := s.Spawn.Spawn(gamePath); err != nil {
		s.setState(StateFailed)
		send(fmt.Sprintf("Failed to launch %s: %v", s.GameRole, err))
		send(Finished)
		return
	}
	send("Launched " + s.GameRole)

	s.setState(StateRelaunchCountdown)
	for rem := relaunchCountdownSecs; rem >= 1; rem-- {
		send(fmt.Sprintf("Waiting before re-launching %s: %ds", s.LauncherRole, rem))
		time.Sleep(s.Tick)
	}

	// The second launcher start is non-fatal: the run completes either way.
	s.setState(StateRelaunching)
	if err := s.Spawn.Spawn(launcherPath); err != nil {
		send(fmt.Sprintf("Failed to launch %s (second): %v", s.LauncherRole, err))
	} else {
		send("Launched " + s.LauncherRole + " (second)")
	}

	s.setState(StateDone)
	send(Finished)
}
