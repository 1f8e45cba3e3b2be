// Package transport implements the dual-mode progress-event delivery
// contract: a bounded, thread-safe primary queue with a sentinel-prefixed
// stdout line fallback, selected at startup and capable of switching
// mid-audit if the primary mode fails.
package transport

import (
	"math/rand"
	"time"
)

// Mode is the wire representation an Emitter currently uses.
type Mode string

const (
	ModeQueue  Mode = "queue"
	ModeStdout Mode = "stdout"
)

// SelectionInputs carries the three-way priority used to pick a mode at
// startup: explicit CLI flag > environment variable > percentage-based
// random rollout.
type SelectionInputs struct {
	// ForcePrimary / ForceFallback come from --use-queue-ipc / --use-stdout.
	ForcePrimary  bool
	ForceFallback bool

	// EnvMode comes from QUEUE_IPC_MODE ("queue" | "stdout" | "fallback").
	EnvMode string

	// RolloutFraction is the default rollout fraction for primary mode
	// (QUEUE_IPC_ROLLOUT), consulted only if neither flag nor env decide it.
	RolloutFraction float64

	// Rand supplies the rollout dice roll; tests inject a deterministic
	// source instead of the package-level generator.
	Rand *rand.Rand
}

// SelectMode resolves the transport mode using SelectionInputs's priority
// order. The selected mode should be logged at INFO by the caller.
func SelectMode(in SelectionInputs) Mode {
	if in.ForcePrimary {
		return ModeQueue
	}
	if in.ForceFallback {
		return ModeStdout
	}
	switch in.EnvMode {
	case "queue":
		return ModeQueue
	case "stdout", "fallback":
		return ModeStdout
	}

	r := in.Rand
	if r == nil {
		r = rand.New(rand.NewSource(rollSeed()))
	}
	if r.Float64() < in.RolloutFraction {
		return ModeQueue
	}
	return ModeStdout
}

// rollSeed exists only so production code has a seed source distinct from
// a fixed test constant; tests always inject their own *rand.Rand.
func rollSeed() int64 {
	return time.Now().UnixNano()
}
