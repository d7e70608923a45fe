// Command foundation-selftest is runnable documentation for this
// module: it exercises Initialize/Run/Finalize end to end against a
// handful of the library's components, the way the teacher's
// eventloop/examples/ binaries exercise eventloop end to end.
//
// Run with: go run ./cmd/foundation-selftest/
package main

import (
	"fmt"
	"os"

	foundation "github.com/joeycumines/go-foundation"
	"github.com/joeycumines/go-foundation/pathutil"
	"github.com/joeycumines/go-foundation/process"
	"github.com/joeycumines/go-foundation/thread"
)

func main() {
	var dumps int

	f, err := foundation.Initialize(
		foundation.Application{
			Name:      "Foundation Selftest",
			ShortName: "foundation-selftest",
			Company:   "joeycumines",
			Version:   "0.1.0",
			ExceptionHandler: func(info process.DumpInfo) {
				dumps++
				fmt.Fprintf(os.Stderr, "fault trapped: %s (dump: %s)\n", info.Message, info.DumpPath)
			},
		},
		foundation.WithMemoryTracker(true),
		foundation.WithThreadMapSize(16),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize: %v\n", err)
		os.Exit(process.ExitInitFailure)
	}

	code := f.Run(func() error {
		return runSelftest(f)
	})

	leaks := f.Finalize()
	if len(leaks) > 0 {
		fmt.Fprintf(os.Stderr, "%d leaked allocation(s) at shutdown\n", len(leaks))
	}
	os.Exit(code)
}

func runSelftest(f *foundation.Foundation) error {
	log := f.Log.With("component", "selftest")

	log.Info().
		UUID("instance_uuid", f.Application.InstanceUUID.String()).
		Msg("starting selftest")

	buf, src := f.Memory.Allocate(256, 8, 0)
	log.Debug().Int("bytes", len(buf)).Msg("allocated scratch buffer")
	f.Memory.Deallocate(buf, src)

	h, err := f.Threads.Spawn("selftest-worker", func(t *thread.Thread) {
		_ = t.PushErrorContext("selftest-worker", "demonstration frame")
		defer t.PopErrorContext()
	})
	if err != nil {
		return fmt.Errorf("spawning worker thread: %w", err)
	}
	if th, err := f.Threads.Lookup(h); err == nil {
		th.Join()
	}

	cleaned := pathutil.Clean("assets/textures/../models/./x.obj")
	log.Info().Str("cleaned_path", cleaned).Msg("pathutil.Clean demonstration")

	log.Info().Msg("selftest complete")
	return nil
}
