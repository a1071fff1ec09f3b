// Package process runs and tracks the child processes astview depends on:
// the compiler that turns source text into a diagram description and the
// layout tool that turns that description into an SVG image.
//
// # Supervisor
//
// The Supervisor starts processes with piped standard streams and keeps
// track of them until they are reaped, so that shutdown can terminate
// anything still running:
//
//	supervisor := process.NewSupervisor()
//	defer supervisor.Shutdown(2 * time.Second)
//
//	proc, err := supervisor.Start("compiler", exec.Command("./tc", "--ast-dump", "-"))
//	if err != nil {
//	    return err
//	}
//	// feed proc.Stdin, drain proc.Stdout and proc.Stderr, then:
//	err = proc.Wait()
//
// # Reaping
//
// A Process is reaped only by an explicit call to Wait. exec.Cmd.Wait closes
// the read side of the output pipes once the child exits, so the owner must
// finish draining Stdout and Stderr before calling Wait or data is lost.
//
// # Thread Safety
//
// Both Supervisor and Process are safe for concurrent use.
package process
