// Package supervisor owns the backend interpreter process for one run of
// the shell.
//
// A Supervisor spawns the runtime chosen by the locator exactly once and
// terminates it exactly once. Both operations take a guard whose
// acquisition is bounded by a context, so a stuck holder cannot keep the
// shell from exiting. The shutdown side is exposed as a lifecycle hook:
//
//	sup := supervisor.New(supervisor.DefaultOptions(), logger)
//	if _, err := sup.Spawn(ctx, loc); err != nil {
//	    return err
//	}
//	dispatcher.Subscribe(sup.Hook())
//
// Platform behaviour:
//   - Windows: CREATE_NO_WINDOW, and a kill-on-close job object holding the child
//   - Linux: own process group, SIGKILL on parent death
//   - Other Unix: own process group
//
// Termination is fire-and-forget by default. With a grace period the child
// is first asked to stop (SIGTERM to its group) and killed if it has not
// exited in time. Either way the child is reaped in the background.
//
// When the interpreter exits first, on its own or after the stop request,
// terminating still kills what it left in its process group or job, such as
// a reloader's worker holding the backend's port.
package supervisor
