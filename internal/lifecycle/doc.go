// Package lifecycle carries host shell lifecycle notifications.
//
// The windowing toolkit is an external collaborator; all the shell needs
// from it is "the application is closing". That contract is modelled as
// Events published on a Dispatcher. SignalSource feeds the same dispatcher
// from OS signals, so a kill from a terminal or the session manager takes
// the same shutdown path as a window close.
//
// Example Usage:
//
//	d := lifecycle.NewDispatcher(logger)
//	unsubscribe := d.Subscribe(func(evt lifecycle.Event) {
//	    if evt.Kind.Terminal() {
//	        // release resources
//	    }
//	})
//	defer unsubscribe()
//	d.Emit(lifecycle.NewEvent(lifecycle.CloseRequested, "window"))
package lifecycle
