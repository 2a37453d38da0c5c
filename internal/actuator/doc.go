// Package actuator manages the serial link to the IR trigger
// microcontroller.
//
// The link is a thin, mutex-guarded wrapper over a serial port: connect,
// disconnect, write, and a line read with timeout for the test command.
// It is shared by the IR worker and the hotplug monitor but owned by
// neither; a failed write never aborts a sweep, it is recorded per
// frequency by the caller.
package actuator
