// Package drive defines the actuator side of a differential drivetrain.
//
// A drivetrain is two independently commanded rotary actuators:
//
//   - [Actuator]: position/velocity readback plus relative-move and
//     velocity-override commands
//   - [Pair]: the two actuators with an explicit [Role] each
//
// The master actuator is treated as ground truth for straight tracking and
// is the only one checked for termination; the slave is corrected toward it.
//
// # Ownership
//
// A Pair is borrowed by exactly one motion command at a time. Nothing in this
// package locks; concurrent commands on the same actuators are not supported.
package drive
