// Package control drives a differential drivetrain to a linear distance.
//
// A [Controller] runs one blocking motion command on a [drive.Pair]:
//
//  1. the distance is converted to a rotation setpoint once
//  2. both actuators receive the same relative move
//  3. a timed polling loop samples both actuators every tick, runs the
//     strategy's correction [Stage] list and pushes velocity overrides
//  4. the loop exits when the master position is inside the dead band
//
// Strategies are stacks of stages, each one a refinement of the previous:
//
//   - [OpenLoop]: no stages, the loop only polls for termination
//   - [StraightTrack]: slave velocity corrected toward the master
//   - [Proportional]: plus a positional term written to both actuators
//   - [ProportionalDerivative]: plus a derivative term on the position error
//
// Stages run in order and a later stage overwrites an earlier stage's
// command for the same actuator in the same tick; commands never sum.
//
// # Usage
//
//	ctrl := control.New(control.DefaultConfig(), nil) // interval scheduler
//	res, err := ctrl.Run(ctx, control.Command{
//		Strategy: control.ProportionalDerivative,
//		Distance: 48,
//		Power:    100,
//	}, drive.NewPair(left, right))
//
// The tick source is a [Scheduler]; any type with Wait(ctx) can pace the
// loop, including a simulated plant that advances its physics per tick.
package control
