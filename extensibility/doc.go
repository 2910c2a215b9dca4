// Package extensibility holds pluggable pieces around a container: intent
// sources that feed it from outside, and StateMachine wrappers that add
// logging or guards without touching the concrete machine.
package extensibility
