// Package mvix is a generic Model-View-Intent state container.
//
// A Container owns one state value of type S. Producers submit intents of
// type I; a StateMachine turns each intent into zero or more actions of type
// A, and folds every action into the next state with a pure Reduce. Side
// effects that must be observed exactly once, such as navigation or toasts,
// are emitted as events of type E and handed to exactly one subscriber.
//
// Intents are handled one at a time in submission order, and actions are
// reduced one at a time in dispatch order. Handlers may keep dispatching
// from goroutines they start, so long-running work does not stall the
// intent queue.
//
//	c, err := mvix.New[State, Intent, Action, Event](ctx, State{}, machine)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	_ = c.SubmitIntent(ctx, Refresh{})
//	for s := range mvix.Seq(ctx, c.StateStream()) {
//		render(s)
//	}
//
//go:generate go test ./... -race
package mvix
