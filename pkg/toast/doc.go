// Package toast provides the status notifications for feed mutations.
//
// A Channel is the process-wide notification surface. Indicators on it are
// de-duplicated by id: showing an indicator whose id is already visible
// replaces it in place. Terminal indicators (success, error) dismiss
// themselves after a fixed interval.
//
// A Notifier binds one mutation to one indicator through a Token:
//
//	tok := notifier.Begin("Posting your update...")
//	runner.Run(ctx, d, func(out mutation.Outcome) {
//	    notifier.Resolve(tok, out.Err, "You have successfully edited the update.")
//	})
//
// Begin shows a pending indicator immediately. Resolve reuses the same id to
// transition it to success or error, so repeating an action quickly never
// stacks popups. Every Begin must be matched by exactly one Resolve or
// Discard.
//
// # Presentation
//
// The presentation layer consumes the channel through Subscribe (or the
// websocket stream in package stream). Each change is delivered as an Event
// named "goalfeed:toast":
//
//	window.addEventListener("goalfeed:toast", (e) => {
//	    const { action, indicator } = e.detail;
//	    toast[indicator.type](indicator.message, { id: indicator.id });
//	});
//
// No business logic reads the channel back.
package toast
