// Package task composes named units of work into a graph and runs it.
//
// A Task is a leaf action, a series of tasks, or a parallel group of tasks.
// Composites nest:
//
//	build := task.Series("build",
//	    clean,
//	    task.Parallel("assets", styles, scripts, images, fonts, views),
//	)
//
//	runner := task.NewRunner(task.RunnerOptions{Logger: logger})
//	if err := runner.Run(ctx, build); err != nil {
//	    // err is a *task.Error naming the leaf that failed
//	}
//
// # Semantics
//
//   - Series runs each child to completion before starting the next and
//     stops at the first failure.
//   - Parallel starts every child at once and waits for all of them. The
//     first failure is returned; siblings are never cancelled.
//   - A composite with no children completes immediately.
//   - A panicking leaf is reported as a failure of that leaf.
//
// Tasks are immutable. Series and Parallel copy their children, and nothing
// in this package mutates a Task after construction. Because a composite can
// only reference tasks that already exist, a cycle cannot be expressed.
package task
