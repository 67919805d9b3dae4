// Package publish sends the output directory to its release target.
//
// The git target stages dist, commits it with a timestamped message and
// pushes it to a named remote and branch:
//
//	g := publish.NewGit(publish.GitOptions{Dir: root, Dist: "dist", Remote: "develop", Branch: "master"})
//	err := g.Stage(ctx) // then g.Commit(ctx), then g.Push(ctx)
//
// Every step shells out to git. A failed step is returned as a coded error
// and is never retried.
//
// The s3 target mirrors dist into a bucket instead.
package publish
