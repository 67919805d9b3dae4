// Package errors provides structured, actionable error messages for sitepipe.
//
// Every error that reaches the command line carries:
//   - A unique code (e.g., "E301") with a short message
//   - The source location when a transform reports one
//   - A hint on how to fix the problem
//
// # Error Categories
//
//   - config: sitepipe.json / sitepipe.toml problems
//   - task: task graph and registry problems
//   - transform: a category pipeline stage failed (Sass syntax, bundling, templates)
//   - publish: git or object storage failures while publishing dist/
//   - server: the development server could not start
//
// # Usage
//
//	err := errors.New("E301").
//	    WithLocation("src/styles/main.scss", 12, 5).
//	    WithDetail("expected \";\"").
//	    Wrap(cause)
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR E301: Style compilation failed
//	//
//	//   src/styles/main.scss:12:5
//	//
//	//      11 │ body {
//	//   →  12 │   color: red
//	//        │     ^
//	//      13 │ }
package errors
