// Package transform provides the pipeline stages of each asset category.
//
//   - Sass compiles stylesheets with dart-sass and drops partials.
//   - CSS adds vendor prefixes, minifies and emits source maps.
//   - Bundle resolves script imports into one file per entry point.
//   - Images re-encodes PNG and JPEG files when that makes them smaller.
//   - Views renders HTML templates with shared partials.
//
// Fonts need no stage; the pipeline copies them as they are.
package transform
