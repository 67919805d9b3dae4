// Package build wires a project configuration into the named task graph.
//
// A Site owns one pipeline per asset category, the live-reload channel and
// the task registry every CLI command runs against:
//
//	site, err := build.New(build.Options{Config: cfg, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	err = site.Run(ctx, "build")
//
// # Tasks
//
//	clean                   remove dist/
//	styles scripts images   category pipelines
//	fonts views
//	serve                   dev server on dist/
//	watch                   rebuild categories when sources change
//	reload                  push a reload to connected browsers
//	build                   series(clean, parallel(styles, scripts, images, fonts, views))
//	default                 parallel(build, serve, watch)
//	publish:stage           git add dist
//	publish:commit          git commit -m "Send to production <date>"
//	publish:push            git push <remote> <branch>
//	publish:upload          mirror dist/ to S3
//	production              the publish steps for publish.target
//
// # Output Structure
//
//	dist/
//	├── index.html
//	└── assets/
//	    ├── css/      main.css, main.css.map
//	    ├── js/       bundles
//	    ├── images/   optimized images
//	    └── fonts/    copied fonts
package build
