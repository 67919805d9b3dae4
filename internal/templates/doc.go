// Package templates provides project scaffolding for sitepipe init.
//
// # Available Templates
//
//   - basic: styles, scripts, images, fonts and a view with a partial
//   - blank: a config file and a single view
//
// # Usage
//
//	tmpl, err := templates.Get("basic")
//	if err != nil {
//	    return err
//	}
//	err = tmpl.Create(dir, templates.Config{ProjectName: "site"})
//
// # Template Variables
//
// Scaffold files are executed with [[ and ]] as delimiters so the view
// templates they contain keep their own {{ }} actions:
//
//	[[.ProjectName]]     - Name of the project
//	[[.Description]]     - Project description
//	[[.RemoteURL]]       - Publish remote, if any
package templates
