// Package config loads and validates the sitepipe project configuration.
//
// Configuration lives in sitepipe.json (or sitepipe.toml) at the project root:
//
//	{
//	  "paths":   {"src": "src", "dist": "dist"},
//	  "styles":  {"src": "src/styles/**/*.scss", "dest": "dist/assets/css"},
//	  "scripts": {"src": "src/scripts/**/*.js", "dest": "dist/assets/js"},
//	  "images":  {"src": "src/images/**/*.{jpg,jpeg,png}", "dest": "dist/assets/images", "level": 5},
//	  "fonts":   {"src": "src/fonts/**/*.{eot,svg,ttf,woff,woff2}", "dest": "dist/assets/fonts"},
//	  "views":   {"src": "src/index.ejs", "dest": "dist"},
//	  "dev":     {"port": 3000, "open": false},
//	  "publish": {"remote": "develop", "branch": "master"}
//	}
//
// Every field is optional. Missing fields take the defaults returned by New,
// and a project without any config file builds with those defaults.
//
// A Config is passed explicitly to every component that needs it; nothing in
// sitepipe reads configuration from package-level state.
package config
