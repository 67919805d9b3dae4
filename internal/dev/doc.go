// Package dev provides the development server, the file watcher and live
// reload.
//
// # Architecture
//
// The development loop consists of three components:
//
//   - Watcher: watches the base directories of source globs with fsnotify
//     and fires bindings after a per-binding delay
//   - Server: serves the output directory and injects the reload client
//     into HTML pages
//   - ReloadServer: notifies browsers of changes via WebSocket
//
// # Usage
//
//	reload := dev.NewReloadServer(cfg.DistPath(), m)
//	srv := dev.NewServer(dev.ServerOptions{Config: cfg, Reload: reload})
//
//	w := dev.NewWatcher(dev.WatcherConfig{Root: cfg.Dir()}, dev.Binding{
//	    Name:    "styles",
//	    Sources: styles,
//	    Delay:   cfg.WatchDelay(),
//	    Action:  func(ctx context.Context, _ []string) { _ = runner.Run(ctx, stylesTask) },
//	})
//
//	go w.Start(ctx)
//	err := srv.Start(ctx)
//
// # Reload Protocol
//
// The browser connects to /_sitepipe/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                              // Triggers full page reload
//	{"type": "css", "file": "/assets/css/main.css"} // Refreshes stylesheets in place
//	{"type": "error", "error": "..."}               // Shows error overlay
//	{"type": "clear"}                               // Clears error overlay
package dev
