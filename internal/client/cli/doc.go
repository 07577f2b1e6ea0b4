// Package cli is the ustory command tree.
//
// Every command loads the configuration (defaults, config file, flags),
// opens the client through app.New and closes it before returning. The
// long-running "serve" command additionally runs the app shell server with
// the connectivity watcher and background sync.
//
//	ustory login
//	ustory stories --location
//	ustory post -d "Jalan pagi" -p photo.jpg --lat -6.2 --lon 106.8
//	ustory pending
//	ustory sync
//	ustory fav add <id>
//	ustory serve
package cli
