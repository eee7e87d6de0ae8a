// Package cli provides the interactive command-line client.
//
// The REPL signs in against the user pool through the auth function, then
// drives the project, file and PDF functions: uploads go straight to
// presigned URLs, and processed documents can be questioned and their
// history listed. Start it with App.Run(ctx), which blocks until the user
// exits.
package cli
