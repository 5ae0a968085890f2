// Package cli implements the wordbook command line client on cobra.
//
// Commands
//
//	signup, signin, signout, whoami
//	list [--sort latest|alphabetical] [--filter text]
//	show <id>
//	add --term --description [--source] [--media file...]
//	edit <id> [--term] [--description] [--source] [--add-media file...] [--remove-media url...]
//	delete <id> [--yes]
//	media upload <file...>
//	media rm <url>
//
// Global flags --config, --server, --session-db and --timeout override the
// values loaded by the config package.
package cli
