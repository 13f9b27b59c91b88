// Command createadmin creates an admin account or promotes an existing one.
//
// It reads ADMIN_EMAIL, ADMIN_PASSWORD and optionally ADMIN_USERNAME and
// ADMIN_PERMISSIONS (comma separated) from the environment, after loading
// a .env file when present.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
