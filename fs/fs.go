package appfs

import "embed"

// FS embeds the database migrations and static assets (email templates,
// common passwords list) so binaries run without a working-directory layout.
//go:embed migrations assets assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS
