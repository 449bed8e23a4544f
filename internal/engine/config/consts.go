package config

// DefaultSessionSecret is used when no secret is configured. Sessions sealed
// with it are readable by anyone who knows the default.
const DefaultSessionSecret = "123456"

// FaviconRoute is answered with 204 so browsers stop asking.
var FaviconRoute string = "/favicon.ico"

// NodeVersion is the version of the node. It can be set by the build system or manually.
// If not set, it will return "v0.0.0-none" by default
var NodeVersion string

var MetaDir string = "./.meta"

// RuntimeDirPattern names the per process runtime directory under os.TempDir.
var RuntimeDirPattern string = "*-edumonitor-runtime"

func init() {
	if NodeVersion == "" {
		NodeVersion = "v0.0.0-none"
	}
}
