package constant

// Values of runtime.GOOS that get their own install hints.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
