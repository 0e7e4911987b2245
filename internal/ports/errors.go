package ports

// ErrNotFound is returned by repositories when the requested record does not
// exist. Adapters map their driver-level sentinel onto this one.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }
