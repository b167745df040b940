package xforward

import (
	"os"
	"sync/atomic"
)

var localNode atomic.Pointer[string]

func init() {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	localNode.Store(&host)
}

// LocalNode returns the node name stamped on entries produced in this process.
// Defaults to the host name.
func LocalNode() string { return *localNode.Load() }

// SetLocalNode overrides the process node name. Loggers built afterwards pick it up.
func SetLocalNode(node string) {
	if node == "" {
		return
	}
	localNode.Store(&node)
}
