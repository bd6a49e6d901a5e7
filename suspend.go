package main

import "os"

// suspendGate vetoes rotation while its flag file exists. The file is owned
// by the user (touch to suspend, rm to resume); this process never creates
// or removes it, and every check hits the filesystem fresh.
type suspendGate struct {
	path string
}

func (g suspendGate) Suspended() bool {
	_, err := os.Stat(g.path)
	return err == nil
}
