package sidecar

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

func osRootFs() billy.Filesystem {
	return osfs.New("/")
}
