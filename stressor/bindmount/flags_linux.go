package bindmount

import "golang.org/x/sys/unix"

const (
	bind  = unix.MS_BIND
	rbind = unix.MS_BIND | unix.MS_REC
)
