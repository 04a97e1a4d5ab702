package core

import "io"

func closeResource(closer io.Closer) {
	_ = closer.Close()
}
