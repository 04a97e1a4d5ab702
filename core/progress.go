package core

import (
	"io"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/smarty/upkeep/contracts"
)

var suffixes = [5]string{"B", "KB", "MB", "GB", "TB"}

func round(val float64, roundOn float64, places int) (newVal float64) {
	var rounded float64
	pow := math.Pow(10, float64(places))
	digit := pow * val
	_, div := math.Modf(digit)
	if div >= roundOn {
		rounded = math.Ceil(digit)
	} else {
		rounded = math.Floor(digit)
	}
	newVal = rounded / pow
	return
}

func HumanFileSize(size float64) string {
	if size < 1 {
		return "0 B"
	}
	base := math.Log(size) / math.Log(1024)
	getSize := round(math.Pow(1024, base-math.Floor(base)), .5, 2)
	getSuffix := suffixes[int(math.Floor(base))]
	return strconv.FormatFloat(getSize, 'f', -1, 64) + " " + getSuffix
}

// progressCounter periodically forwards byte counts to the caller's progress
// callback while an archive streams through it. Total of -1 means unknown.
type progressCounter struct {
	written    int64
	total      int64
	phase      string
	onProgress contracts.ProgressFunc
	printTimer *time.Ticker
	done       chan struct{}
}

func NewProgressCounter(phase string, total int64, onProgress contracts.ProgressFunc) io.WriteCloser {
	this := &progressCounter{
		total:      total,
		phase:      phase,
		onProgress: onProgress,
		printTimer: time.NewTicker(time.Second),
		done:       make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-this.printTimer.C:
				this.reportProgress()
			case <-this.done:
				return
			}
		}
	}()
	return this
}

func (this *progressCounter) Write(p []byte) (n int, e error) {
	n = len(p)
	atomic.AddInt64(&this.written, int64(n))
	return n, nil
}

func (this *progressCounter) Close() error {
	this.reportProgress()
	this.printTimer.Stop()
	close(this.done)
	return nil
}

func (this *progressCounter) reportProgress() {
	if this.onProgress == nil {
		return
	}
	this.onProgress(contracts.UpdateProgress{
		Phase:      this.phase,
		BytesDone:  atomic.LoadInt64(&this.written),
		BytesTotal: this.total,
	})
}
