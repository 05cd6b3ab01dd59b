package msg

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar is an io.Writer that reports how many bytes went through it.
// With a known Total it draws a bar, otherwise a running KB count.
type ProgressBar struct {
	Label      string
	Total      int64
	Current    int64
	W          io.Writer
	lastPrint  time.Time
	throbIndex int
}

var throbbers = []rune{'|', '/', '-', '\\'}

func NewProgressBar(label string, total int64, w io.Writer) *ProgressBar {
	return &ProgressBar{
		Label:     label,
		Total:     total,
		W:         w,
		lastPrint: time.Now(),
	}
}

func (pb *ProgressBar) Write(p []byte) (int, error) {
	n := len(p)
	pb.Current += int64(n)

	if time.Since(pb.lastPrint) > 40*time.Millisecond {
		pb.print(false)
		pb.lastPrint = time.Now()
	}
	return n, nil
}

func (pb *ProgressBar) print(finish bool) {
	throb := throbbers[pb.throbIndex%len(throbbers)]
	pb.throbIndex++
	if finish {
		throb = ' '
	}

	if pb.Total <= 0 {
		fmt.Fprintf(pb.W, "\r%s %d KB %c", pb.Label, pb.Current/1024, throb)
		return
	}

	const width = 40
	percent := min(float64(pb.Current)/float64(pb.Total), 1)
	if finish {
		percent = 1
	}
	filled := min(int(percent*width), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("-", width-filled)
	fmt.Fprintf(pb.W, "\r%s %6.f%% [%s] %c", pb.Label, percent*100, bar, throb)
}

func (pb *ProgressBar) Finish() {
	pb.print(true)
	fmt.Fprintln(pb.W)
}
