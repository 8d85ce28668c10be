// Command demo is a small interactive example exercising term, frame,
// and style together: a counter that advances once a second, redraws
// on terminal resize, and quits on 'q' or Ctrl+C.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"tuicore/frame"
	"tuicore/style"
	"tuicore/term"
)

func main() {
	ctl, err := term.New(term.WithLogWriter(os.Stderr))
	if err != nil {
		log.Fatalf("demo: %v", err)
	}
	defer ctl.Close()

	count := 0
	draw := func() {
		size := ctl.Size()
		f := frame.New(size)
		f.SetStyle(style.Default().Bold().Foreground(style.Named(style.Green, false)))
		f.WriteString("Counter App\n")
		f.SetStyle(style.RESET)
		fmt.Fprintf(f, "Current count: %d\n\n(Press 'q' or Ctrl+C to exit)", count)
		if err := ctl.Draw(f); err != nil {
			log.Fatalf("demo: draw: %v", err)
		}
	}

	draw()

	tickEvery := time.Second
	nextTick := time.Now().Add(tickEvery)

	for {
		timeout := time.Until(nextTick)
		if timeout < 0 {
			timeout = 0
		}
		ev, ok, err := ctl.PollEvent(nil, nil, &timeout)
		if err != nil {
			log.Fatalf("demo: %v", err)
		}
		if !time.Now().Before(nextTick) {
			count++
			nextTick = nextTick.Add(tickEvery)
			draw()
		}
		if !ok {
			continue
		}
		switch ev.Kind {
		case term.EventResize:
			draw()
		case term.EventInput:
			r, isChar := ev.Input.Code.IsChar()
			if isChar && r == 'q' && !ev.Input.Ctrl {
				return
			}
			if isChar && r == 'c' && ev.Input.Ctrl {
				return
			}
		}
	}
}
