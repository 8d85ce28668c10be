// Command sizecheck prints the controlling terminal's size and then
// blocks, reprinting it every time a resize is delivered, until
// interrupted. It exists as a minimal smoke test for the size-query and
// resize-notification path described in spec.md §4.C/§4.E.
package main

import (
	"fmt"
	"log"
	"os"

	"tuicore/term"
)

func main() {
	ctl, err := term.New(term.WithLogWriter(os.Stderr))
	if err != nil {
		log.Fatalf("sizecheck: %v", err)
	}
	defer ctl.Close()

	report := func() {
		size := ctl.Size()
		fmt.Fprintf(os.Stderr, "size: %d rows x %d cols\n", size.Rows, size.Cols)
	}
	report()

	for {
		ev, ok, err := ctl.PollEvent(nil, nil, nil)
		if err != nil {
			log.Fatalf("sizecheck: %v", err)
		}
		if !ok {
			continue
		}
		switch ev.Kind {
		case term.EventResize:
			report()
		case term.EventInput:
			r, isChar := ev.Input.Code.IsChar()
			if isChar && r == 'q' {
				return
			}
			if isChar && r == 'c' && ev.Input.Ctrl {
				return
			}
		}
	}
}
