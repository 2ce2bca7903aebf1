// Command copy puts its arguments, or stdin when there are none, on the
// system clipboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kjannette/fully-web/internal/ui/copybutton"
)

func main() {
	text := strings.Join(os.Args[1:], " ")
	if text == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		text = strings.TrimRight(string(b), "\n")
	}

	btn, err := copybutton.New(copybutton.Props{Text: text}, copybutton.SystemClipboard{},
		copybutton.WithLogger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		}))
	if err != nil {
		fmt.Fprintln(os.Stderr, "nothing to copy")
		os.Exit(2)
	}
	defer btn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	btn.Activate(ctx)
	if btn.State() != copybutton.Copied {
		os.Exit(1)
	}
	fmt.Println(btn.Label())
}
