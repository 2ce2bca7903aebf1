package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kjannette/fully-web/internal/ui/copybutton"
	"github.com/kjannette/fully-web/internal/ui/notfound"
)

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.metrics.notFound.Inc()

	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	props := notfound.Props{}
	if btn, err := copybutton.New(copybutton.Props{Text: r.URL.Path, Size: copybutton.SizeSmall}, nil); err == nil {
		props.Actions = append(props.Actions, btn)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := notfound.New(props, nil).Render(w); err != nil {
		fmt.Printf("[API] Render not-found page: %v\n", err)
	}
}
