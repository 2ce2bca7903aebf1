package notfound

import (
	"bytes"
	"html/template"
	"io"
)

const (
	DefaultTitle   = "Not Found"
	DefaultMessage = "The page you are looking for does not exist or has been moved."
)

// Navigator performs the platform's "go back in history" action.
type Navigator interface {
	Back()
}

type NavigatorFunc func()

func (f NavigatorFunc) Back() { f() }

// Renderer is any component that can write itself as HTML.
type Renderer interface {
	Render(w io.Writer) error
}

// Props configures a View. The zero value shows the default title and
// message with a back control.
type Props struct {
	Title          string
	Message        string
	HideBackButton bool
	// OnBack replaces the Navigator when the back control is used.
	OnBack func()
	// Actions are rendered below the message.
	Actions []Renderer
}

type View struct {
	props Props
	nav   Navigator
}

func New(props Props, nav Navigator) *View {
	if props.Title == "" {
		props.Title = DefaultTitle
	}
	if props.Message == "" {
		props.Message = DefaultMessage
	}
	return &View{props: props, nav: nav}
}

func (v *View) Title() string        { return v.props.Title }
func (v *View) Message() string      { return v.props.Message }
func (v *View) HasBackControl() bool { return !v.props.HideBackButton }

// Back runs the back action: OnBack when supplied, otherwise the navigator.
// It does nothing when the back control is hidden.
func (v *View) Back() {
	if v.props.HideBackButton {
		return
	}
	if v.props.OnBack != nil {
		v.props.OnBack()
		return
	}
	if v.nav != nil {
		v.nav.Back()
	}
}

var pageTmpl = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main class="not-found">
<h1 class="not-found__title">{{.Title}}</h1>
<p class="not-found__message">{{.Message}}</p>
{{- range .Actions}}
<div class="not-found__action">{{.}}</div>
{{- end}}
{{- if .ShowBack}}
<button type="button" class="not-found__back" onclick="history.back()">Go back</button>
{{- end}}
</main>
</body>
</html>
`))

// Render writes the page as HTML. Back navigation in the browser uses
// history.back().
func (v *View) Render(w io.Writer) error {
	actions := make([]template.HTML, 0, len(v.props.Actions))
	for _, a := range v.props.Actions {
		var buf bytes.Buffer
		if err := a.Render(&buf); err != nil {
			return err
		}
		// components escape their own content
		actions = append(actions, template.HTML(buf.String()))
	}

	return pageTmpl.Execute(w, struct {
		Title    string
		Message  string
		Actions  []template.HTML
		ShowBack bool
	}{
		Title:    v.props.Title,
		Message:  v.props.Message,
		Actions:  actions,
		ShowBack: v.HasBackControl(),
	})
}
