package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/CineDeck/internal/auth"
)

// formField is one labeled input. name matches auth.FieldError.Field.
type formField struct {
	name  string
	label string
	input textinput.Model
	err   string
}

// form is a vertical list of inputs with one focused at a time.
type form struct {
	fields []formField
	focus  int
}

func newField(name, label, placeholder string, secret bool) formField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	ti.Width = 40
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return formField{name: name, label: label, input: ti}
}

func newLoginForm() form {
	f := form{fields: []formField{
		newField("email", "Email", "you@example.com", false),
		newField("password", "Password", "at least 6 characters", true),
	}}
	f.fields[0].input.Focus()
	return f
}

func newSignUpForm() form {
	f := form{fields: []formField{
		newField("firstName", "First name", "", false),
		newField("lastName", "Last name", "", false),
		newField("email", "Email", "you@example.com", false),
		newField("password", "Password", "at least 6 characters", true),
		newField("confirmPassword", "Confirm password", "", true),
	}}
	f.fields[0].input.Focus()
	return f
}

func (f form) value(name string) string {
	for _, fld := range f.fields {
		if fld.name == name {
			return fld.input.Value()
		}
	}
	return ""
}

func (f form) loginForm() auth.LoginForm {
	return auth.LoginForm{
		Email:    f.value("email"),
		Password: f.value("password"),
	}
}

func (f form) signUpForm() auth.SignUpForm {
	return auth.SignUpForm{
		FirstName:       f.value("firstName"),
		LastName:        f.value("lastName"),
		Email:           f.value("email"),
		Password:        f.value("password"),
		ConfirmPassword: f.value("confirmPassword"),
	}
}

// setErrors attaches the first message for each field and clears the rest.
func (f *form) setErrors(res auth.Result) {
	for i := range f.fields {
		f.fields[i].err = ""
	}
	for _, fe := range res.Errors {
		for i := range f.fields {
			if f.fields[i].name == fe.Field && f.fields[i].err == "" {
				f.fields[i].err = fe.Message
			}
		}
	}
}

func (f *form) hasErrors() bool {
	for _, fld := range f.fields {
		if fld.err != "" {
			return true
		}
	}
	return false
}

func (f *form) move(delta int) {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *form) last() bool { return f.focus == len(f.fields)-1 }

// update forwards msg to the focused input. Editing a field clears its error.
func (f *form) update(msg tea.Msg) tea.Cmd {
	fld := &f.fields[f.focus]
	before := fld.input.Value()
	var cmd tea.Cmd
	fld.input, cmd = fld.input.Update(msg)
	if fld.input.Value() != before {
		fld.err = ""
	}
	return cmd
}

func (f form) view() string {
	var sb strings.Builder
	for i, fld := range f.fields {
		label := styleDim.Render(fld.label)
		if i == f.focus {
			label = styleInfo.Render(fld.label)
		}
		sb.WriteString(label)
		sb.WriteString("\n")
		sb.WriteString(fld.input.View())
		sb.WriteString("\n")
		if fld.err != "" {
			sb.WriteString(styleError.Render("  " + fld.err))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
