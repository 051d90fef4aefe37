// Package onboarding collects the learner's details before Day 1.
package onboarding

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// field identifies an onboarding answer by its JSON name, which is also the
// key validation errors are reported under.
type field string

const (
	fieldName         field = "name"
	fieldProfession   field = "profession"
	fieldOrganization field = "organization"
	fieldDepartment   field = "department"
	fieldRole         field = "role"
	fieldCTC          field = "ctc"
)

type step struct {
	field   field
	label   string
	options []string // nil for free text
	limit   int
}

var professions = []string{profile.ProfessionStudent, profile.ProfessionFresher, profile.ProfessionProfessional}

// OnboardingScreen is a blocking multi-step form.
type OnboardingScreen struct {
	env     screen.Env
	steps   []step
	cur     int
	values  map[field]string
	input   components.TextInput
	choice  components.MultiChoice
	errs    map[field]string
	general string
}

var (
	_ screen.Screen = (*OnboardingScreen)(nil)
	_ screen.Modal  = (*OnboardingScreen)(nil)
)

func New(env screen.Env) *OnboardingScreen {
	o := &OnboardingScreen{
		env:    env,
		values: map[field]string{},
		errs:   map[field]string{},
	}
	o.plan()
	o.load()
	return o
}

// plan lays out the steps; workplace questions only apply to working
// professionals.
func (o *OnboardingScreen) plan() {
	o.steps = []step{
		{field: fieldName, label: "What is your name?", limit: 100},
		{field: fieldProfession, label: o.prompt("profession", "Which best describes you?"), options: professions},
	}
	if o.values[fieldProfession] == profile.ProfessionProfessional {
		o.steps = append(o.steps,
			step{field: fieldOrganization, label: "Which organization do you work for?", limit: 200},
			step{field: fieldDepartment, label: o.prompt("department", "Which department are you in?"), options: profile.Departments},
			step{field: fieldRole, label: "What is your role?", limit: 100},
			step{field: fieldCTC, label: "Current CTC (optional)", limit: 50},
		)
	}
}

// prompt takes a question's wording from the catalog's onboarding form
// when it has one.
func (o *OnboardingScreen) prompt(id, fallback string) string {
	if o.env.Content == nil {
		return fallback
	}
	form, ok := o.env.Content.Survey("onboarding")
	if !ok {
		return fallback
	}
	for _, q := range form.Questions {
		if q.ID == id && q.Prompt != "" {
			return q.Prompt
		}
	}
	return fallback
}

func (o *OnboardingScreen) load() {
	st := o.steps[o.cur]
	if st.options != nil {
		o.choice = components.NewMultiChoice(st.label, st.options)
		for i, opt := range st.options {
			if opt == o.values[st.field] {
				o.choice.Selected = i
			}
		}
		return
	}
	o.input = components.NewTextInput(st.label, "", st.limit)
	o.input.SetValue(o.values[st.field])
	o.input.Err = o.errs[st.field]
}

func (o *OnboardingScreen) Init() tea.Cmd { return nil }

func (o *OnboardingScreen) Title() string { return "Welcome aboard" }

// Blocking keeps the form open until it validates.
func (o *OnboardingScreen) Blocking() bool { return true }

func (o *OnboardingScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Next"},
		{Key: "Shift+Tab", Description: "Previous"},
	}
}

func (o *OnboardingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		if o.steps[o.cur].options == nil {
			var cmd tea.Cmd
			o.input, cmd = o.input.Update(msg)
			return o, cmd
		}
		return o, nil
	}

	if k.String() == "shift+tab" {
		if o.cur > 0 {
			o.save()
			o.cur--
			o.load()
		}
		return o, nil
	}

	st := o.steps[o.cur]
	if st.options != nil {
		o.choice, _ = o.choice.Update(msg)
		if !o.choice.Submitted {
			return o, nil
		}
		o.values[st.field] = st.options[o.choice.Chosen]
		return o, o.next()
	}

	if k.String() == "enter" {
		o.save()
		return o, o.next()
	}
	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return o, cmd
}

// save stores the text input of the current step.
func (o *OnboardingScreen) save() {
	if st := o.steps[o.cur]; st.options == nil {
		o.values[st.field] = strings.TrimSpace(o.input.Value())
	}
}

func (o *OnboardingScreen) next() tea.Cmd {
	delete(o.errs, o.steps[o.cur].field)
	o.plan()
	if o.cur+1 < len(o.steps) {
		o.cur++
		o.load()
		return nil
	}
	return o.submit()
}

func (o *OnboardingScreen) answers() profile.Onboarding {
	return profile.Onboarding{
		Name:         o.values[fieldName],
		Profession:   o.values[fieldProfession],
		Organization: o.values[fieldOrganization],
		Department:   o.values[fieldDepartment],
		Role:         o.values[fieldRole],
		CTC:          o.values[fieldCTC],
	}
}

func (o *OnboardingScreen) submit() tea.Cmd {
	a := o.answers()
	err := o.env.Engine.CompleteOnboarding(a)
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		o.errs = map[field]string{}
		for f, m := range verr.Fields {
			o.errs[field(f)] = m
		}
		o.cur = o.firstInvalid()
		o.load()
		return nil
	case err != nil:
		o.general = err.Error()
		return nil
	}
	name := strings.TrimSpace(a.Name)
	return tea.Sequence(
		func() tea.Msg { return router.PopScreenMsg{} },
		func() tea.Msg { return screen.NoticeMsg{Text: fmt.Sprintf("Welcome, %s! Day 1 is ready.", name)} },
	)
}

func (o *OnboardingScreen) firstInvalid() int {
	for i, st := range o.steps {
		if _, bad := o.errs[st.field]; bad {
			return i
		}
	}
	return 0
}

func (o *OnboardingScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	st := o.steps[o.cur]

	var b strings.Builder
	b.WriteString(theme.Title.Render("Tell us about yourself"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Step %d of %d", o.cur+1, len(o.steps))))
	b.WriteString("\n\n")
	if st.options != nil {
		b.WriteString(layout.Wrap(o.choice.View(), cw))
		if e := o.errs[st.field]; e != "" {
			b.WriteString("\n")
			b.WriteString(theme.Incorrect.Render("✗ " + e))
		}
	} else {
		b.WriteString(o.input.View())
	}
	if o.general != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(o.general))
	}
	return components.Panel(b.String(), width, height)
}
