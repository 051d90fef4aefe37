package onboarding

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screen/screentest"
)

func enter() tea.KeyPressMsg { return screentest.Special(tea.KeyEnter) }

func TestOnboarding_StudentSkipsWorkplace(t *testing.T) {
	env := screentest.New(t, nil, nil)
	o := New(env.Env)

	if !o.Blocking() {
		t.Error("onboarding must block Esc")
	}
	if len(o.steps) != 2 {
		t.Fatalf("steps = %d, want 2 before a profession is chosen", len(o.steps))
	}

	screentest.Type(o, "Asha")
	o.Update(enter())
	if o.cur != 1 {
		t.Fatalf("cur = %d, want profession step", o.cur)
	}

	_, cmd := o.Update(screentest.Key('1')) // Student
	msgs := screentest.Collect(cmd)
	if len(msgs) != 2 {
		t.Fatalf("msgs = %v, want pop and notice", msgs)
	}
	if _, ok := msgs[0].(router.PopScreenMsg); !ok {
		t.Errorf("first msg = %T, want PopScreenMsg", msgs[0])
	}
	if n, ok := msgs[1].(screen.NoticeMsg); !ok || n.Error {
		t.Errorf("second msg = %#v, want welcome notice", msgs[1])
	}

	p := env.Engine.Profile()
	if !p.Onboarded() {
		t.Fatal("profile not onboarded")
	}
	if p.Onboarding.Name != "Asha" || p.Onboarding.Profession != profile.ProfessionStudent {
		t.Errorf("onboarding = %+v", *p.Onboarding)
	}
}

func TestOnboarding_ProfessionalValidation(t *testing.T) {
	env := screentest.New(t, nil, nil)
	o := New(env.Env)

	screentest.Type(o, "Ravi")
	o.Update(enter())
	o.Update(screentest.Key('3')) // Working Professional

	if len(o.steps) != 6 {
		t.Fatalf("steps = %d, want 6 for a working professional", len(o.steps))
	}
	if o.steps[o.cur].field != fieldOrganization {
		t.Fatalf("step = %s, want organization", o.steps[o.cur].field)
	}

	o.Update(enter())             // organization left blank
	o.Update(screentest.Key('1')) // department
	o.Update(enter())             // role left blank
	_, cmd := o.Update(enter())   // ctc
	if cmd != nil {
		t.Error("invalid answers must not close the form")
	}

	if env.Engine.Profile().Onboarded() {
		t.Fatal("invalid onboarding was stored")
	}
	if _, ok := o.errs[fieldOrganization]; !ok {
		t.Errorf("errs = %v, want organization error", o.errs)
	}
	if _, ok := o.errs[fieldRole]; !ok {
		t.Errorf("errs = %v, want role error", o.errs)
	}
	if o.steps[o.cur].field != fieldOrganization {
		t.Errorf("cursor on %s, want first invalid field", o.steps[o.cur].field)
	}

	screentest.Type(o, "Acme")
	o.Update(enter())
	o.Update(screentest.Key('2'))
	screentest.Type(o, "Analyst")
	o.Update(enter())
	_, cmd = o.Update(enter())
	if cmd == nil {
		t.Fatal("valid answers should close the form")
	}
	got := env.Engine.Profile().Onboarding
	if got == nil || got.Organization != "Acme" || got.Department != profile.Departments[1] || got.Role != "Analyst" {
		t.Errorf("onboarding = %+v", got)
	}
}

func TestOnboarding_BackKeepsAnswers(t *testing.T) {
	env := screentest.New(t, nil, nil)
	o := New(env.Env)

	screentest.Type(o, "Meera")
	o.Update(enter())
	o.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})

	if o.cur != 0 {
		t.Fatalf("cur = %d, want 0", o.cur)
	}
	if got := o.input.Value(); got != "Meera" {
		t.Errorf("name = %q, want Meera", got)
	}
}
