package scorecard

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen/screentest"
)

func TestScoreCard_View(t *testing.T) {
	env := screentest.New(t, nil, nil)
	s := New(env.Env, curriculum.Day1)

	view := s.View(100, 40)
	for _, want := range []string{"complete!", "Your score card", "Points", "LMS Pioneer", "0/23"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestScoreCard_CertificateLocked(t *testing.T) {
	env := screentest.New(t, nil, nil)
	s := New(env.Env, "")

	_, cmd := s.Update(screentest.Key('c'))
	if cmd != nil {
		t.Error("locked certificate must not navigate")
	}
	if !strings.Contains(s.err, "Finish every day") {
		t.Errorf("err = %q", s.err)
	}
}

func TestScoreCard_EnterCloses(t *testing.T) {
	env := screentest.New(t, nil, nil)
	s := New(env.Env, "")

	_, cmd := s.Update(screentest.Special(tea.KeyEnter))
	msgs := screentest.Collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	if _, ok := msgs[0].(router.PopScreenMsg); !ok {
		t.Errorf("msg = %T, want PopScreenMsg", msgs[0])
	}
}
