package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/mocks"
	"github.com/mengeric/gameserver-console-go/task"
)

func key(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestModel(t *testing.T) {
	Convey("keys dispatch only the action the instance offers", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := console.NewConsole(ctx, console.WithClientAPI(api))
		So(err, ShouldBeNil)

		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{UserInstances: []client.Instance{
			{ID: 1, Name: "altis", IsReady: true},
			{ID: 2, Name: "tanoa", IsReady: true, IsRunning: true},
		}}, nil)
		So(c.Reload(ctx), ShouldBeNil)

		m := New(ctx, c)
		So(m.views, ShouldHaveLength, 2)
		So(m.View(), ShouldContainSubstring, "altis")

		next, cmd := m.Update(key('t'))
		So(cmd, ShouldBeNil)
		So(next.(Model).status, ShouldContainSubstring, "niedostępna")

		api.EXPECT().SubmitTask(gomock.Any(), int64(1), "start").Return(client.JobID("42"), nil)
		next, cmd = next.Update(key('s'))
		So(cmd, ShouldNotBeNil)
		next, _ = next.Update(cmd())
		So(next.(Model).status, ShouldEqual, "Rozpoczęto uruchamianie")
		So(next.(Model).views[0].Busy, ShouldBeTrue)
		So(next.View(), ShouldContainSubstring, "Rozpoczęto uruchamianie")

		next, cmd = next.Update(key('s'))
		So(cmd, ShouldBeNil)

		next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
		So(next.(Model).cursor, ShouldEqual, 1)
		api.EXPECT().SubmitTask(gomock.Any(), int64(2), "stop").Return(client.JobID("43"), nil)
		_, cmd = next.Update(key('t'))
		So(cmd, ShouldNotBeNil)
		cmd()
		got, _ := c.Store().Get(task.KindStop, 2)
		So(got.JobID, ShouldEqual, "43")

		_, cmd = next.Update(key('q'))
		So(cmd, ShouldNotBeNil)
	})

	Convey("prune key clears finished tasks", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := console.NewConsole(ctx, console.WithClientAPI(api))
		So(err, ShouldBeNil)
		c.Store().Put(ctx, task.KindStart, 9, task.Task{JobID: "x", State: task.StateFailure})

		m := New(ctx, c)
		So(m.View(), ShouldContainSubstring, "Brak instancji")
		next, _ := m.Update(key('c'))
		So(next.(Model).status, ShouldEndWith, "1")
		So(c.Store().Collection(task.KindStart), ShouldBeEmpty)
	})
}
