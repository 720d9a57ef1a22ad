package console

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/mocks"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/storage/memstore"
	"github.com/mengeric/gameserver-console-go/task"
)

func recentEventually(c *Console, n int) []notify.Notification {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r := c.Notifications().Recent(); len(r) >= n {
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	return c.Notifications().Recent()
}

func TestConsole_StartLifecycle(t *testing.T) {
	Convey("start -> poll success -> single refresh -> no further polling", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := NewConsole(ctx, WithClientAPI(api), WithPollEvery(10*time.Millisecond))
		So(err, ShouldBeNil)

		inst := client.Instance{ID: 7, Name: "altis", IsReady: true, IsRunning: true}
		api.EXPECT().SubmitTask(gomock.Any(), int64(7), "start").Return(client.JobID("42"), nil)
		api.EXPECT().TaskStatus(gomock.Any(), client.JobID("42")).
			Return(client.TaskStatusResp{ID: "42", State: "SUCCESS", Result: client.TaskResult{Status: "Running"}}, nil).Times(1)
		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{UserInstances: []client.Instance{inst}}, nil).Times(1)

		got, err := c.Dispatcher().Start(ctx, 7)
		So(err, ShouldBeNil)
		So(c.Store().Collection(task.KindStart), ShouldResemble,
			task.Collection{7: {JobID: "42", State: task.StateProgress, Status: "Rozpoczęto uruchamianie"}})
		So(got.JobID, ShouldEqual, "42")

		<-c.Poller().Tick(ctx)
		final, _ := c.Store().Get(task.KindStart, 7)
		So(final, ShouldResemble, task.Task{JobID: "42", State: task.StateSuccess, Status: "Running"})
		list, at := c.Instances()
		So(list.UserInstances, ShouldHaveLength, 1)
		So(at.IsZero(), ShouldBeFalse)

		<-c.Poller().Tick(ctx)
		<-c.Poller().Tick(ctx)

		v := c.View(inst)
		So(v.Action, ShouldEqual, task.KindStop)
		So(v.ShutdownAt.IsZero(), ShouldBeFalse)
	})

	Convey("await returns once the task is terminal", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := NewConsole(ctx, WithClientAPI(api), WithPollEvery(5*time.Millisecond))
		So(err, ShouldBeNil)

		api.EXPECT().SubmitTask(gomock.Any(), int64(3), "stop").Return(client.JobID("s"), nil)
		gomock.InOrder(
			api.EXPECT().TaskStatus(gomock.Any(), client.JobID("s")).Return(client.TaskStatusResp{State: "STARTED"}, nil),
			api.EXPECT().TaskStatus(gomock.Any(), client.JobID("s")).
				Return(client.TaskStatusResp{State: "FAILURE", Result: client.TaskResult{Status: "no pid"}}, nil),
		)
		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{}, nil)

		_, err = c.Dispatcher().Stop(ctx, 3)
		So(err, ShouldBeNil)
		wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		final, err := c.Await(wctx, task.KindStop, 3)
		So(err, ShouldBeNil)
		So(final.State, ShouldEqual, task.StateFailure)
		So(final.Status, ShouldEqual, "no pid")

		_, err = c.Await(wctx, task.KindDownload, 3)
		So(errors.Is(err, ErrNoTask), ShouldBeTrue)
	})

	Convey("closing drops late writes and cancels the loops", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{}, nil).AnyTimes()
		api.EXPECT().SystemInfo(gomock.Any()).Return(client.SystemInfo{CPUCount: 4}, nil).AnyTimes()
		ctx, cancel := context.WithCancel(context.Background())
		c, err := NewConsole(context.Background(), WithClientAPI(api), WithTelemetryEvery(time.Hour), WithPollEvery(time.Hour))
		So(err, ShouldBeNil)
		c.Start(ctx)
		cancel()
		time.Sleep(30 * time.Millisecond)

		c.Store().Put(context.Background(), task.KindStart, 1, task.Task{JobID: "late", State: task.StateProgress})
		_, ok := c.Store().Get(task.KindStart, 1)
		So(ok, ShouldBeFalse)
		c.Close()
	})
}

func TestConsole_Auth(t *testing.T) {
	Convey("login persists the token and a new console restores it", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		kv := memstore.New()
		c, err := NewConsole(ctx, WithClientAPI(api), WithKV(kv))
		So(err, ShouldBeNil)

		resp := client.LoginResp{Token: "tok-1", IsAdmin: true}
		api.EXPECT().Login(gomock.Any(), "admin", "secret").Return(resp, nil)
		api.EXPECT().SetToken("tok-1").Times(2)
		_, err = c.Login(ctx, "admin", "secret")
		So(err, ShouldBeNil)
		So(c.IsAdmin(), ShouldBeTrue)
		So(c.LoggedIn(ctx), ShouldBeTrue)

		_, err = NewConsole(ctx, WithClientAPI(api), WithKV(kv))
		So(err, ShouldBeNil)

		api.EXPECT().SetToken("")
		So(c.Logout(ctx), ShouldBeNil)
		So(c.LoggedIn(ctx), ShouldBeFalse)
		So(c.IsAdmin(), ShouldBeFalse)
	})

	Convey("unauthorized listing drops the stored token", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		kv := memstore.New()
		_ = kv.Set(ctx, task.TokenKey, []byte("stale"))
		api.EXPECT().SetToken("stale")
		c, err := NewConsole(ctx, WithClientAPI(api), WithKV(kv))
		So(err, ShouldBeNil)
		c.Notifications().Start(ctx)

		api.EXPECT().ListInstances(gomock.Any()).
			Return(client.InstanceList{}, &client.APIError{Method: "GET", Path: "instances/", StatusCode: http.StatusUnauthorized, Message: "Invalid token."})
		api.EXPECT().SetToken("")
		c.Refresh(ctx)
		So(c.LoggedIn(ctx), ShouldBeFalse)

		recent := recentEventually(c, 1)
		So(recent, ShouldHaveLength, 1)
		So(recent[0].Text, ShouldEqual, InstancesFailure)
		So(recent[0].Level, ShouldEqual, notify.LevelWarning)
	})

	Convey("failed login stores nothing", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := NewConsole(ctx, WithClientAPI(api))
		So(err, ShouldBeNil)
		api.EXPECT().Login(gomock.Any(), "u", "bad").
			Return(client.LoginResp{}, &client.APIError{StatusCode: http.StatusBadRequest, Message: "Nieprawidłowe dane logowania"})
		_, err = c.Login(ctx, "u", "bad")
		So(err, ShouldNotBeNil)
		So(client.UserMessage(err), ShouldEqual, "Nieprawidłowe dane logowania")
		So(c.LoggedIn(ctx), ShouldBeFalse)
	})
}

func TestConsole_Tasks(t *testing.T) {
	Convey("prune removes finished tasks only", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		ctx := context.Background()
		c, err := NewConsole(ctx, WithClientAPI(api))
		So(err, ShouldBeNil)
		s := c.Store()
		s.Put(ctx, task.KindStart, 1, task.Task{JobID: "1", State: task.StateSuccess})
		s.Put(ctx, task.KindStart, 2, task.Task{JobID: "2", State: task.StateProgress})
		s.Put(ctx, task.KindStop, 1, task.Task{JobID: "3", State: task.StateFailure})

		n, err := c.Prune(ctx, task.KindStop)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)
		n, err = c.Prune(ctx, "")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)
		snap := c.Snapshot()
		So(snap[task.KindStart], ShouldHaveLength, 1)
		So(snap[task.KindStop], ShouldBeEmpty)
		So(snap[task.KindDownload], ShouldBeEmpty)

		_, err = c.Prune(ctx, "restart")
		So(err, ShouldNotBeNil)
	})

	Convey("custom descriptors replace the built-in kinds", t, func() {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockConsoleAPI(ctrl)
		c, err := NewConsole(context.Background(), WithClientAPI(api),
			WithDescriptors(task.Descriptor{Kind: "restart", Action: "restart", InitialStatus: "..."}))
		So(err, ShouldBeNil)
		So(c.Registry().Kinds(), ShouldResemble, []task.Kind{"restart"})

		_, err = NewConsole(context.Background(), WithClientAPI(api), WithDescriptors(task.Descriptor{Action: "x"}))
		So(err, ShouldNotBeNil)
	})
}
