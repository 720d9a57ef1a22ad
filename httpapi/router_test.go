package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/mocks"
	"github.com/mengeric/gameserver-console-go/task"
)

func newTestRouter(t *testing.T) (*mocks.MockConsoleAPI, *console.Console, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	api := mocks.NewMockConsoleAPI(ctrl)
	c, err := console.NewConsole(context.Background(), console.WithClientAPI(api))
	if err != nil {
		t.Fatal(err)
	}
	return api, c, NewRouter(c)
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Tasks(t *testing.T) {
	Convey("tasks endpoints expose and prune the store", t, func() {
		_, c, r := newTestRouter(t)
		ctx := context.Background()
		c.Store().Put(ctx, task.KindStart, 7, task.Task{JobID: "42", State: task.StateProgress, Status: "Rozpoczęto uruchamianie"})
		c.Store().Put(ctx, task.KindStart, 8, task.Task{JobID: "43", State: task.StateSuccess, Status: "Running"})

		w := do(r, http.MethodGet, "/api/tasks")
		So(w.Code, ShouldEqual, http.StatusOK)
		var all map[string]map[string]task.Task
		So(json.Unmarshal(w.Body.Bytes(), &all), ShouldBeNil)
		So(all["start"]["7"].JobID, ShouldEqual, "42")
		So(all, ShouldContainKey, "download")

		w = do(r, http.MethodGet, "/api/tasks/start")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"8":{"taskId":"43","state":"SUCCESS","status":"Running"}`)

		w = do(r, http.MethodDelete, "/api/tasks/start")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"pruned":1`)
		So(c.Store().Collection(task.KindStart), ShouldHaveLength, 1)

		So(do(r, http.MethodGet, "/api/tasks/restart").Code, ShouldEqual, http.StatusNotFound)
		So(do(r, http.MethodDelete, "/api/tasks/restart").Code, ShouldEqual, http.StatusNotFound)
	})
}

func TestRouter_Instances(t *testing.T) {
	Convey("dispatch seeds a task and reports 202", t, func() {
		api, c, r := newTestRouter(t)
		api.EXPECT().SubmitTask(gomock.Any(), int64(5), "download_mods").Return(client.JobID("d-5"), nil)

		w := do(r, http.MethodPost, "/api/instances/5/download")
		So(w.Code, ShouldEqual, http.StatusAccepted)
		got, ok := c.Store().Get(task.KindDownload, 5)
		So(ok, ShouldBeTrue)
		So(got.JobID, ShouldEqual, "d-5")

		So(do(r, http.MethodPost, "/api/instances/5/reboot").Code, ShouldEqual, http.StatusNotFound)
		So(do(r, http.MethodPost, "/api/instances/abc/start").Code, ShouldEqual, http.StatusBadRequest)
	})

	Convey("backend rejections keep their status code", t, func() {
		api, _, r := newTestRouter(t)
		api.EXPECT().SubmitTask(gomock.Any(), int64(5), "start").
			Return(client.JobID(""), &client.APIError{StatusCode: http.StatusConflict, Message: "Instancja jest już uruchomiona"})
		w := do(r, http.MethodPost, "/api/instances/5/start")
		So(w.Code, ShouldEqual, http.StatusConflict)
		So(w.Body.String(), ShouldContainSubstring, "Instancja jest już uruchomiona")
	})

	Convey("instance listing derives views after a refresh", t, func() {
		api, _, r := newTestRouter(t)
		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{
			UserInstances: []client.Instance{{ID: 2, IsReady: true}, {ID: 1, IsReady: false}},
		}, nil)
		w := do(r, http.MethodGet, "/api/instances?refresh=1")
		So(w.Code, ShouldEqual, http.StatusOK)
		var views []console.InstanceView
		So(json.Unmarshal(w.Body.Bytes(), &views), ShouldBeNil)
		So(views, ShouldHaveLength, 2)
		So(views[0].Instance.ID, ShouldEqual, 1)
		So(views[0].Action, ShouldEqual, task.KindDownload)
		So(views[1].Action, ShouldEqual, task.KindStart)
	})

	Convey("delete and logs are proxied", t, func() {
		api, _, r := newTestRouter(t)
		api.EXPECT().DeleteInstance(gomock.Any(), int64(4)).Return("Usunięto", nil)
		api.EXPECT().ListInstances(gomock.Any()).Return(client.InstanceList{}, nil)
		api.EXPECT().Logs(gomock.Any(), int64(4), 0).Return("line1\nline2", nil)
		api.EXPECT().Logs(gomock.Any(), int64(4), 100).Return("line2", nil)
		api.EXPECT().DownloadLogs(gomock.Any(), int64(4)).Return([]byte("full\n"), nil)
		api.EXPECT().DeleteLogs(gomock.Any(), int64(4)).Return("", nil)

		w := do(r, http.MethodDelete, "/api/instances/4")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, "Usunięto")

		w = do(r, http.MethodGet, "/api/instances/4/logs")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldEqual, "line1\nline2")
		w = do(r, http.MethodGet, "/api/instances/4/logs?tail=100")
		So(w.Body.String(), ShouldEqual, "line2")
		So(do(r, http.MethodGet, "/api/instances/4/logs?tail=x").Code, ShouldEqual, http.StatusBadRequest)

		w = do(r, http.MethodGet, "/api/instances/4/logs/download")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldEqual, "full\n")
		So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "server_logs_4.txt")

		w = do(r, http.MethodDelete, "/api/instances/4/logs")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, console.LogsDeletedMessage)
	})
}

func TestRouter_Telemetry(t *testing.T) {
	Convey("telemetry is unavailable until sampled", t, func() {
		api, c, r := newTestRouter(t)
		So(do(r, http.MethodGet, "/api/telemetry").Code, ShouldEqual, http.StatusServiceUnavailable)

		api.EXPECT().SystemInfo(gomock.Any()).Return(client.SystemInfo{CPUUsage: 95, MemoryTotal: 100, MemoryLeft: 50, SpaceTotal: 10, SpaceLeft: 1}, nil)
		So(c.Telemetry().Refresh(context.Background()), ShouldBeTrue)
		w := do(r, http.MethodGet, "/api/telemetry")
		So(w.Code, ShouldEqual, http.StatusOK)
		var resp TelemetryResp
		So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
		So(resp.MemoryUsedPercent, ShouldEqual, 50)
		So(resp.StorageUsedPercent, ShouldEqual, 90)
		So(resp.CPULevel, ShouldEqual, client.LevelCritical)
		So(resp.MemoryLevel, ShouldEqual, client.LevelOK)
		So(resp.StorageLevel, ShouldEqual, client.LevelCritical)

		So(do(r, http.MethodGet, "/api/notifications").Code, ShouldEqual, http.StatusOK)
		w = do(r, http.MethodGet, "/health")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"probesInFlight":0`)
	})
}
