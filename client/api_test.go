package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPConsoleAPI_Basic(t *testing.T) {
	Convey("submit, status, delete & list should work", t, func() {
		// 准备：模拟后端
		var gotAuth, gotReqID, gotMethod, delMethod string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/instances/7/start/", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotReqID = r.Header.Get(RequestIDHeader)
			gotMethod = r.Method
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"task_id": 42}`))
		})
		mux.HandleFunc("/api/instances/task_status/42/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"42","state":"SUCCESS","result":{"status":"Running"}}`))
		})
		mux.HandleFunc("/api/instances/7/", func(w http.ResponseWriter, r *http.Request) {
			delMethod = r.Method
			_ = json.NewEncoder(w).Encode(MessageResp{Message: "Instancja została usunięta"})
		})
		mux.HandleFunc("/api/instances/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"user_instances":[{"id":7,"name":"a","is_ready":true}],"admin_instances":[{"id":1,"is_admin_instance":true}]}`))
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		api := NewHTTPConsoleAPI(ts.URL+"/api", 0)
		api.SetToken("abc")
		ctx := context.Background()

		job, err := api.SubmitTask(ctx, 7, "start")
		So(err, ShouldBeNil)
		So(job, ShouldEqual, JobID("42"))
		So(gotAuth, ShouldEqual, "Token abc")
		So(gotReqID, ShouldNotBeEmpty)
		So(gotMethod, ShouldEqual, http.MethodPost)

		st, err := api.TaskStatus(ctx, job)
		So(err, ShouldBeNil)
		So(st.State, ShouldEqual, "SUCCESS")
		So(st.Result.Status, ShouldEqual, "Running")

		msg, err := api.DeleteInstance(ctx, 7)
		So(err, ShouldBeNil)
		So(msg, ShouldEqual, "Instancja została usunięta")
		So(delMethod, ShouldEqual, http.MethodDelete)

		list, err := api.ListInstances(ctx)
		So(err, ShouldBeNil)
		So(len(list.All()), ShouldEqual, 2)
		So(list.All()[1].IsAdminInstance, ShouldBeTrue)
	})

	Convey("login should store the token", t, func() {
		var second, user string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
			var req LoginReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			user = req.Username
			_, _ = w.Write([]byte(`{"token":"t-1","isAdmin":true,"message":"Zalogowano pomyślnie"}`))
		})
		mux.HandleFunc("/api/services/get_system_info/", func(w http.ResponseWriter, r *http.Request) {
			second = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"cpuUsage":12,"memoryLeft":25,"memoryTotal":100,"spaceLeft":5,"spaceTotal":100,"cpuCount":8,"osName":"Linux"}`))
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		api := NewHTTPConsoleAPI(ts.URL+"/api/", 0)
		resp, err := api.Login(context.Background(), "op", "pw")
		So(err, ShouldBeNil)
		So(resp.IsAdmin, ShouldBeTrue)
		So(user, ShouldEqual, "op")
		info, err := api.SystemInfo(context.Background())
		So(err, ShouldBeNil)
		So(second, ShouldEqual, "Token t-1")
		So(info.MemoryUsedPercent(), ShouldEqual, 75)
		So(info.StorageUsedPercent(), ShouldEqual, 95)
		So(LevelOf(info.MemoryUsedPercent()), ShouldEqual, LevelWarning)
		So(LevelOf(info.StorageUsedPercent()), ShouldEqual, LevelCritical)
		So(LevelOf(int(info.CPUUsage)), ShouldEqual, LevelOK)
	})
}

func TestHTTPConsoleAPI_Errors(t *testing.T) {
	Convey("non-2xx should surface backend message", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/instances/3/stop/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Instancja jest już zatrzymana"}`))
		})
		mux.HandleFunc("/api/instances/", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()
		api := NewHTTPConsoleAPI(ts.URL+"/api/", 0)

		_, err := api.SubmitTask(context.Background(), 3, "stop")
		So(err, ShouldNotBeNil)
		var ae *APIError
		So(errors.As(err, &ae), ShouldBeTrue)
		So(ae.StatusCode, ShouldEqual, http.StatusBadRequest)
		So(UserMessage(err), ShouldEqual, "Instancja jest już zatrzymana")

		_, err = api.ListInstances(context.Background())
		So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
	})

	Convey("unreachable backend returns a transport error", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()
		api := NewHTTPConsoleAPI(url, 0)
		_, err := api.TaskStatus(context.Background(), "99")
		So(err, ShouldNotBeNil)
		So(UserMessage(err), ShouldEqual, err.Error())
	})
}

func TestDecoding(t *testing.T) {
	Convey("job ids and task results accept loose shapes", t, func() {
		var h TaskHandle
		So(json.Unmarshal([]byte(`{"task_id":"5b1c-uuid"}`), &h), ShouldBeNil)
		So(h.TaskID, ShouldEqual, JobID("5b1c-uuid"))
		So(json.Unmarshal([]byte(`{"task_id":42}`), &h), ShouldBeNil)
		So(h.TaskID, ShouldEqual, JobID("42"))

		var st TaskStatusResp
		So(json.Unmarshal([]byte(`{"state":"FAILURE","result":"Nie udało się pobrać modów: [1]"}`), &st), ShouldBeNil)
		So(st.Result.Status, ShouldEqual, "Nie udało się pobrać modów: [1]")
		So(json.Unmarshal([]byte(`{"state":"PENDING","result":null}`), &st), ShouldBeNil)
		So(st.Result.Status, ShouldEqual, "")
	})
}

func TestHTTPConsoleAPI_Logs(t *testing.T) {
	Convey("logs are tailed, downloaded raw and deleted", t, func() {
		var tail, delMethod string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/instances/4/logs/", func(w http.ResponseWriter, r *http.Request) {
			tail = r.URL.Query().Get("tail")
			_, _ = w.Write([]byte(`"line1\nline2"`))
		})
		mux.HandleFunc("/api/instances/4/logs/download/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("full log\n"))
		})
		mux.HandleFunc("/api/instances/4/logs/delete/", func(w http.ResponseWriter, r *http.Request) {
			delMethod = r.Method
			_, _ = w.Write([]byte(`{"message":"Logi zostały usunięte"}`))
		})
		mux.HandleFunc("/api/instances/5/logs/download/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Brak logów"}`))
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()
		api := NewHTTPConsoleAPI(ts.URL+"/api/", 0)
		ctx := context.Background()

		logs, err := api.Logs(ctx, 4, 0)
		So(err, ShouldBeNil)
		So(logs, ShouldEqual, "line1\nline2")
		So(tail, ShouldEqual, "2000")
		_, err = api.Logs(ctx, 4, 50)
		So(err, ShouldBeNil)
		So(tail, ShouldEqual, "50")

		raw, err := api.DownloadLogs(ctx, 4)
		So(err, ShouldBeNil)
		So(string(raw), ShouldEqual, "full log\n")
		_, err = api.DownloadLogs(ctx, 5)
		So(UserMessage(err), ShouldEqual, "Brak logów")

		msg, err := api.DeleteLogs(ctx, 4)
		So(err, ShouldBeNil)
		So(msg, ShouldEqual, "Logi zostały usunięte")
		So(delMethod, ShouldEqual, http.MethodDelete)
	})

	Convey("job ids are escaped into a single path segment", t, func() {
		var path, query string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.EscapedPath()
			query = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"state":"PENDING","result":null}`))
		}))
		defer ts.Close()
		api := NewHTTPConsoleAPI(ts.URL+"/api/", 0)

		_, err := api.TaskStatus(context.Background(), "a/b?x")
		So(err, ShouldBeNil)
		So(path, ShouldEqual, "/api/instances/task_status/a%2Fb%3Fx/")
		So(query, ShouldBeEmpty)
	})
}
