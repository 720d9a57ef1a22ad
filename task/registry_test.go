package task

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mengeric/gameserver-console-go/storage/memstore"
)

func TestRegistry(t *testing.T) {
	Convey("default registry binds each kind to its own slice", t, func() {
		ctx := context.Background()
		kv := memstore.New()
		_ = kv.Set(ctx, "stopTasks", []byte(`{"3":{"taskId":"99","state":"PROGRESS","status":"x"}}`))
		s := NewStore(ctx, kv)
		r, err := NewRegistry(ctx, s, DefaultDescriptors()...)
		So(err, ShouldBeNil)
		So(r.Kinds(), ShouldResemble, []Kind{KindDownload, KindStart, KindStop})

		stop, ok := r.Lookup(KindStop)
		So(ok, ShouldBeTrue)
		So(stop.Action, ShouldEqual, "stop")
		So(stop.Tasks.Load()[3].JobID, ShouldEqual, "99")

		start, _ := r.Lookup(KindStart)
		So(start.RecordsStart, ShouldBeTrue)
		So(start.InitialStatus, ShouldEqual, "Rozpoczęto uruchamianie")
		So(start.Tasks.Apply(ctx, func(prev Collection) Collection {
			prev[7] = Task{JobID: "42", State: StateProgress}
			return prev
		}), ShouldBeTrue)
		_, inStop := s.Get(KindStop, 7)
		So(inStop, ShouldBeFalse)
		So(start.Tasks.Set(ctx, Collection{}), ShouldBeTrue)
		So(len(s.Collection(KindStart)), ShouldEqual, 0)

		_, ok = r.Lookup("restart")
		So(ok, ShouldBeFalse)
	})

	Convey("invalid descriptor sets are rejected", t, func() {
		ctx := context.Background()
		s := NewStore(ctx, memstore.New())
		_, err := NewRegistry(ctx, s, Descriptor{Kind: KindStart, Action: "start"}, Descriptor{Kind: KindStart, Action: "start"})
		So(errors.Is(err, ErrDuplicateKind), ShouldBeTrue)
		_, err = NewRegistry(ctx, s, Descriptor{Action: "x"})
		So(errors.Is(err, ErrEmptyKind), ShouldBeTrue)
	})
}
