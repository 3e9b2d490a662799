package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chatter-box/mocks"
)

func Test_Supervisor_Stops_Workers_On_Cancel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Add(worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor did not stop after cancel")
	}
}

func Test_Supervisor_Restarts_Crashed_Worker(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	var runs atomic.Int32
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}).Times(2)

	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("worker was not restarted")
	}
	req.Equal(int32(2), runs.Load())
}

func Test_Supervisor_Recovers_Panic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	var runs atomic.Int32
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("worker exploded")
		}
		return nil
	}).Times(2)

	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor did not survive the panic")
	}
	req.Equal(int32(2), runs.Load())
}

func Test_Supervisor_Stop(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	started := make(chan struct{})
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	<-started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor did not stop")
	}
}
