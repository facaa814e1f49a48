// Package queue is the boundary to the job queue. The queue promises
// at-least-once execution no earlier than the task's not-before time;
// everything downstream is written to tolerate redelivery.
package queue

import (
	"context"
	"time"

	"github.com/textloop/campaign-dispatch/internal/model"
)

type Queue interface {
	Enqueue(ctx context.Context, task model.DispatchTask, notBefore time.Time) error
}
